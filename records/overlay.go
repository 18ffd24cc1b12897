package records

import (
	"encoding/json"
	"fmt"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// Overlay is one fan-out enrichment result: a record collection carrying
// values for the field set the producing step owns. Field ownership is
// disjoint across overlays, which makes application order irrelevant.
type Overlay struct {
	Name   string   // producing step, for logs
	Fields []string // fields this overlay owns
	JSON   string   // overlay record collection
}

// MergeOverlays applies each overlay's owned fields onto the base records,
// matched by id. The base record stays authoritative for identity and for
// any field no overlay owns. An overlay value replaces the base field only
// when present and non-null; a missing overlay entry leaves the base record
// untouched. An entirely unparsable overlay is logged and skipped rather
// than failing the merge.
func MergeOverlays(baseJSON string, overlays ...Overlay) (string, error) {
	key, arr, root, ok := locateArray(baseJSON)
	if !ok {
		return baseJSON, fmt.Errorf("%w: base collection has no record array", internalerr.ErrParse)
	}

	for _, overlay := range overlays {
		byID := indexByID(overlay)
		if byID == nil {
			continue
		}

		for _, rec := range arr {
			base, isObj := rec.(map[string]any)
			if !isObj {
				continue
			}
			id, hasID := intFromAny(base["id"])
			if !hasID {
				continue
			}
			patch, found := byID[id]
			if !found {
				continue
			}
			for _, field := range overlay.Fields {
				if v, present := patch[field]; present && v != nil {
					base[field] = v
				}
			}
		}
	}

	var payload any
	if root == nil {
		payload = arr
	} else {
		root[key] = arr
		payload = root
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return baseJSON, fmt.Errorf("%w: encoding merged records: %v", internalerr.ErrParse, err)
	}
	return string(encoded), nil
}

func indexByID(overlay Overlay) map[int]map[string]any {
	_, arr, _, ok := locateArray(overlay.JSON)
	if !ok {
		logger.Error("Skipping unparsable overlay", zap.String("overlay", overlay.Name))
		return nil
	}

	byID := make(map[int]map[string]any, len(arr))
	for _, rec := range arr {
		m, isObj := rec.(map[string]any)
		if !isObj {
			continue
		}
		if id, hasID := intFromAny(m["id"]); hasID {
			byID[id] = m
		}
	}
	return byID
}
