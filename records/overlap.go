package records

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/extract-boot/schema"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// PageRange is a 1-based inclusive page span shared by two adjacent chunks.
type PageRange struct {
	Start int
	End   int
}

func (r PageRange) contains(page int) bool {
	return page >= r.Start && page <= r.End
}

// ResolveOverlapDuplicates drops repeat occurrences of the same logical
// record inside an overlap zone, keeping the first occurrence. Records
// arrive in chunk order, so the survivor is always the lower-indexed chunk's
// occurrence. The identity key is built from identityFields; field-level
// differences between the two occurrences are not reconciled, so a later
// chunk may have captured a field the kept occurrence missed and that value
// is lost. Survivors are renumbered sequentially from 1 so downstream steps
// never see gaps where duplicates were removed.
func ResolveOverlapDuplicates(doc string, zones []PageRange, identityFields []string) (string, schema.MergeStats) {
	stats := schema.MergeStats{}

	key, arr, root, ok := locateArray(doc)
	if !ok {
		return doc, stats
	}
	stats.RecordsBefore = len(arr)

	seen := make(map[string]bool)
	kept := make([]any, 0, len(arr))
	for _, rec := range arr {
		m, isObj := rec.(map[string]any)
		if !isObj {
			kept = append(kept, rec)
			continue
		}

		zone := zoneOf(m, zones)
		if zone < 0 {
			kept = append(kept, rec)
			continue
		}

		identity := identityKey(m, identityFields)
		if identity == "" {
			kept = append(kept, rec)
			continue
		}

		dedupeKey := fmt.Sprintf("%d|%s", zone, identity)
		if seen[dedupeKey] {
			stats.OverlapResolved++
			continue
		}
		seen[dedupeKey] = true
		kept = append(kept, rec)
	}

	stats.RecordsAfter = len(kept)
	stats.DuplicatesRemoved = stats.OverlapResolved

	if stats.OverlapResolved == 0 {
		return doc, stats
	}

	next := 1
	for _, rec := range kept {
		if m, isObj := rec.(map[string]any); isObj {
			m["id"] = next
			next++
		}
	}

	var payload any
	if root == nil {
		payload = kept
	} else {
		root[key] = kept
		payload = root
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode deduplicated records, keeping input", zap.Error(err))
		return doc, schema.MergeStats{RecordsBefore: stats.RecordsBefore, RecordsAfter: stats.RecordsBefore}
	}

	logger.Info("Resolved overlap-zone duplicates",
		zap.Int("before", stats.RecordsBefore),
		zap.Int("after", stats.RecordsAfter))

	return string(encoded), stats
}

func zoneOf(rec map[string]any, zones []PageRange) int {
	page, ok := intFromAny(rec["pageNumber"])
	if !ok {
		return -1
	}
	for i, z := range zones {
		if z.contains(page) {
			return i
		}
	}
	return -1
}

func identityKey(rec map[string]any, fields []string) string {
	parts := make([]string, 0, len(fields))
	empty := true
	for _, f := range fields {
		s, _ := rec[f].(string)
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			empty = false
		}
		parts = append(parts, s)
	}
	if empty {
		return ""
	}
	return strings.Join(parts, "|")
}
