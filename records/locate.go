package records

import "encoding/json"

// recordArrayKeys are the conventional names tried, in priority order, when
// locating the record array inside a JSON document.
var recordArrayKeys = []string{
	"extracted_records",
	"records",
	"candidates",
	"entities",
	"items",
	"results",
}

// locateArray finds the record array in doc. When the array sits under a key
// of a root object, key and root are returned alongside it; when the root
// itself is the array, key is empty and root is nil.
func locateArray(doc string) (key string, arr []any, root map[string]any, ok bool) {
	var parsed any
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return "", nil, nil, false
	}

	switch v := parsed.(type) {
	case []any:
		return "", v, nil, true
	case map[string]any:
		for _, k := range recordArrayKeys {
			if a, found := v[k].([]any); found {
				return k, a, v, true
			}
		}
	}
	return "", nil, nil, false
}

func intFromAny(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
