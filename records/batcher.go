package records

import (
	"encoding/json"
	"fmt"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// globalContextKey names the shared-context sub-object that is copied into
// the first batch only. Duplicating it across every batch would repeat large
// reference material once per batch.
const globalContextKey = "global_context"

// Batcher splits oversized record collections into bounded batches and folds
// batch results back into one contiguously numbered collection. It never
// fails on malformed input: bad documents pass through unchanged so a
// downstream step can surface the problem.
type Batcher struct{}

func ProvideBatcher() *Batcher {
	return &Batcher{}
}

// CountRecords returns the number of records in doc, or 0 when no record
// array is recognizable.
func (b *Batcher) CountRecords(doc string) int {
	_, arr, _, ok := locateArray(doc)
	if !ok {
		return 0
	}
	return len(arr)
}

// Split partitions the record array of doc into contiguous batches of at
// most batchSize records, preserving order. Non-array sibling fields are
// copied into every batch; the global context sub-object only into the
// first. A document at or under batchSize, or one with no recognizable
// array, comes back as the sole batch.
func (b *Batcher) Split(doc string, batchSize int) []string {
	if batchSize < 1 {
		return []string{doc}
	}

	key, arr, root, ok := locateArray(doc)
	if !ok || len(arr) <= batchSize {
		return []string{doc}
	}

	var batches []string
	for start := 0; start < len(arr); start += batchSize {
		end := min(start+batchSize, len(arr))

		var payload any
		if root == nil {
			payload = arr[start:end]
		} else {
			envelope := map[string]any{key: arr[start:end]}
			for k, v := range root {
				if k == key {
					continue
				}
				if _, isArray := v.([]any); isArray {
					continue
				}
				if k == globalContextKey && start > 0 {
					continue
				}
				envelope[k] = v
			}
			payload = envelope
		}

		encoded, err := json.Marshal(payload)
		if err != nil {
			logger.Error("Failed to encode batch, passing input through", zap.Error(err))
			return []string{doc}
		}
		batches = append(batches, string(encoded))
	}

	return batches
}

// MergeAndRenumber concatenates all batch-result arrays in batch order and
// renumbers record ids sequentially from 1 across the concatenation, so
// downstream steps see one contiguous id space regardless of batching.
// Malformed batches are skipped with a log line; it fails only when no batch
// carries a recognizable record array.
func (b *Batcher) MergeAndRenumber(batchResults []string) (string, error) {
	merged := make([]any, 0)
	var envelopeKey string
	var envelope map[string]any
	found := false

	for i, batch := range batchResults {
		key, arr, root, ok := locateArray(batch)
		if !ok {
			logger.Error("Skipping malformed batch result", zap.Int("batch", i))
			continue
		}
		if !found {
			envelopeKey = key
			envelope = root
			found = true
		}
		merged = append(merged, arr...)
	}

	if !found {
		return "", fmt.Errorf("%w: no batch result contains a record array", internalerr.ErrMerge)
	}

	next := 1
	for _, rec := range merged {
		if m, ok := rec.(map[string]any); ok {
			m["id"] = next
			next++
		}
	}

	var payload any
	if envelope == nil {
		payload = merged
	} else {
		envelope[envelopeKey] = merged
		payload = envelope
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encoding merged records: %v", internalerr.ErrMerge, err)
	}
	return string(encoded), nil
}
