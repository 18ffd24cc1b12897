package pipeline

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/SaiNageswarS/extract-boot/schema"
)

var scorePattern = regexp.MustCompile(`"score"\s*:\s*([0-9]*\.?[0-9]+)`)

// ParseReview extracts a ReviewResult from critic output. It parses the
// review structurally first; when that fails it falls back to a substring
// scan for the score field. An unrecoverable score defaults to 0.0, never
// to a passing value.
func ParseReview(raw string) schema.ReviewResult {
	var review schema.ReviewResult
	if err := json.Unmarshal([]byte(raw), &review); err == nil {
		review.Score = clampScore(review.Score)
		return review
	}

	review = schema.ReviewResult{}
	if m := scorePattern.FindStringSubmatch(raw); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil {
			review.Score = clampScore(score)
		}
	}
	return review
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
