package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReviewStructural(t *testing.T) {
	raw := `{"score":0.85,"issues":[{"rule":"name-match","severity":"high","recordId":3,"description":"last name differs","expected":"Smith"}],"summary":"one mismatch"}`

	review := ParseReview(raw)
	assert.Equal(t, 0.85, review.Score)
	assert.Len(t, review.Issues, 1)
	assert.Equal(t, "name-match", review.Issues[0].Rule)
	assert.Equal(t, 3, *review.Issues[0].RecordID)
	assert.Equal(t, "one mismatch", review.Summary)
}

func TestParseReviewFallbackScan(t *testing.T) {
	// Trailing prose after the JSON breaks structural parsing; the score
	// is still recoverable by substring scan.
	raw := `The review follows: {"score": 0.72, "issues": []} hope that helps!`

	review := ParseReview(raw)
	assert.Equal(t, 0.72, review.Score)
	assert.Empty(t, review.Issues)
}

func TestParseReviewUnrecoverableDefaultsToZero(t *testing.T) {
	review := ParseReview("the model refused to answer")
	assert.Equal(t, 0.0, review.Score)
}

func TestParseReviewClampsScore(t *testing.T) {
	assert.Equal(t, 1.0, ParseReview(`{"score": 3.2}`).Score)
	assert.Equal(t, 0.0, ParseReview(`{"score": -0.5}`).Score)
}
