package pipeline

import (
	"context"

	"github.com/SaiNageswarS/extract-boot/schema"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// CriticFunc scores the current output and returns the raw review JSON.
type CriticFunc func(ctx context.Context, output string) (string, error)

// RefinerFunc corrects the current output given the last review.
type RefinerFunc func(ctx context.Context, output, review string) (string, error)

// LoopResult carries the refinement loop's terminal state. MetThreshold
// false is not an error: the loop hands back its best effort and the caller
// decides whether to surface a warning.
type LoopResult struct {
	Output       string
	Review       schema.ReviewResult
	RawReview    string
	CriticCalls  int
	Refinements  int
	MetThreshold bool
}

// RunRefinementLoop iterates critic and refiner until the quality threshold
// is met or maxIterations refinements have run. The bootstrapping critique
// happens once before the bounded loop, so zero refiner calls occur when the
// first critique already passes and the loop body's review input exists
// before its first iteration reads it. At most maxIterations+1 critic calls.
func RunRefinementLoop(
	ctx context.Context,
	initial string,
	maxIterations int,
	threshold float64,
	critic CriticFunc,
	refiner RefinerFunc,
	reporter ProgressReporter,
) (LoopResult, error) {
	result := LoopResult{Output: initial}

	rawReview, err := critic(ctx, result.Output)
	if err != nil {
		return result, err
	}
	result.CriticCalls++
	result.RawReview = rawReview
	result.Review = ParseReview(rawReview)

	reporter.Send(Event{Stage: StageRefine, Message: "initial critique", Current: 0, Total: maxIterations, Score: result.Review.Score})

	if result.Review.Score >= threshold {
		result.MetThreshold = true
		return result, nil
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		corrected, err := refiner(ctx, result.Output, result.RawReview)
		if err != nil {
			return result, err
		}
		result.Output = corrected
		result.Refinements++

		rawReview, err = critic(ctx, result.Output)
		if err != nil {
			return result, err
		}
		result.CriticCalls++
		result.RawReview = rawReview
		result.Review = ParseReview(rawReview)

		reporter.Send(Event{Stage: StageRefine, Message: "refinement iteration", Current: iteration, Total: maxIterations, Score: result.Review.Score})

		if result.Review.Score >= threshold {
			result.MetThreshold = true
			return result, nil
		}
	}

	logger.Info("Refinement loop exhausted below threshold, returning best effort",
		zap.Float64("score", result.Review.Score),
		zap.Float64("threshold", threshold),
		zap.Int("refinements", result.Refinements))

	return result, nil
}
