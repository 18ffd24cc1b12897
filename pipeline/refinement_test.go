package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCritic returns the given scores in order, then repeats the last.
func scriptedCritic(calls *int, scores ...float64) CriticFunc {
	return func(ctx context.Context, output string) (string, error) {
		idx := *calls
		if idx >= len(scores) {
			idx = len(scores) - 1
		}
		*calls++
		return fmt.Sprintf(`{"score": %.2f, "issues": [], "summary": "scripted"}`, scores[idx]), nil
	}
}

func TestRefinementLoopPassesOnFirstCritique(t *testing.T) {
	criticCalls := 0
	refinerCalls := 0

	refiner := func(ctx context.Context, output, review string) (string, error) {
		refinerCalls++
		return output + " refined", nil
	}

	result, err := RunRefinementLoop(context.Background(), "initial", 3, 0.85,
		scriptedCritic(&criticCalls, 0.90), refiner, NoOpProgressReporter{})

	require.NoError(t, err)
	assert.True(t, result.MetThreshold)
	assert.Equal(t, "initial", result.Output)
	assert.Equal(t, 0.90, result.Review.Score)
	assert.Equal(t, 1, criticCalls)
	assert.Equal(t, 0, refinerCalls, "refiner must not run when the first critique passes")
}

func TestRefinementLoopExhaustsWithoutError(t *testing.T) {
	criticCalls := 0
	refinerCalls := 0

	refiner := func(ctx context.Context, output, review string) (string, error) {
		refinerCalls++
		return fmt.Sprintf("iteration-%d", refinerCalls), nil
	}

	// Scores 0.50, 0.60, 0.70 across three allowed iterations, plus a
	// bootstrap critique: threshold never met, best effort returned.
	result, err := RunRefinementLoop(context.Background(), "initial", 3, 0.85,
		scriptedCritic(&criticCalls, 0.40, 0.50, 0.60, 0.70), refiner, NoOpProgressReporter{})

	require.NoError(t, err)
	assert.False(t, result.MetThreshold)
	assert.Equal(t, "iteration-3", result.Output)
	assert.Equal(t, 0.70, result.Review.Score)
	assert.Equal(t, 3, refinerCalls)
	assert.Equal(t, 4, criticCalls)
}

func TestRefinementLoopStopsAtThresholdMidway(t *testing.T) {
	criticCalls := 0
	refinerCalls := 0

	refiner := func(ctx context.Context, output, review string) (string, error) {
		refinerCalls++
		return fmt.Sprintf("iteration-%d", refinerCalls), nil
	}

	result, err := RunRefinementLoop(context.Background(), "initial", 5, 0.85,
		scriptedCritic(&criticCalls, 0.40, 0.90), refiner, NoOpProgressReporter{})

	require.NoError(t, err)
	assert.True(t, result.MetThreshold)
	assert.Equal(t, "iteration-1", result.Output)
	assert.Equal(t, 1, refinerCalls)
	assert.Equal(t, 2, criticCalls)
}

func TestRefinementLoopZeroIterations(t *testing.T) {
	criticCalls := 0

	refiner := func(ctx context.Context, output, review string) (string, error) {
		t.Fatal("refiner must not run with zero iterations")
		return "", nil
	}

	result, err := RunRefinementLoop(context.Background(), "initial", 0, 0.85,
		scriptedCritic(&criticCalls, 0.10), refiner, NoOpProgressReporter{})

	require.NoError(t, err)
	assert.False(t, result.MetThreshold)
	assert.Equal(t, "initial", result.Output)
	assert.Equal(t, 1, criticCalls, "at most maxIterations+1 critic calls")
}

func TestRefinementLoopCriticErrorPropagates(t *testing.T) {
	boom := errors.New("critic unavailable")
	critic := func(ctx context.Context, output string) (string, error) { return "", boom }
	refiner := func(ctx context.Context, output, review string) (string, error) { return output, nil }

	_, err := RunRefinementLoop(context.Background(), "initial", 3, 0.85, critic, refiner, NoOpProgressReporter{})
	assert.ErrorIs(t, err, boom)
}

func TestRefinementLoopMalformedReviewNeverPasses(t *testing.T) {
	criticCalls := 0
	critic := func(ctx context.Context, output string) (string, error) {
		criticCalls++
		return "not a json review", nil
	}
	refinerCalls := 0
	refiner := func(ctx context.Context, output, review string) (string, error) {
		refinerCalls++
		return output, nil
	}

	result, err := RunRefinementLoop(context.Background(), "initial", 2, 0.5, critic, refiner, NoOpProgressReporter{})

	require.NoError(t, err)
	assert.False(t, result.MetThreshold)
	assert.Equal(t, 0.0, result.Review.Score)
	assert.Equal(t, 2, refinerCalls)
	assert.Equal(t, 3, criticCalls)
}
