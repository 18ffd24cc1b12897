package internalerr

import "errors"

// Sentinel errors for the pipeline error taxonomy. Callers match with
// errors.Is; sites wrap them with fmt.Errorf("...: %w", ...) for detail.
var (
	// ErrConfiguration is fatal and raised before any step executes.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMissingState means a step's declared required input was absent
	// when the step was about to run. Indicates a wiring defect.
	ErrMissingState = errors.New("missing pipeline state")

	// ErrStepInvocation means an external step failed or timed out after
	// retries were exhausted.
	ErrStepInvocation = errors.New("step invocation failed")

	// ErrMerge means no batch result contained a recognizable record array.
	ErrMerge = errors.New("merge failed")

	// ErrParse marks malformed intermediate JSON on a single unit.
	ErrParse = errors.New("malformed intermediate output")
)
