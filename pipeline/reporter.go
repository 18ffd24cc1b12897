package pipeline

// Stage identifies where in the state machine a progress event originated.
type Stage string

const (
	StageRoute  Stage = "route"
	StageMap    Stage = "map"
	StageMerge  Stage = "merge"
	StageBridge Stage = "bridge"
	StageReduce Stage = "reduce"
	StageTail   Stage = "tail"
	StageRefine Stage = "refine"
)

// Event is one progress update emitted during a pipeline run.
type Event struct {
	Stage   Stage
	Message string
	Current int // unit index within the stage (chunk, batch, iteration)
	Total   int
	Score   float64 // refinement score, when the stage is refine
}

// ProgressReporter receives progress updates during execution.
type ProgressReporter interface {
	Send(event Event)
}

// NoOpProgressReporter discards all events.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) Send(Event) {}
