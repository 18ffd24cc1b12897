package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/SaiNageswarS/extract-boot/chunker"
	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/SaiNageswarS/extract-boot/records"
	"github.com/SaiNageswarS/extract-boot/step"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"go.uber.org/zap"
)

// Controller routes a document through the direct or the chunked execution
// path and threads one State through the step sequence. It is safe to reuse
// for multiple runs; each run gets a fresh State.
type Controller struct {
	cfg      Config
	manifest Manifest
	invoker  step.Invoker
	chunker  *chunker.Chunker
	batcher  *records.Batcher
	reporter ProgressReporter
}

type ControllerOption func(*Controller)

func WithProgressReporter(reporter ProgressReporter) ControllerOption {
	return func(c *Controller) { c.reporter = reporter }
}

// NewController validates config and manifest at assembly time; a wiring
// defect surfaces here, before any inference call is made.
func NewController(cfg Config, manifest Manifest, invoker step.Invoker, opts ...ControllerOption) (*Controller, error) {
	if invoker == nil {
		return nil, fmt.Errorf("%w: invoker must not be nil", internalerr.ErrConfiguration)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := manifest.Validate(cfg.ChunkingEnabled); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:      cfg,
		manifest: manifest,
		invoker:  invoker,
		chunker:  chunker.ProvideChunker(),
		batcher:  records.ProvideBatcher(),
		reporter: NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Execute runs the full pipeline over one document and returns the final
// JSON output.
func (c *Controller) Execute(ctx context.Context, document, fileManifest string) (string, error) {
	state := NewState()
	state.Set(KeySourceText, document)
	state.Set(KeyFileManifest, fileManifest)
	for name, value := range c.manifest.Seeds {
		state.Seed(name, value)
	}
	if c.manifest.CriticStep != nil {
		state.Seed(KeyReview, emptyReviewJSON)
	}

	chunked := c.cfg.ChunkingEnabled && c.chunker.NeedsChunking(document, c.cfg.TokenBudget)
	c.reporter.Send(Event{Stage: StageRoute, Message: routeMessage(chunked)})

	if chunked {
		return c.executeChunked(ctx, state, document)
	}
	return c.executeDirect(ctx, state)
}

func routeMessage(chunked bool) string {
	if chunked {
		return "chunked"
	}
	return "direct"
}

// executeDirect runs the full ordered step sequence once against the whole
// document. No merge, no batching.
func (c *Controller) executeDirect(ctx context.Context, state *State) (string, error) {
	for _, d := range c.manifest.MapSteps {
		if err := c.runStep(ctx, state, d); err != nil {
			return "", err
		}
	}

	lastMap := c.manifest.MapSteps[len(c.manifest.MapSteps)-1]
	candidates, err := state.Get(lastMap.Output)
	if err != nil {
		return "", err
	}
	state.Set(KeyRecords, candidates)

	if err := c.runReducePass(ctx, state); err != nil {
		return "", err
	}
	return c.runTail(ctx, state)
}

func (c *Controller) executeChunked(ctx context.Context, state *State, document string) (string, error) {
	chunks, err := c.chunker.Chunk(document, c.cfg.PagesPerChunk, c.cfg.OverlapPages, c.cfg.PageDelimiter)
	if err != nil {
		return "", err
	}

	chunkResults, err := c.runMapPhase(ctx, state, chunks)
	if err != nil {
		return "", err
	}
	state.Set(KeyChunkResults, chunkResults)

	c.reporter.Send(Event{Stage: StageMerge, Message: "merging chunk results"})
	if err := c.runStep(ctx, state, *c.manifest.MergeStep); err != nil {
		return "", err
	}
	c.resolveOverlapDuplicates(ctx, state, chunks)

	c.bridge(state)

	if err := c.runReducePhase(ctx, state); err != nil {
		return "", err
	}
	return c.runTail(ctx, state)
}

// chunkOutput accumulates one chunk's map-step outputs, keyed by the
// producing step's declared output name.
type chunkOutput struct {
	ChunkIndex int                        `json:"chunkIndex"`
	PageStart  int                        `json:"pageStart"`
	PageEnd    int                        `json:"pageEnd"`
	Outputs    map[string]json.RawMessage `json:"outputs"`
}

// runMapPhase executes the map steps once per chunk and folds all per-chunk
// outputs into one ordered JSON collection. A failed chunk is recorded and
// skipped; only all chunks failing aborts the run.
func (c *Controller) runMapPhase(ctx context.Context, state *State, chunks []chunker.ChunkModel) (string, error) {
	var outputs []chunkOutput

	if c.cfg.MapConcurrency > 1 {
		// Each concurrent chunk works on its own clone; results fold back
		// only after the unit completes.
		semaphore := make(chan struct{}, c.cfg.MapConcurrency)
		tasks := make([]<-chan async.Result[chunkOutput], 0, len(chunks))
		for _, chunk := range chunks {
			tasks = append(tasks, async.Go(func() (chunkOutput, error) {
				semaphore <- struct{}{}
				defer func() { <-semaphore }()

				clone := state.Clone()
				clone.Set(KeySourceText, chunk.Text)
				return c.runMapSequence(ctx, clone, chunk)
			}))
		}

		for i, task := range tasks {
			out, err := async.Await(task)
			if err != nil {
				logger.Error("Map phase failed for chunk, skipping", zap.Int("chunk", i), zap.Error(err))
				continue
			}
			outputs = append(outputs, out)
		}
	} else {
		for _, chunk := range chunks {
			c.reporter.Send(Event{Stage: StageMap, Message: "mapping chunk", Current: chunk.Index + 1, Total: chunk.TotalChunks})

			var out chunkOutput
			err := state.WithOverride(KeySourceText, chunk.Text, func() error {
				var mapErr error
				out, mapErr = c.runMapSequence(ctx, state, chunk)
				return mapErr
			})
			if err != nil {
				logger.Error("Map phase failed for chunk, skipping", zap.Int("chunk", chunk.Index), zap.Error(err))
				continue
			}
			outputs = append(outputs, out)
		}
	}

	if len(outputs) == 0 {
		return "", fmt.Errorf("%w: map phase produced no chunk results", internalerr.ErrStepInvocation)
	}
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].ChunkIndex < outputs[j].ChunkIndex })

	encoded, err := json.Marshal(outputs)
	if err != nil {
		return "", fmt.Errorf("%w: encoding chunk results: %v", internalerr.ErrParse, err)
	}
	return string(encoded), nil
}

func (c *Controller) runMapSequence(ctx context.Context, state *State, chunk chunker.ChunkModel) (chunkOutput, error) {
	out := chunkOutput{
		ChunkIndex: chunk.Index,
		PageStart:  chunk.PageStart,
		PageEnd:    chunk.PageEnd,
		Outputs:    make(map[string]json.RawMessage, len(c.manifest.MapSteps)),
	}

	for _, d := range c.manifest.MapSteps {
		if err := c.runStep(ctx, state, d); err != nil {
			return chunkOutput{}, err
		}
		value, err := state.Get(d.Output)
		if err != nil {
			return chunkOutput{}, err
		}
		out.Outputs[d.Output] = toRawJSON(value)
	}
	return out, nil
}

// toRawJSON embeds value verbatim when it already is valid JSON, otherwise
// as a JSON string.
func toRawJSON(value string) json.RawMessage {
	if json.Valid([]byte(value)) {
		return json.RawMessage(value)
	}
	quoted, _ := json.Marshal(value)
	return json.RawMessage(quoted)
}

// resolveOverlapDuplicates drops the later-chunk occurrence of records
// discoverable in the page range shared by two adjacent chunks.
func (c *Controller) resolveOverlapDuplicates(ctx context.Context, state *State, chunks []chunker.ChunkModel) {
	merged, ok := state.Lookup(c.manifest.MergeStep.Output)
	if !ok {
		return
	}

	zones, err := linq.Pipe3(
		linq.FromSlice(ctx, chunks),

		linq.Where(func(chunk chunker.ChunkModel) bool {
			return chunk.HasOverlap()
		}),

		linq.Select(func(chunk chunker.ChunkModel) records.PageRange {
			return records.PageRange{Start: chunk.OverlapStart, End: chunk.OverlapEnd}
		}),

		linq.ToSlice[records.PageRange](),
	)
	if err != nil || len(zones) == 0 {
		return
	}

	resolved, stats := records.ResolveOverlapDuplicates(merged, zones, c.cfg.IdentityFields)
	state.Set(c.manifest.MergeStep.Output, resolved)

	c.reporter.Send(Event{
		Stage:   StageMerge,
		Message: fmt.Sprintf("overlap resolution: %d -> %d records", stats.RecordsBefore, stats.RecordsAfter),
	})
}

// bridge translates the merge step's output names into the reduce phase's
// input names. A failed translation passes the raw merge output through
// unchanged with a logged warning instead of aborting.
func (c *Controller) bridge(state *State) {
	c.reporter.Send(Event{Stage: StageBridge, Message: "translating merge output"})

	for from, to := range c.manifest.BridgeKeys {
		value, ok := state.Lookup(from)
		if !ok {
			logger.Error("Bridge source missing, skipping translation",
				zap.String("from", from), zap.String("to", to))
			continue
		}
		state.Set(to, value)
	}

	if _, ok := state.Lookup(KeyRecords); !ok {
		mergeOut, _ := state.Lookup(c.manifest.MergeStep.Output)
		logger.Error("Bridge produced no record set, passing raw merge output through")
		state.Set(KeyRecords, mergeOut)
	}
}

// runReducePhase batches the record set when it exceeds the configured batch
// size, runs the reduce pass per batch, and folds the results back into one
// contiguously numbered collection. A failed batch is skipped; the merge
// fails only when nothing usable remains.
func (c *Controller) runReducePhase(ctx context.Context, state *State) error {
	current, err := state.Get(KeyRecords)
	if err != nil {
		return err
	}

	count := c.batcher.CountRecords(current)
	if !c.cfg.BatchingEnabled || count <= c.cfg.BatchSize {
		c.reporter.Send(Event{Stage: StageReduce, Message: "single reduce pass", Current: 1, Total: 1})
		return c.runReducePass(ctx, state)
	}

	batches := c.batcher.Split(current, c.cfg.BatchSize)
	results := make([]string, 0, len(batches))

	for i, batch := range batches {
		c.reporter.Send(Event{Stage: StageReduce, Message: "reduce batch", Current: i + 1, Total: len(batches)})

		err := state.WithOverride(KeyRecords, batch, func() error {
			if err := c.runReducePass(ctx, state); err != nil {
				return err
			}
			result, err := state.Get(KeyRecords)
			if err != nil {
				return err
			}
			results = append(results, result)
			return nil
		})
		if err != nil {
			logger.Error("Reduce pass failed for batch, skipping", zap.Int("batch", i), zap.Error(err))
		}
	}

	merged, err := c.batcher.MergeAndRenumber(results)
	if err != nil {
		return err
	}
	state.Set(KeyRecords, merged)
	return nil
}

// runReducePass executes the reduce steps once against the current record
// set, then folds any fan-out overlays onto the pass's base collection. The
// pass's result lands back under KeyRecords.
func (c *Controller) runReducePass(ctx context.Context, state *State) error {
	for _, d := range c.manifest.ReduceSteps {
		if err := c.runStep(ctx, state, d); err != nil {
			return err
		}
	}

	base, err := state.Get(c.manifest.reduceBaseKey())
	if err != nil {
		return err
	}

	if len(c.manifest.Overlays) > 0 {
		overlays := make([]records.Overlay, 0, len(c.manifest.Overlays))
		for _, spec := range c.manifest.Overlays {
			collection, ok := state.Lookup(spec.StateKey)
			if !ok {
				logger.Error("Overlay collection missing, skipping", zap.String("overlay", spec.StateKey))
				continue
			}
			overlays = append(overlays, records.Overlay{Name: spec.StateKey, Fields: spec.Fields, JSON: collection})
		}

		merged, err := records.MergeOverlays(base, overlays...)
		if err != nil {
			// Fall back to the most complete prior-stage collection.
			logger.Error("Overlay merge failed, keeping base collection", zap.Error(err))
			merged = base
		}
		base = merged
	}

	state.Set(KeyRecords, base)
	return nil
}

// runTail runs the whole-set-only steps and the refinement loop. Tail steps
// are never batched: justification assembly needs every per-record tag to
// exist already.
func (c *Controller) runTail(ctx context.Context, state *State) (string, error) {
	for _, d := range c.manifest.TailSteps {
		c.reporter.Send(Event{Stage: StageTail, Message: d.Name})
		if err := c.runStep(ctx, state, d); err != nil {
			return "", err
		}
	}

	finalKey := c.manifest.FinalKey()
	output, err := state.Get(finalKey)
	if err != nil {
		return "", err
	}

	if c.manifest.CriticStep == nil {
		return output, nil
	}

	result, err := RunRefinementLoop(
		ctx,
		output,
		c.cfg.MaxRefinementIterations,
		c.cfg.QualityThreshold,
		c.criticFunc(state, finalKey),
		c.refinerFunc(state, finalKey),
		c.reporter,
	)
	if err != nil {
		return "", err
	}
	if !result.MetThreshold {
		logger.Info("Returning output below quality threshold",
			zap.Float64("score", result.Review.Score),
			zap.String("summary", result.Review.Summary))
	}

	state.Set(finalKey, result.Output)
	state.Set(KeyReview, result.RawReview)
	return result.Output, nil
}

// criticFunc invokes the critic step against a candidate output, overriding
// the final-output name for the duration of the call.
func (c *Controller) criticFunc(state *State, finalKey string) CriticFunc {
	return func(ctx context.Context, output string) (string, error) {
		var rawReview string
		err := state.WithOverride(finalKey, output, func() error {
			if err := c.runStep(ctx, state, *c.manifest.CriticStep); err != nil {
				return err
			}
			var getErr error
			rawReview, getErr = state.Get(c.manifest.CriticStep.Output)
			return getErr
		})
		return rawReview, err
	}
}

func (c *Controller) refinerFunc(state *State, finalKey string) RefinerFunc {
	return func(ctx context.Context, output, review string) (string, error) {
		var corrected string
		err := state.WithOverride(finalKey, output, func() error {
			return state.WithOverride(KeyReview, review, func() error {
				if err := c.runStep(ctx, state, *c.manifest.RefinerStep); err != nil {
					return err
				}
				var getErr error
				corrected, getErr = state.Get(c.manifest.RefinerStep.Output)
				return getErr
			})
		})
		return corrected, err
	}
}

// runStep gathers the step's declared inputs from state, invokes it, and
// writes its declared output back. A missing required input is fatal.
func (c *Controller) runStep(ctx context.Context, state *State, d step.Descriptor) error {
	inputs := make(map[string]string, len(d.Inputs))
	for _, name := range d.Inputs {
		value, err := state.Get(name)
		if err != nil {
			return fmt.Errorf("step %q: %w", d.Name, err)
		}
		inputs[name] = value
	}

	outputs, err := c.invoker.Invoke(ctx, d.Name, inputs)
	if err != nil {
		return err
	}

	value, ok := outputs[d.Output]
	if !ok {
		return fmt.Errorf("%w: step %q did not produce declared output %q", internalerr.ErrStepInvocation, d.Name, d.Output)
	}
	state.Set(d.Output, value)
	return nil
}
