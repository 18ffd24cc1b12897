package pipeline

import (
	"fmt"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/SaiNageswarS/extract-boot/step"
)

// Reserved state names the controller manages itself.
const (
	KeySourceText   = "sourceText"
	KeyFileManifest = "fileManifest"
	KeyChunkResults = "chunkResults"
	KeyRecords      = "records"
	KeyReview       = "review"
)

// emptyReviewJSON is the declared default seeded before the refinement loop,
// so the refiner's review input exists before its natural producer runs.
const emptyReviewJSON = `{"score": 0.0, "issues": [], "summary": ""}`

// OverlaySpec marks a reduce-step output as a fan-out enrichment overlay.
// Fields must be disjoint across overlays so application order cannot change
// the result.
type OverlaySpec struct {
	StateKey string   // reduce-step output holding the overlay collection
	Fields   []string // fields that overlay owns
}

// Manifest wires step descriptors into pipeline phases. It is validated at
// assembly time, catching missing-producer errors before any inference call.
type Manifest struct {
	// MapSteps run against raw document text: once in the direct path,
	// once per chunk in the chunked path.
	MapSteps []step.Descriptor

	// MergeStep folds the per-chunk collection into one global candidate
	// set. Required when chunking is enabled; unused in the direct path.
	MergeStep *step.Descriptor

	// BridgeKeys translates merge-step output names into the input names
	// the reduce phase expects, decoupling the two schemas.
	BridgeKeys map[string]string

	// ReduceSteps run per record collection, batched when oversized.
	ReduceSteps []step.Descriptor

	// Overlays are fan-out enrichment outputs produced within one reduce
	// pass, folded onto ReduceBaseKey by the field-overlay merge.
	Overlays []OverlaySpec

	// ReduceBaseKey holds the authoritative record set a reduce pass
	// produces. Defaults to KeyRecords.
	ReduceBaseKey string

	// TailSteps need the full, already-reduced record set and are never
	// batched. The last tail step's output is the pipeline result.
	TailSteps []step.Descriptor

	// CriticStep and RefinerStep drive the refinement loop. Both set or
	// both nil.
	CriticStep  *step.Descriptor
	RefinerStep *step.Descriptor

	// Seeds are declared defaults written into fresh state before any
	// step runs.
	Seeds map[string]string
}

// FinalKey is the state name holding the pipeline's terminal output.
func (m Manifest) FinalKey() string {
	return m.TailSteps[len(m.TailSteps)-1].Output
}

func (m Manifest) reduceBaseKey() string {
	if m.ReduceBaseKey != "" {
		return m.ReduceBaseKey
	}
	return KeyRecords
}

// Validate checks structural soundness plus, per execution path, that every
// step's declared inputs are produced by an earlier step or seeded by the
// controller.
func (m Manifest) Validate(chunkingEnabled bool) error {
	if len(m.MapSteps) == 0 {
		return fmt.Errorf("%w: manifest declares no map steps", internalerr.ErrConfiguration)
	}
	if len(m.TailSteps) == 0 {
		return fmt.Errorf("%w: manifest declares no tail steps", internalerr.ErrConfiguration)
	}
	if (m.CriticStep == nil) != (m.RefinerStep == nil) {
		return fmt.Errorf("%w: critic and refiner steps must be configured together", internalerr.ErrConfiguration)
	}
	if chunkingEnabled && m.MergeStep == nil {
		return fmt.Errorf("%w: chunking requires a merge step", internalerr.ErrConfiguration)
	}

	for _, d := range m.AllDescriptors() {
		if err := d.Validate(); err != nil {
			return err
		}
	}

	if err := m.checkProducers(false); err != nil {
		return err
	}
	if chunkingEnabled {
		if err := m.checkProducers(true); err != nil {
			return err
		}
	}
	return nil
}

// AllDescriptors lists every declared step, useful for wiring an invoker.
func (m Manifest) AllDescriptors() []step.Descriptor {
	steps := make([]step.Descriptor, 0, len(m.MapSteps)+len(m.ReduceSteps)+len(m.TailSteps)+3)
	steps = append(steps, m.MapSteps...)
	if m.MergeStep != nil {
		steps = append(steps, *m.MergeStep)
	}
	steps = append(steps, m.ReduceSteps...)
	steps = append(steps, m.TailSteps...)
	if m.CriticStep != nil {
		steps = append(steps, *m.CriticStep)
	}
	if m.RefinerStep != nil {
		steps = append(steps, *m.RefinerStep)
	}
	return steps
}

// checkProducers walks one execution path in step order, tracking which
// state names exist before each step runs.
func (m Manifest) checkProducers(chunked bool) error {
	available := map[string]bool{
		KeySourceText:   true,
		KeyFileManifest: true,
	}
	for name := range m.Seeds {
		available[name] = true
	}
	if m.CriticStep != nil {
		available[KeyReview] = true // seeded by the controller
	}

	requireInputs := func(d step.Descriptor) error {
		for _, in := range d.Inputs {
			if !available[in] {
				return fmt.Errorf("%w: step %q input %q has no producer", internalerr.ErrConfiguration, d.Name, in)
			}
		}
		return nil
	}

	for _, d := range m.MapSteps {
		if err := requireInputs(d); err != nil {
			return err
		}
		available[d.Output] = true
	}

	if chunked {
		available[KeyChunkResults] = true // accumulated by the controller
		if err := requireInputs(*m.MergeStep); err != nil {
			return err
		}
		available[m.MergeStep.Output] = true
		for _, target := range m.BridgeKeys {
			available[target] = true
		}
	}
	available[KeyRecords] = true // guaranteed by the controller after bridge

	for _, d := range m.ReduceSteps {
		if err := requireInputs(d); err != nil {
			return err
		}
		available[d.Output] = true
	}
	if !available[m.reduceBaseKey()] {
		return fmt.Errorf("%w: reduce base key %q has no producer", internalerr.ErrConfiguration, m.reduceBaseKey())
	}
	for _, overlay := range m.Overlays {
		if !available[overlay.StateKey] {
			return fmt.Errorf("%w: overlay %q has no producer", internalerr.ErrConfiguration, overlay.StateKey)
		}
	}

	for _, d := range m.TailSteps {
		if err := requireInputs(d); err != nil {
			return err
		}
		available[d.Output] = true
	}

	if m.CriticStep != nil {
		if err := requireInputs(*m.CriticStep); err != nil {
			return err
		}
		available[m.CriticStep.Output] = true
		if err := requireInputs(*m.RefinerStep); err != nil {
			return err
		}
	}

	return nil
}

// DefaultManifest wires the built-in person-extraction step set backed by
// the embedded prompt templates.
func DefaultManifest() Manifest {
	return Manifest{
		MapSteps: []step.Descriptor{
			{Name: "extract_entities", Inputs: []string{KeySourceText, KeyFileManifest}, Output: "candidateRecords"},
		},
		MergeStep: &step.Descriptor{
			Name: "merge_candidates", Inputs: []string{KeyChunkResults}, Output: "mergedCandidates",
		},
		BridgeKeys: map[string]string{"mergedCandidates": KeyRecords},
		ReduceSteps: []step.Descriptor{
			{Name: "classify_records", Inputs: []string{KeyRecords, KeyFileManifest}, Output: "classifiedRecords"},
			{Name: "enrich_titles", Inputs: []string{KeyRecords}, Output: "titleOverlay"},
		},
		ReduceBaseKey: "classifiedRecords",
		Overlays: []OverlaySpec{
			{StateKey: "titleOverlay", Fields: []string{"personalTitle", "jobTitle"}},
		},
		TailSteps: []step.Descriptor{
			{Name: "assemble_reasons", Inputs: []string{KeyRecords, KeyFileManifest}, Output: "reasonedRecords"},
			{Name: "format_output", Inputs: []string{"reasonedRecords"}, Output: "finalOutput"},
		},
		CriticStep: &step.Descriptor{
			Name: "review_output", Inputs: []string{KeySourceText, "finalOutput"}, Output: KeyReview,
		},
		RefinerStep: &step.Descriptor{
			Name: "refine_output", Inputs: []string{"finalOutput", KeyReview}, Output: "finalOutput",
		},
	}
}
