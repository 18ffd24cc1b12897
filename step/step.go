package step

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/extract-boot/internalerr"
)

// Descriptor declares a step's contract: the ordered input names it reads
// from pipeline state and the single output name it writes. Steps that
// logically produce several outputs are modeled as several descriptors
// sharing inputs.
type Descriptor struct {
	Name   string   `json:"name"`
	Inputs []string `json:"inputs"`
	Output string   `json:"output"`
}

// Validate checks the descriptor is well-formed on its own.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: step has no name", internalerr.ErrConfiguration)
	}
	if d.Output == "" {
		return fmt.Errorf("%w: step %q declares no output", internalerr.ErrConfiguration, d.Name)
	}
	for _, in := range d.Inputs {
		if in == "" {
			return fmt.Errorf("%w: step %q declares an empty input name", internalerr.ErrConfiguration, d.Name)
		}
	}
	return nil
}

// Invoker executes a named step. All values are JSON-encoded strings. An
// implementation may be a single inference call or a deterministic function;
// the pipeline controller treats both the same way.
type Invoker interface {
	Invoke(ctx context.Context, stepName string, inputs map[string]string) (map[string]string, error)
}
