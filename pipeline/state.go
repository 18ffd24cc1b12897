package pipeline

import (
	"fmt"

	"github.com/SaiNageswarS/extract-boot/internalerr"
)

// State is the named key->JSON-value scope shared by all steps of one
// pipeline run. It is created fresh per run and never shared across
// concurrent runs; concurrent chunk execution works on clones.
type State struct {
	values map[string]string
}

func NewState() *State {
	return &State{values: make(map[string]string)}
}

// Get returns the value for name or ErrMissingState when absent. A step must
// never silently receive an empty default for a required input.
func (s *State) Get(name string) (string, error) {
	v, ok := s.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", internalerr.ErrMissingState, name)
	}
	return v, nil
}

// Lookup returns the value and whether it exists.
func (s *State) Lookup(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set writes name unconditionally. Overwriting is the mechanism by which
// chunk and batch iteration reuses one state across repeated sub-pipeline
// invocations.
func (s *State) Set(name, value string) {
	s.values[name] = value
}

// Seed writes name only when it does not exist yet. Used by the controller
// for declared defaults of loop-body steps that legitimately run before
// their natural producer.
func (s *State) Seed(name, value string) {
	if _, ok := s.values[name]; !ok {
		s.values[name] = value
	}
}

// Clone returns an independent copy for concurrent chunk or batch execution.
func (s *State) Clone() *State {
	clone := make(map[string]string, len(s.values))
	for k, v := range s.values {
		clone[k] = v
	}
	return &State{values: clone}
}

// WithOverride sets name to value for the duration of fn, then restores the
// previous value (or removes the name if it was absent). This is the
// overwrite/restore discipline of per-chunk and per-batch iteration made
// explicit.
func (s *State) WithOverride(name, value string, fn func() error) error {
	previous, existed := s.values[name]
	s.values[name] = value
	defer func() {
		if existed {
			s.values[name] = previous
		} else {
			delete(s.values, name)
		}
	}()
	return fn()
}

// Len reports the number of names in the state.
func (s *State) Len() int {
	return len(s.values)
}
