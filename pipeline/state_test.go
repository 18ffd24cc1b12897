package pipeline

import (
	"errors"
	"testing"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/stretchr/testify/assert"
)

func TestStateGetMissing(t *testing.T) {
	state := NewState()

	_, err := state.Get("sourceText")
	assert.ErrorIs(t, err, internalerr.ErrMissingState)
}

func TestStateSetAndGet(t *testing.T) {
	state := NewState()
	state.Set("sourceText", "hello")

	v, err := state.Get("sourceText")
	assert.NoError(t, err)
	assert.Equal(t, "hello", v)

	state.Set("sourceText", "overwritten")
	v, _ = state.Get("sourceText")
	assert.Equal(t, "overwritten", v)
}

func TestStateSeedOnlyWhenAbsent(t *testing.T) {
	state := NewState()

	state.Seed("review", "{}")
	v, _ := state.Get("review")
	assert.Equal(t, "{}", v)

	state.Seed("review", `{"score":1}`)
	v, _ = state.Get("review")
	assert.Equal(t, "{}", v)
}

func TestStateWithOverrideRestoresPrevious(t *testing.T) {
	state := NewState()
	state.Set("sourceText", "full document")

	err := state.WithOverride("sourceText", "chunk text", func() error {
		v, _ := state.Get("sourceText")
		assert.Equal(t, "chunk text", v)
		return nil
	})
	assert.NoError(t, err)

	v, _ := state.Get("sourceText")
	assert.Equal(t, "full document", v)
}

func TestStateWithOverrideRemovesWhenPreviouslyAbsent(t *testing.T) {
	state := NewState()

	err := state.WithOverride("scratch", "value", func() error { return nil })
	assert.NoError(t, err)

	_, ok := state.Lookup("scratch")
	assert.False(t, ok)
}

func TestStateWithOverrideRestoresOnError(t *testing.T) {
	state := NewState()
	state.Set("sourceText", "full document")

	boom := errors.New("boom")
	err := state.WithOverride("sourceText", "chunk text", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	v, _ := state.Get("sourceText")
	assert.Equal(t, "full document", v)
}

func TestStateCloneIsIndependent(t *testing.T) {
	state := NewState()
	state.Set("sourceText", "original")

	clone := state.Clone()
	clone.Set("sourceText", "modified")
	clone.Set("extra", "only in clone")

	v, _ := state.Get("sourceText")
	assert.Equal(t, "original", v)
	_, ok := state.Lookup("extra")
	assert.False(t, ok)
}
