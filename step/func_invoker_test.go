package step

import (
	"context"
	"testing"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncInvokerRoutesToHandler(t *testing.T) {
	invoker := NewFuncInvoker().
		Register("uppercase", func(ctx context.Context, inputs map[string]string) (map[string]string, error) {
			return map[string]string{"result": inputs["value"] + "!"}, nil
		})

	outputs, err := invoker.Invoke(context.Background(), "uppercase", map[string]string{"value": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello!", outputs["result"])
}

func TestFuncInvokerUnknownStep(t *testing.T) {
	invoker := NewFuncInvoker()

	_, err := invoker.Invoke(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, internalerr.ErrStepInvocation)
	assert.Contains(t, err.Error(), "missing")
}

func TestFuncInvokerRegisterOverwrites(t *testing.T) {
	invoker := NewFuncInvoker().
		Register("step", func(ctx context.Context, inputs map[string]string) (map[string]string, error) {
			return map[string]string{"out": "first"}, nil
		}).
		Register("step", func(ctx context.Context, inputs map[string]string) (map[string]string, error) {
			return map[string]string{"out": "second"}, nil
		})

	outputs, err := invoker.Invoke(context.Background(), "step", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", outputs["out"])
}

func TestDescriptorValidate(t *testing.T) {
	valid := Descriptor{Name: "extract", Inputs: []string{"sourceText"}, Output: "candidates"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, Descriptor{Inputs: []string{"a"}, Output: "b"}.Validate())
	assert.Error(t, Descriptor{Name: "x", Inputs: []string{"a"}}.Validate())
	assert.Error(t, Descriptor{Name: "x", Inputs: []string{""}, Output: "b"}.Validate())
}
