package step

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/extract-boot/internalerr"
)

// HandlerFunc is a deterministic step implementation.
type HandlerFunc func(ctx context.Context, inputs map[string]string) (map[string]string, error)

// FuncInvoker routes step invocations to registered Go functions. Useful for
// deterministic steps and as a test double for inference-backed steps.
type FuncInvoker struct {
	handlers map[string]HandlerFunc
}

func NewFuncInvoker() *FuncInvoker {
	return &FuncInvoker{handlers: make(map[string]HandlerFunc)}
}

func (f *FuncInvoker) Register(stepName string, handler HandlerFunc) *FuncInvoker {
	f.handlers[stepName] = handler
	return f
}

func (f *FuncInvoker) Invoke(ctx context.Context, stepName string, inputs map[string]string) (map[string]string, error) {
	handler, ok := f.handlers[stepName]
	if !ok {
		return nil, fmt.Errorf("%w: no handler registered for step %q", internalerr.ErrStepInvocation, stepName)
	}
	return handler(ctx, inputs)
}
