package step

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/SaiNageswarS/extract-boot/llm"
	"github.com/SaiNageswarS/extract-boot/prompts"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// LLMInvoker runs steps as single-shot inference calls. Each step name maps
// to a pair of embedded prompt templates rendered with the step's inputs;
// the model's response becomes the step's declared output value.
type LLMInvoker struct {
	client      llm.LLMClient
	outputs     map[string]string // step name -> declared output name
	maxTokens   int
	temperature float64
}

type LLMInvokerOption func(*LLMInvoker)

func WithMaxTokens(tokens int) LLMInvokerOption {
	return func(i *LLMInvoker) { i.maxTokens = tokens }
}

func WithTemperature(temp float64) LLMInvokerOption {
	return func(i *LLMInvoker) { i.temperature = temp }
}

func NewLLMInvoker(client llm.LLMClient, steps []Descriptor, opts ...LLMInvokerOption) *LLMInvoker {
	outputs := make(map[string]string, len(steps))
	for _, d := range steps {
		outputs[d.Name] = d.Output
	}

	invoker := &LLMInvoker{
		client:      client,
		outputs:     outputs,
		maxTokens:   4096,
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(invoker)
	}
	return invoker
}

func (i *LLMInvoker) Invoke(ctx context.Context, stepName string, inputs map[string]string) (map[string]string, error) {
	outputName, known := i.outputs[stepName]
	if !known {
		return nil, fmt.Errorf("%w: unknown step %q", internalerr.ErrStepInvocation, stepName)
	}

	systemPrompt, userPrompt, err := prompts.Render(stepName, inputs)
	if err != nil {
		logger.Error("Failed to render step prompt", zap.String("step", stepName), zap.Error(err))
		return nil, fmt.Errorf("%w: rendering prompt for %q: %v", internalerr.ErrStepInvocation, stepName, err)
	}

	var response strings.Builder
	err = i.client.GenerateInference(
		ctx,
		[]llm.Message{{Role: "user", Content: userPrompt}},
		func(chunk string) error {
			response.WriteString(chunk)
			return nil
		},
		llm.WithSystemPrompt(systemPrompt),
		llm.WithMaxTokens(i.maxTokens),
		llm.WithTemperature(i.temperature),
		llm.WithJSONMode(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: step %q: %v", internalerr.ErrStepInvocation, stepName, err)
	}

	return map[string]string{outputName: stripCodeFences(response.String())}, nil
}

// stripCodeFences removes a surrounding markdown code fence, which models
// add around JSON output even when told not to.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
