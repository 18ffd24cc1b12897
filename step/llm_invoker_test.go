package step

import (
	"context"
	"strings"
	"testing"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/SaiNageswarS/extract-boot/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLMClient streams a canned response in two chunks and records the
// prompts it was called with.
type fakeLLMClient struct {
	response   string
	lastUser   string
	lastSystem string
}

func (f *fakeLLMClient) GenerateInference(ctx context.Context, messages []llm.Message, callback func(chunk string) error, opts ...llm.LLMOption) error {
	f.lastUser = messages[len(messages)-1].Content

	half := len(f.response) / 2
	if err := callback(f.response[:half]); err != nil {
		return err
	}
	return callback(f.response[half:])
}

func (f *fakeLLMClient) GetModel() string { return "fake-model" }

func TestLLMInvokerRendersPromptAndCollectsResponse(t *testing.T) {
	client := &fakeLLMClient{response: `{"candidates": []}`}
	invoker := NewLLMInvoker(client, []Descriptor{
		{Name: "extract_entities", Inputs: []string{"sourceText", "fileManifest"}, Output: "candidateRecords"},
	})

	outputs, err := invoker.Invoke(context.Background(), "extract_entities", map[string]string{
		"sourceText":   "annual report body",
		"fileManifest": `{"documentName":"report.pdf"}`,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"candidates": []}`, outputs["candidateRecords"])
	assert.True(t, strings.Contains(client.lastUser, "annual report body"),
		"rendered user prompt must substitute the document text")
}

func TestLLMInvokerUnknownStep(t *testing.T) {
	invoker := NewLLMInvoker(&fakeLLMClient{}, nil)

	_, err := invoker.Invoke(context.Background(), "unregistered", nil)
	assert.ErrorIs(t, err, internalerr.ErrStepInvocation)
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  \n```json\n[1, 2]\n```\n  ", `[1, 2]`},
		{"plain text answer", "plain text answer"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, stripCodeFences(tc.in))
	}
}
