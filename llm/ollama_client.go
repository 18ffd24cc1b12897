package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

type OllamaClient struct {
	client *api.Client
	model  string
}

func NewOllamaClient(model string) LLMClient {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Fatal("Failed to create Ollama client", zap.Error(err))
		return nil
	}

	return &OllamaClient{
		client: client,
		model:  model,
	}
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

func (c *OllamaClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.7,
		maxTokens:   4096,
	}

	for _, opt := range opts {
		opt(&settings)
	}

	apiMessages := make([]api.Message, 0, len(messages)+1)
	if settings.system != "" {
		apiMessages = append(apiMessages, api.Message{Role: "system", Content: settings.system})
	}
	for _, msg := range messages {
		apiMessages = append(apiMessages, api.Message{Role: msg.Role, Content: msg.Content})
	}

	stream := false
	request := &api.ChatRequest{
		Model:    settings.model,
		Messages: apiMessages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": settings.temperature,
			"num_predict": settings.maxTokens,
		},
	}

	if settings.jsonMode {
		request.Format = json.RawMessage(`"json"`)
	}

	err := c.client.Chat(ctx, request, func(resp api.ChatResponse) error {
		return callback(resp.Message.Content)
	})
	if err != nil {
		return fmt.Errorf("ollama chat failed: %w", err)
	}

	return nil
}
