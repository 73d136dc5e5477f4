package chat

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// LLM generates a completion from a system prompt and a user message.
type LLM interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAILLM implements LLM over an OpenAI-compatible chat completion API.
type OpenAILLM struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewOpenAILLM creates a completion client.
// baseURL may be empty to use the hosted OpenAI endpoint; the original demo
// honors BASE_URL for pointing at a local gateway instead.
func NewOpenAILLM(baseURL, apiKey, model string, temperature float32, maxTokens int) *OpenAILLM {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAILLM{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: float64(temperature),
		maxTokens:   int64(maxTokens),
	}
}

// Complete sends the prompt pair and returns the first choice's content.
func (l *OpenAILLM) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(l.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(l.temperature),
		MaxTokens:   openai.Int(l.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
