package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var _ port.Generator = (*OpenAIGenerator)(nil)

// Options configures an OpenAI-compatible chat completion client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// OpenAIGenerator sends single-turn prompts to a chat completion endpoint.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIGenerator(opts Options) (*OpenAIGenerator, error) {
	if opts.APIKey == "" {
		return nil, domain.ErrNoAPIKey
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}, nil
}

func (g *OpenAIGenerator) request(prompt string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Stream:      stream,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.request(prompt, false))
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) GenerateStream(ctx context.Context, prompt string, onDelta func(string) error) error {
	stream, err := g.client.CreateChatCompletionStream(ctx, g.request(prompt, true))
	if err != nil {
		return fmt.Errorf("chat completion stream failed: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("chat completion stream failed: %w", err)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onDelta(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}

func (g *OpenAIGenerator) ModelName() string {
	return g.model
}
