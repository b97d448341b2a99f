package openai

import (
	"context"
	"errors"
	"fmt"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ChatGenerator sends each prompt as a single user message to an
// OpenAI-compatible chat completions endpoint.
type ChatGenerator struct {
	client oai.Client
}

func NewChatGenerator(apiKey, baseURL string, opts ...option.RequestOption) *ChatGenerator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}, opts...)
	return &ChatGenerator{client: oai.NewClient(all...)}
}

func (g *ChatGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(prompt),
		},
		Model: oai.ChatModel(model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
