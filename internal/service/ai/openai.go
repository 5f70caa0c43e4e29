package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
)

// OpenAIGenerator generates replies through the OpenAI Responses API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(client *openai.Client, model string) *OpenAIGenerator {
	return &OpenAIGenerator{client: client, model: model}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, sampling Sampling) (string, error) {
	params := responses.ResponseNewParams{
		Model:           g.model,
		Instructions:    openai.String(listenerSystemPrompt),
		MaxOutputTokens: openai.Int(int64(sampling.MaxNewTokens)),
		Temperature:     openai.Float(sampling.Temperature),
		TopP:            openai.Float(sampling.TopP),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	}

	resp, err := g.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	return resp.OutputText(), nil
}
