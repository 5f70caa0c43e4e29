package ai

import (
	"context"

	"github.com/zhouzirui/emotibot/backend/internal/inference/huggingface"
)

// HuggingFaceGenerator runs a hosted sequence-to-sequence model.
type HuggingFaceGenerator struct {
	client *huggingface.Client
	model  string
}

func NewHuggingFaceGenerator(client *huggingface.Client, model string) *HuggingFaceGenerator {
	return &HuggingFaceGenerator{client: client, model: model}
}

func (g *HuggingFaceGenerator) Generate(ctx context.Context, prompt string, sampling Sampling) (string, error) {
	return g.client.Generate(ctx, g.model, prompt, huggingface.GenerationParams{
		TopP:              sampling.TopP,
		Temperature:       sampling.Temperature,
		RepetitionPenalty: sampling.RepetitionPenalty,
		MinNewTokens:      sampling.MinNewTokens,
		MaxNewTokens:      sampling.MaxNewTokens,
		DoSample:          sampling.DoSample,
	})
}
