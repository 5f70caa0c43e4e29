package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/emotibot/backend/internal/config"
)

// ArkGenerator runs the prompt through an eino chain over a chat model. The
// chat model carries its sampling settings from construction, see ArkSampling.
type ArkGenerator struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// ArkSampling converts s into the settings a chat model accepts. Chat models
// have no repetition penalty or minimum length.
func ArkSampling(s Sampling) *config.Sampling {
	return &config.Sampling{
		Temperature: float32(s.Temperature),
		TopP:        float32(s.TopP),
		MaxTokens:   s.MaxNewTokens,
	}
}

// NewArkGenerator compiles the chain around chatModel.
func NewArkGenerator(ctx context.Context, chatModel model.ChatModel) (*ArkGenerator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(listenerSystemPrompt),
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkGenerator{chatModel: chatModel, chain: runnable}, nil
}

// ChatModel exposes the underlying model so the emotion classifier can share it.
func (g *ArkGenerator) ChatModel() model.ChatModel {
	return g.chatModel
}

func (g *ArkGenerator) Generate(ctx context.Context, prompt string, _ Sampling) (string, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	return response.Content, nil
}

const listenerSystemPrompt = "You are a warm, patient listener in a therapeutic chat. Answer in English, in one paragraph, without links, book recommendations or credentials."
