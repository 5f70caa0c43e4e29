package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

// LLMClassifier asks a chat model for the label distribution as JSON.
type LLMClassifier struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMClassifier compiles the prompt -> chat model chain.
func NewLLMClassifier(ctx context.Context, chatModel model.ChatModel) (*LLMClassifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}
	return &LLMClassifier{chain: runnable}, nil
}

func (c *LLMClassifier) Distribution(ctx context.Context, text string) (emotion.Distribution, error) {
	msg, err := c.chain.Invoke(ctx, map[string]any{"text": text})
	if err != nil {
		return nil, fmt.Errorf("classifier invoke: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("classifier returned empty output")
	}
	return parseDistribution(msg.Content)
}

// parseDistribution extracts the first JSON object from content and reads one
// probability per known label from it.
func parseDistribution(content string) (emotion.Distribution, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	var raw map[string]float64
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
		return nil, err
	}

	dist := make(emotion.Distribution, len(raw))
	for key, p := range raw {
		label, err := emotion.ParseLabel(key)
		if err != nil {
			continue
		}
		dist[label] = p
	}
	if len(dist) == 0 {
		return nil, fmt.Errorf("no known labels in classifier output")
	}
	return dist, nil
}

const classifierSystemPrompt = "You are an emotion classifier. Read the user's message and estimate the probability of each emotion: anger, disgust, fear, joy, neutral, sadness, surprise. Reply with a single JSON object whose keys are exactly those seven labels and whose values are probabilities between 0 and 1 summing to 1. Output nothing else."
