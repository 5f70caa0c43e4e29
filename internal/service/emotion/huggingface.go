package emotion

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/emotibot/backend/internal/inference/huggingface"
	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

// HuggingFaceClassifier runs a hosted sequence-classification model.
type HuggingFaceClassifier struct {
	client *huggingface.Client
	model  string
}

func NewHuggingFaceClassifier(client *huggingface.Client, model string) *HuggingFaceClassifier {
	return &HuggingFaceClassifier{client: client, model: model}
}

func (c *HuggingFaceClassifier) Distribution(ctx context.Context, text string) (emotion.Distribution, error) {
	scores, err := c.client.Classify(ctx, c.model, text)
	if err != nil {
		return nil, err
	}

	dist := make(emotion.Distribution, len(scores))
	for _, s := range scores {
		label, err := emotion.ParseLabel(s.Label)
		if err != nil {
			log.Printf("[emotion] ignoring label from %s: %v", c.model, err)
			continue
		}
		dist[label] = s.Score
	}
	if len(dist) == 0 {
		return nil, fmt.Errorf("model %s returned no known labels", c.model)
	}
	return dist, nil
}
