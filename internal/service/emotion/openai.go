package emotion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

// OpenAIClassifier asks an OpenAI model for the distribution using a strict JSON schema.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

func NewOpenAIClassifier(client *openai.Client, model string) *OpenAIClassifier {
	return &OpenAIClassifier{client: client, model: model}
}

type distributionPayload struct {
	Anger    float64 `json:"anger" jsonschema:"required"`
	Disgust  float64 `json:"disgust" jsonschema:"required"`
	Fear     float64 `json:"fear" jsonschema:"required"`
	Joy      float64 `json:"joy" jsonschema:"required"`
	Neutral  float64 `json:"neutral" jsonschema:"required"`
	Sadness  float64 `json:"sadness" jsonschema:"required"`
	Surprise float64 `json:"surprise" jsonschema:"required"`
}

func (p distributionPayload) distribution() emotion.Distribution {
	return emotion.Distribution{
		emotion.Anger:    p.Anger,
		emotion.Disgust:  p.Disgust,
		emotion.Fear:     p.Fear,
		emotion.Joy:      p.Joy,
		emotion.Neutral:  p.Neutral,
		emotion.Sadness:  p.Sadness,
		emotion.Surprise: p.Surprise,
	}
}

var distributionSchema = generateSchema[distributionPayload]()

func generateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	m["additionalProperties"] = false
	return m
}

func (c *OpenAIClassifier) Distribution(ctx context.Context, text string) (emotion.Distribution, error) {
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String(classifierSystemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "EmotionDistribution",
					Schema:      distributionSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Probability of each emotion label"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai classify: %w", err)
	}

	var payload distributionPayload
	if err := json.Unmarshal([]byte(resp.OutputText()), &payload); err != nil {
		return nil, fmt.Errorf("decode openai classification: %w", err)
	}
	return payload.distribution(), nil
}
