package main

import (
	"context"
	"fmt"
	"log"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zhouzirui/emotibot/backend/internal/config"
	"github.com/zhouzirui/emotibot/backend/internal/inference/huggingface"
	"github.com/zhouzirui/emotibot/backend/internal/service/ai"
	emotionservice "github.com/zhouzirui/emotibot/backend/internal/service/emotion"
)

// backends 保存选定的情绪分类器与回复生成器。
type backends struct {
	classifier     emotionservice.Classifier
	classifierName string
	generator      ai.Generator
	generatorName  string
}

func (b backends) emotionService(threshold float64) *emotionservice.Service {
	return emotionservice.NewService(b.classifier, b.classifierName, threshold)
}

func (b backends) aiService() *ai.Service {
	return ai.NewService(b.generator, b.generatorName)
}

// newBackends 显式指定的后端初始化失败时直接返回错误；未指定时按已有凭证依次尝试
// Hugging Face、OpenAI、方舟，分类器最终回落到关键词启发式。
func newBackends(ctx context.Context, cfg *config.Config) (backends, error) {
	var (
		out       backends
		hfClient  *huggingface.Client
		oaClient  *openai.Client
		arkModel  einomodel.ChatModel
		inference = cfg.Inference
	)

	hf := func() *huggingface.Client {
		if hfClient == nil {
			hfClient = huggingface.NewClient(inference.BaseURL, inference.Token, inference.Timeout)
		}
		return hfClient
	}
	oa := func() *openai.Client {
		if oaClient == nil {
			opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
			if cfg.OpenAI.BaseURL != "" {
				opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
			}
			client := openai.NewClient(opts...)
			oaClient = &client
		}
		return oaClient
	}

	generatorBackend := inference.GeneratorBackend
	if generatorBackend == "" {
		generatorBackend = firstAvailable(cfg, config.BackendHuggingFace, config.BackendOpenAI, config.BackendArk)
	}
	switch generatorBackend {
	case config.BackendHuggingFace:
		if !inference.HuggingFaceEnabled() {
			return out, fmt.Errorf("GENERATOR_BACKEND=huggingface requires HF_API_TOKEN")
		}
		out.generator = ai.NewHuggingFaceGenerator(hf(), inference.GeneratorModel)
		out.generatorName = "huggingface:" + inference.GeneratorModel
	case config.BackendOpenAI:
		if !cfg.OpenAI.Enabled() {
			return out, fmt.Errorf("GENERATOR_BACKEND=openai requires OPENAI_API_KEY")
		}
		out.generator = ai.NewOpenAIGenerator(oa(), cfg.OpenAI.Model)
		out.generatorName = "openai:" + cfg.OpenAI.Model
	case config.BackendArk:
		chatModel, err := cfg.AI.NewChatModel(ctx, ai.ArkSampling(ai.DefaultSampling))
		if err != nil {
			return out, fmt.Errorf("create ark chat model: %w", err)
		}
		generator, err := ai.NewArkGenerator(ctx, chatModel)
		if err != nil {
			return out, err
		}
		arkModel = generator.ChatModel()
		out.generator = generator
		out.generatorName = "ark:" + cfg.AI.Model
	}

	classifierBackend := inference.ClassifierBackend
	if classifierBackend == "" {
		classifierBackend = firstAvailable(cfg, config.BackendHuggingFace, config.BackendOpenAI, config.BackendArk)
	}
	switch classifierBackend {
	case config.BackendHuggingFace:
		if !inference.HuggingFaceEnabled() {
			return out, fmt.Errorf("CLASSIFIER_BACKEND=huggingface requires HF_API_TOKEN")
		}
		out.classifier = emotionservice.NewHuggingFaceClassifier(hf(), inference.EmotionModel)
		out.classifierName = "huggingface:" + inference.EmotionModel
	case config.BackendOpenAI:
		if !cfg.OpenAI.Enabled() {
			return out, fmt.Errorf("CLASSIFIER_BACKEND=openai requires OPENAI_API_KEY")
		}
		out.classifier = emotionservice.NewOpenAIClassifier(oa(), cfg.OpenAI.Model)
		out.classifierName = "openai:" + cfg.OpenAI.Model
	case config.BackendArk:
		if arkModel == nil {
			chatModel, err := cfg.AI.NewChatModel(ctx, nil)
			if err != nil {
				return out, fmt.Errorf("create ark chat model: %w", err)
			}
			arkModel = chatModel
		}
		classifier, err := emotionservice.NewLLMClassifier(ctx, arkModel)
		if err != nil {
			return out, err
		}
		out.classifier = classifier
		out.classifierName = "ark:" + cfg.AI.Model
	case config.BackendHeuristic, "":
		log.Println("使用关键词启发式情绪分类")
	}

	return out, nil
}

// firstAvailable 返回第一个已配置凭证的后端，均未配置时返回空字符串。
func firstAvailable(cfg *config.Config, candidates ...string) string {
	for _, candidate := range candidates {
		switch candidate {
		case config.BackendHuggingFace:
			if cfg.Inference.HuggingFaceEnabled() {
				return candidate
			}
		case config.BackendOpenAI:
			if cfg.OpenAI.Enabled() {
				return candidate
			}
		case config.BackendArk:
			if cfg.AI.Enabled() {
				return candidate
			}
		}
	}
	return ""
}
