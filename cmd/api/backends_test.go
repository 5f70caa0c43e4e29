package main

import (
	"context"
	"testing"

	"github.com/zhouzirui/emotibot/backend/internal/config"
)

func TestNewBackendsDefaultsToHeuristic(t *testing.T) {
	b, err := newBackends(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("newBackends err: %v", err)
	}
	if got := b.emotionService(0).Backend(); got != "heuristic" {
		t.Fatalf("expected heuristic classifier, got %s", got)
	}
	if b.aiService().Enabled() {
		t.Fatal("generator should be unavailable without credentials")
	}
}

func TestNewBackendsPrefersHuggingFace(t *testing.T) {
	cfg := &config.Config{
		Inference: config.InferenceConfig{
			Token:          "hf_x",
			BaseURL:        "http://localhost",
			EmotionModel:   "emo",
			GeneratorModel: "gen",
		},
		OpenAI: config.OpenAIConfig{APIKey: "sk-x", Model: "gpt"},
	}

	b, err := newBackends(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newBackends err: %v", err)
	}
	if b.classifierName != "huggingface:emo" || b.generatorName != "huggingface:gen" {
		t.Fatalf("unexpected backends %s / %s", b.classifierName, b.generatorName)
	}
}

func TestNewBackendsExplicitWithoutCredentials(t *testing.T) {
	cfg := &config.Config{Inference: config.InferenceConfig{GeneratorBackend: config.BackendOpenAI}}
	if _, err := newBackends(context.Background(), cfg); err == nil {
		t.Fatal("expected error for openai backend without key")
	}

	cfg = &config.Config{Inference: config.InferenceConfig{ClassifierBackend: config.BackendArk}}
	if _, err := newBackends(context.Background(), cfg); err == nil {
		t.Fatal("expected error for ark backend without credentials")
	}
}

func TestOpenStoreMemory(t *testing.T) {
	store, provider, err := openStore(context.Background(), config.StoreConfig{Driver: config.DriverMemory})
	if err != nil {
		t.Fatalf("openStore err: %v", err)
	}
	defer store.Close()
	if store.Users == nil || store.Emotions == nil || provider == nil {
		t.Fatal("memory store incomplete")
	}
}

func TestOpenStoreSQLite(t *testing.T) {
	path := t.TempDir() + "/emotibot.db"
	store, _, err := openStore(context.Background(), config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("openStore err: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close err: %v", err)
	}
}
