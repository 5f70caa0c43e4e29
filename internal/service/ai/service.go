package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zhouzirui/emotibot/backend/internal/analysis/sanitize"
	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

// ErrUnavailable is returned when no generator backend is configured.
var ErrUnavailable = errors.New("response generator unavailable")

// Sampling holds the decoding controls sent with every generation request.
type Sampling struct {
	TopP              float64
	Temperature       float64
	RepetitionPenalty float64
	MinNewTokens      int
	MaxNewTokens      int
	DoSample          bool
}

// DefaultSampling is the fixed decoding setup for supportive replies.
var DefaultSampling = Sampling{
	TopP:              0.85,
	Temperature:       0.8,
	RepetitionPenalty: 1.7,
	MinNewTokens:      50,
	MaxNewTokens:      400,
	DoSample:          true,
}

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string, sampling Sampling) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, sampling Sampling) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, sampling Sampling) (string, error) {
	return f(ctx, prompt, sampling)
}

// Service builds the reply prompt, runs the generator and cleans its output.
type Service struct {
	generator Generator
	name      string
	sampling  Sampling
}

// NewService wraps generator. A nil generator yields a service whose Respond
// always fails with ErrUnavailable.
func NewService(generator Generator, name string) *Service {
	return &Service{generator: generator, name: name, sampling: DefaultSampling}
}

// Enabled reports whether a generator backend is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.generator != nil
}

// Backend names the generator in use.
func (s *Service) Backend() string {
	if !s.Enabled() {
		return "none"
	}
	return s.name
}

// BuildPrompt embeds the strongest emotion and the user's text in the reply template.
func BuildPrompt(userText string, feeling emotion.Label) string {
	return fmt.Sprintf("The user feels %s and has shared: '%s'. Reply in a single paragraph with supportive words.", feeling, userText)
}

// Respond generates a supportive reply to userText for the given strongest emotion.
func (s *Service) Respond(ctx context.Context, userText string, strongest emotion.Label) (string, error) {
	if !s.Enabled() {
		return "", ErrUnavailable
	}

	raw, err := s.generator.Generate(ctx, BuildPrompt(userText, strongest), s.sampling)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	cleaned := sanitize.Clean(raw)
	log.Printf("[ai] %s generated response, emotion=%s, raw=%d cleaned=%d", s.name, strongest, len(raw), len(cleaned))
	return cleaned, nil
}
