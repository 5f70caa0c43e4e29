package emotion

import (
	"context"
	"log"
	"strings"

	analysis "github.com/zhouzirui/emotibot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

// Classifier maps text to a probability distribution over the emotion labels.
type Classifier interface {
	Distribution(ctx context.Context, text string) (emotion.Distribution, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (emotion.Distribution, error)

func (f ClassifierFunc) Distribution(ctx context.Context, text string) (emotion.Distribution, error) {
	return f(ctx, text)
}

// Heuristic is the keyword classifier used when no model backend is configured.
var Heuristic = ClassifierFunc(func(_ context.Context, text string) (emotion.Distribution, error) {
	return analysis.Analyze(text), nil
})

// Service detects the emotions present in a user message.
type Service struct {
	classifier Classifier
	name       string
	threshold  float64
}

// NewService wraps classifier. A nil classifier selects the keyword heuristic.
// A negative threshold selects analysis.DefaultThreshold; 0 keeps every label with
// non-zero probability.
func NewService(classifier Classifier, name string, threshold float64) *Service {
	if classifier == nil {
		classifier = Heuristic
		name = "heuristic"
	}
	if threshold < 0 {
		threshold = analysis.DefaultThreshold
	}
	return &Service{classifier: classifier, name: name, threshold: threshold}
}

// Backend names the classifier in use.
func (s *Service) Backend() string {
	return s.name
}

// Detect returns every label above the threshold, or neutral alone. A failing
// classifier is logged and replaced by the heuristic for this call.
func (s *Service) Detect(ctx context.Context, text string) []emotion.Score {
	return analysis.Select(s.Distribution(ctx, text), s.threshold)
}

// Distribution returns the full normalized distribution for text.
func (s *Service) Distribution(ctx context.Context, text string) emotion.Distribution {
	dist, err := s.classifier.Distribution(ctx, strings.TrimSpace(text))
	if err != nil {
		log.Printf("[emotion] %s classifier failed, use fallback: %v", s.name, err)
		return analysis.Analyze(text)
	}
	if len(dist) == 0 {
		log.Printf("[emotion] %s classifier returned no scores, use fallback", s.name)
		return analysis.Analyze(text)
	}
	return dist.Normalize()
}
