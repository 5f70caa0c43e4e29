package emotion

import (
	"math"
	"testing"

	model "github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

func TestAnalyzeSumsToOne(t *testing.T) {
	for _, text := range []string{"", "I feel so lonely and sad", "What a wonderful day!!"} {
		var total float64
		for _, p := range Analyze(text) {
			total += p
		}
		if math.Abs(total-1) > 1e-9 {
			t.Fatalf("distribution for %q sums to %f", text, total)
		}
	}
}

func TestAnalyzeSadUser(t *testing.T) {
	scores := Select(Analyze("I have been so sad and lonely, I cry every night"), DefaultThreshold)
	if Strongest(scores) != model.Sadness {
		t.Fatalf("expected sadness, got %v", scores)
	}
}

func TestAnalyzeEmptyTextIsNeutral(t *testing.T) {
	scores := Select(Analyze("   "), DefaultThreshold)
	if len(scores) != 1 || scores[0].Label != model.Neutral {
		t.Fatalf("expected neutral only, got %v", scores)
	}
}

func TestSelectKeepsLabelsAboveThreshold(t *testing.T) {
	dist := model.Distribution{
		model.Anger:   0.05,
		model.Fear:    0.35,
		model.Joy:     0.1,
		model.Sadness: 0.45,
		model.Neutral: 0.05,
	}

	scores := Select(dist, DefaultThreshold)
	if len(scores) != 2 {
		t.Fatalf("expected 2 labels, got %v", scores)
	}
	if scores[0].Label != model.Fear || scores[1].Label != model.Sadness {
		t.Fatalf("expected label order fear, sadness; got %v", scores)
	}
	for _, s := range scores {
		if s.Probability <= DefaultThreshold {
			t.Fatalf("label %s at %f should not pass threshold", s.Label, s.Probability)
		}
	}
	if Strongest(scores) != model.Sadness {
		t.Fatalf("expected strongest sadness, got %s", Strongest(scores))
	}
}

func TestSelectFallsBackToNeutral(t *testing.T) {
	dist := model.Distribution{
		model.Anger:    0.2,
		model.Disgust:  0.1,
		model.Fear:     0.1,
		model.Joy:      0.2,
		model.Neutral:  0.15,
		model.Sadness:  0.15,
		model.Surprise: 0.1,
	}

	scores := Select(dist, DefaultThreshold)
	if len(scores) != 1 {
		t.Fatalf("expected single fallback label, got %v", scores)
	}
	if scores[0].Label != model.Neutral || scores[0].Probability != 0.15 {
		t.Fatalf("expected neutral with its own probability, got %v", scores[0])
	}
}

func TestSelectThresholdIsStrict(t *testing.T) {
	scores := Select(model.Distribution{model.Joy: 0.3, model.Neutral: 0.7}, 0.3)
	if len(scores) != 1 || scores[0].Label != model.Neutral {
		t.Fatalf("probability equal to threshold must not pass, got %v", scores)
	}
}

func TestStrongestTieKeepsFirst(t *testing.T) {
	scores := []model.Score{{Label: model.Fear, Probability: 0.4}, {Label: model.Joy, Probability: 0.4}}
	if Strongest(scores) != model.Fear {
		t.Fatalf("expected fear on tie, got %s", Strongest(scores))
	}
	if Strongest(nil) != model.Neutral {
		t.Fatal("expected neutral for empty scores")
	}
}
