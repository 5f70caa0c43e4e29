package emotion

import model "github.com/zhouzirui/emotibot/backend/internal/model/emotion"

// Select returns every label whose probability is strictly above threshold, in
// label order. When nothing clears the threshold it returns neutral alone with
// its own probability, so the result is never empty.
func Select(dist model.Distribution, threshold float64) []model.Score {
	selected := make([]model.Score, 0, 2)
	for _, label := range model.All() {
		if p := dist[label]; p > threshold {
			selected = append(selected, model.Score{Label: label, Probability: p})
		}
	}
	if len(selected) == 0 {
		return []model.Score{{Label: model.Neutral, Probability: dist[model.Neutral]}}
	}
	return selected
}

// Strongest picks the highest-probability label. Ties keep the earlier label;
// an empty slice yields neutral.
func Strongest(scores []model.Score) model.Label {
	if len(scores) == 0 {
		return model.Neutral
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Probability > best.Probability {
			best = s
		}
	}
	return best.Label
}
