package emotion

import (
	"math"
	"strings"

	model "github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

// DefaultThreshold is the minimum probability a label needs to be reported.
const DefaultThreshold = 0.3

var keywordBuckets = map[model.Label][]string{
	model.Anger: {
		"angry", "furious", "rage", "mad at", "annoyed", "pissed", "outraged", "hate", "irritated",
		"fed up", "livid", "frustrated",
	},
	model.Disgust: {
		"disgust", "disgusting", "gross", "revolting", "sickening", "nauseous", "repulsive", "vile",
		"can't stand",
	},
	model.Fear: {
		"afraid", "scared", "fear", "terrified", "anxious", "anxiety", "panic", "worried", "nervous",
		"frightened", "dread",
	},
	model.Joy: {
		"happy", "glad", "joy", "great", "awesome", "amazing", "love", "thankful", "grateful",
		"excited", "wonderful", "proud",
	},
	model.Sadness: {
		"sad", "unhappy", "depressed", "lonely", "alone", "cry", "crying", "hurt", "miserable",
		"heartbroken", "grief", "hopeless", "down",
	},
	model.Surprise: {
		"surprised", "shocked", "unexpected", "can't believe", "cannot believe", "wow", "suddenly",
		"astonished", "no way",
	},
}

// Hits below this weight are not enough to move probability off neutral.
const (
	keywordWeight = 1.5
	neutralBias   = 1.0
	surpriseBoost = 0.5
)

// Analyze produces a deterministic probability distribution over the emotion
// labels from keyword hits. It stands in for the model when no classifier is
// reachable.
func Analyze(text string) model.Distribution {
	normalized := strings.TrimSpace(strings.ToLower(text))

	logits := make(map[model.Label]float64, len(keywordBuckets)+1)
	logits[model.Neutral] = neutralBias
	if normalized == "" {
		return softmax(logits)
	}

	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				logits[label] += keywordWeight
			}
		}
	}

	if exclamations := strings.Count(text, "!"); exclamations > 0 {
		logits[model.Surprise] += float64(exclamations) * surpriseBoost
	}

	return softmax(logits)
}

func softmax(logits map[model.Label]float64) model.Distribution {
	labels := model.All()
	maxLogit := math.Inf(-1)
	for _, label := range labels {
		if logits[label] > maxLogit {
			maxLogit = logits[label]
		}
	}

	dist := make(model.Distribution, len(labels))
	var total float64
	for _, label := range labels {
		weight := math.Exp(logits[label] - maxLogit)
		dist[label] = weight
		total += weight
	}
	for label, weight := range dist {
		dist[label] = weight / total
	}
	return dist
}
