package emotion

import (
	"fmt"
	"strings"
)

// Label is one of the seven classes produced by the emotion classifier.
type Label string

const (
	Anger    Label = "anger"
	Disgust  Label = "disgust"
	Fear     Label = "fear"
	Joy      Label = "joy"
	Neutral  Label = "neutral"
	Sadness  Label = "sadness"
	Surprise Label = "surprise"
)

var orderedLabels = []Label{Anger, Disgust, Fear, Joy, Neutral, Sadness, Surprise}

// All returns every label in classifier output order.
func All() []Label {
	return append([]Label(nil), orderedLabels...)
}

// Index reports the position of l in classifier output order, or -1.
func (l Label) Index() int {
	for i, candidate := range orderedLabels {
		if candidate == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	return l.Index() >= 0
}

// ParseLabel normalizes raw model output into a Label.
func ParseLabel(raw string) (Label, error) {
	label := Label(strings.ToLower(strings.TrimSpace(raw)))
	if !label.Valid() {
		return "", fmt.Errorf("unknown emotion label %q", raw)
	}
	return label, nil
}

// Colors maps each label to the color used on every chart.
var Colors = map[Label]string{
	Sadness:  "#0761e8",
	Fear:     "#000000",
	Joy:      "#FFA500",
	Surprise: "#8A2BE2",
	Disgust:  "#228B22",
	Neutral:  "#D3D3D3",
	Anger:    "#FF0000",
}

// Score pairs a label with its classifier probability.
type Score struct {
	Label       Label   `json:"label"`
	Probability float64 `json:"probability"`
}

// Distribution holds one probability per label.
type Distribution map[Label]float64

// Normalize clamps negative entries, fills missing labels with zero and rescales
// the result so it sums to one. An all-zero distribution collapses onto neutral.
func (d Distribution) Normalize() Distribution {
	out := make(Distribution, len(orderedLabels))
	var total float64
	for _, label := range orderedLabels {
		p := d[label]
		if p < 0 {
			p = 0
		}
		out[label] = p
		total += p
	}
	if total == 0 {
		out[Neutral] = 1
		return out
	}
	for label, p := range out {
		out[label] = p / total
	}
	return out
}

// NamesOf extracts the label names from scores, preserving order.
func NamesOf(scores []Score) Labels {
	names := make(Labels, 0, len(scores))
	for _, s := range scores {
		names = append(names, s.Label)
	}
	return names
}
