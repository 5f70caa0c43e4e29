package emotion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is one row of the emotion log: the labels detected for a single message.
type Record struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Emotions  Labels    `json:"emotion"`
}

// Labels is the ordered label set stored with a Record. It is persisted as an
// array literal such as {"joy","fear"}.
type Labels []Label

// Literal renders the labels as an array literal.
func (ls Labels) Literal() string {
	var builder strings.Builder
	builder.WriteByte('{')
	for i, l := range ls {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteByte('"')
		builder.WriteString(string(l))
		builder.WriteByte('"')
	}
	builder.WriteByte('}')
	return builder.String()
}

// Join renders the labels for display, e.g. "joy, fear".
func (ls Labels) Join(sep string) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = string(l)
	}
	return strings.Join(parts, sep)
}

// ParseLiteral decodes an array literal. Elements may be quoted or bare.
func ParseLiteral(raw string) (Labels, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 2 || trimmed[0] != '{' || trimmed[len(trimmed)-1] != '}' {
		return nil, fmt.Errorf("invalid array literal %q", raw)
	}
	body := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if body == "" {
		return Labels{}, nil
	}

	parts := strings.Split(body, ",")
	labels := make(Labels, 0, len(parts))
	for _, part := range parts {
		label, err := ParseLabel(strings.Trim(strings.TrimSpace(part), `"`))
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// UnmarshalJSON accepts either a JSON array or a string holding an array literal.
func (ls *Labels) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*ls = nil
		return nil
	}

	if data[0] == '"' {
		var literal string
		if err := json.Unmarshal(data, &literal); err != nil {
			return err
		}
		parsed, err := ParseLiteral(literal)
		if err != nil {
			return err
		}
		*ls = parsed
		return nil
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode emotion labels: %w", err)
	}
	labels := make(Labels, 0, len(raw))
	for _, item := range raw {
		label, err := ParseLabel(item)
		if err != nil {
			return err
		}
		labels = append(labels, label)
	}
	*ls = labels
	return nil
}
