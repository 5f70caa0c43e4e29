// Package huggingface calls models hosted behind a Hugging Face compatible
// inference endpoint.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the serverless inference API root.
const DefaultBaseURL = "https://api-inference.huggingface.co/models"

// Client issues inference requests. The zero value is not usable; use NewClient.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for baseURL authenticated with token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LabelScore is one entry of a text-classification response.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// GenerationParams are the sampling controls of a text2text-generation request.
type GenerationParams struct {
	TopP              float64 `json:"top_p"`
	Temperature       float64 `json:"temperature"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	MinNewTokens      int     `json:"min_new_tokens,omitempty"`
	MaxNewTokens      int     `json:"max_new_tokens"`
	DoSample          bool    `json:"do_sample"`
}

type request struct {
	Inputs     string         `json:"inputs"`
	Parameters any            `json:"parameters,omitempty"`
	Options    requestOptions `json:"options"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// Classify runs a text-classification model and returns every label score.
func (c *Client) Classify(ctx context.Context, model, text string) ([]LabelScore, error) {
	body := request{
		Inputs: text,
		Parameters: map[string]any{
			"top_k":             nil,
			"function_to_apply": "softmax",
		},
		Options: requestOptions{WaitForModel: true, UseCache: true},
	}

	raw, err := c.post(ctx, model, body)
	if err != nil {
		return nil, err
	}

	// Single inputs come back either nested one level or flat.
	var nested [][]LabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("empty classification response from %s", model)
		}
		return nested[0], nil
	}

	var flat []LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode classification response: %w", err)
	}
	return flat, nil
}

// Generate runs a text2text-generation model on prompt.
func (c *Client) Generate(ctx context.Context, model, prompt string, params GenerationParams) (string, error) {
	body := request{
		Inputs:     prompt,
		Parameters: params,
		// sampling output must not be served from cache
		Options: requestOptions{WaitForModel: true, UseCache: false},
	}

	raw, err := c.post(ctx, model, body)
	if err != nil {
		return "", err
	}

	var parsed []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(parsed) == 0 {
		return "", fmt.Errorf("empty generation response from %s", model)
	}
	return parsed[0].GeneratedText, nil
}

func (c *Client) post(ctx context.Context, model string, body request) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+model, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request to %s: %w", model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read inference response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference error %d from %s: %s", resp.StatusCode, model, truncate(string(raw), 300))
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
