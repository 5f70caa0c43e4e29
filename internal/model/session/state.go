package session

import (
	"time"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

// State captures the per-login interaction state: who is signed in, the last
// reply shown, and which chart is visible.
type State struct {
	ID            string         `json:"id"`
	UserID        string         `json:"userId"`
	Username      string         `json:"username"`
	Authenticated bool           `json:"authenticated"`
	LastResponse  string         `json:"lastResponse,omitempty"`
	LastEmotions  emotion.Labels `json:"lastEmotions,omitempty"`
	ShowBarChart  bool           `json:"showBarChart"`
	ShowLineChart bool           `json:"showLineChart"`
	CreatedAt     time.Time      `json:"createdAt"`
}
