package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/session"
)

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Service keeps per-login interaction state in memory. State is lost on restart,
// after which clients must log in again.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]session.State
	messages map[string][]session.Message
	ttl      time.Duration
	now      func() time.Time
}

// NewService bootstraps an empty session store. Sessions older than ttl, the
// lifetime of the token that refers to them, are dropped on the next Create.
// ttl <= 0 keeps sessions until Delete.
func NewService(ttl time.Duration) *Service {
	return &Service{
		sessions: make(map[string]session.State),
		messages: make(map[string][]session.Message),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens an authenticated session for the user.
func (s *Service) Create(_ context.Context, userID, username string) (session.State, error) {
	if userID == "" {
		return session.State{}, ErrUserRequired
	}

	state := session.State{
		ID:            uuid.NewString(),
		UserID:        userID,
		Username:      username,
		Authenticated: true,
		CreatedAt:     s.now().UTC(),
	}

	s.mu.Lock()
	s.pruneLocked(state.CreatedAt)
	s.sessions[state.ID] = state
	s.messages[state.ID] = make([]session.Message, 0, 16)
	s.mu.Unlock()

	return state, nil
}

func (s *Service) pruneLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	cutoff := now.Add(-s.ttl)
	for id, state := range s.sessions {
		if state.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.messages, id)
		}
	}
}

// Len reports how many sessions are held.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Get retrieves a session by identifier.
func (s *Service) Get(_ context.Context, sessionID string) (session.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return session.State{}, ErrSessionNotFound
	}
	return state, nil
}

// Delete ends a session and drops its transcript.
func (s *Service) Delete(_ context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	s.mu.Unlock()
}

// SetLastReply records the reply and emotions most recently shown.
func (s *Service) SetLastReply(_ context.Context, sessionID, response string, emotions emotion.Labels) error {
	return s.update(sessionID, func(state *session.State) {
		state.LastResponse = response
		state.LastEmotions = append(emotion.Labels(nil), emotions...)
	})
}

// ShowFrequency makes the frequency chart the visible one.
func (s *Service) ShowFrequency(_ context.Context, sessionID string) (session.State, error) {
	var out session.State
	err := s.update(sessionID, func(state *session.State) {
		state.ShowBarChart = true
		state.ShowLineChart = false
		out = *state
	})
	return out, err
}

// ShowEvolution makes the weekly evolution chart the visible one.
func (s *Service) ShowEvolution(_ context.Context, sessionID string) (session.State, error) {
	var out session.State
	err := s.update(sessionID, func(state *session.State) {
		state.ShowLineChart = true
		state.ShowBarChart = false
		out = *state
	})
	return out, err
}

func (s *Service) update(sessionID string, apply func(*session.State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	apply(&state)
	s.sessions[sessionID] = state
	return nil
}

// SaveMessage appends a message to the session transcript.
func (s *Service) SaveMessage(_ context.Context, message session.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]session.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]session.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}
