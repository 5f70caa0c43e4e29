package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
)

// MemoryStore keeps both tables in process memory. Data does not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]user.User
	byName   map[string]string
	emotions map[string][]emotion.Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]user.User),
		byName:   make(map[string]string),
		emotions: make(map[string][]emotion.Record),
	}
}

// Store exposes the memory tables through the Store bundle.
func (s *MemoryStore) Store() Store {
	return Store{Users: s, Emotions: s, Close: func() error { return nil }}
}

func (s *MemoryStore) Create(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byName[u.Username]; ok {
		return ErrDuplicate
	}
	s.users[u.ID] = u
	s.byName[u.Username] = u.ID
	return nil
}

func (s *MemoryStore) GetByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return user.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

func (s *MemoryStore) Insert(_ context.Context, record emotion.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Emotions = append(emotion.Labels(nil), record.Emotions...)
	s.emotions[record.UserID] = append(s.emotions[record.UserID], record)
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]emotion.Record, error) {
	s.mu.RLock()
	records := append([]emotion.Record(nil), s.emotions[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}
