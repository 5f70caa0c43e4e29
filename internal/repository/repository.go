// Package repository defines access to the users and emotions tables.
package repository

import (
	"context"
	"errors"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository persists application-level user rows.
type UserRepository interface {
	Create(ctx context.Context, u user.User) error
	GetByUsername(ctx context.Context, username string) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// EmotionRepository appends to and reads the emotion log.
type EmotionRepository interface {
	Insert(ctx context.Context, record emotion.Record) error
	// ListByUser returns a user's records ordered by ascending timestamp.
	ListByUser(ctx context.Context, userID string) ([]emotion.Record, error)
}

// Store bundles both tables of one backend.
type Store struct {
	Users    UserRepository
	Emotions EmotionRepository
	Close    func() error
}
