package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
)

func openTestStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	store := NewStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserRepositoryLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	u := user.User{ID: "u1", Username: "sam@example.com", PasswordHash: "plain"}
	if err := store.Users.Create(ctx, u); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if err := store.Users.Create(ctx, user.User{ID: "u2", Username: "sam@example.com", PasswordHash: "x"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := store.Users.UpdatePassword(ctx, "u1", "$2a$hash"); err != nil {
		t.Fatalf("UpdatePassword err: %v", err)
	}
	got, err := store.Users.GetByUsername(ctx, "sam@example.com")
	if err != nil {
		t.Fatalf("GetByUsername err: %v", err)
	}
	if got.PasswordHash != "$2a$hash" {
		t.Fatalf("expected updated password, got %q", got.PasswordHash)
	}

	if err := store.Users.UpdatePassword(ctx, "missing", "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmotionRepositoryOrdersByTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	store.Users.Create(ctx, user.User{ID: "u1", Username: "a@example.com", PasswordHash: "x"})
	if err := store.Emotions.Insert(ctx, emotion.Record{UserID: "u1", Timestamp: now, Emotions: emotion.Labels{emotion.Joy, emotion.Surprise}}); err != nil {
		t.Fatalf("Insert err: %v", err)
	}
	if err := store.Emotions.Insert(ctx, emotion.Record{UserID: "u1", Timestamp: now.Add(-24 * time.Hour), Emotions: emotion.Labels{emotion.Fear}}); err != nil {
		t.Fatalf("Insert err: %v", err)
	}

	records, err := store.Emotions.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Emotions[0] != emotion.Fear || records[1].Emotions.Join(",") != "joy,surprise" {
		t.Fatalf("unexpected records: %+v", records)
	}
}
