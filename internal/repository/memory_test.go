package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
)

func TestMemoryStoreUsers(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, user.User{ID: "u1", Username: "a@example.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if err := store.Create(ctx, user.User{ID: "u2", Username: "a@example.com"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := store.UpdatePassword(ctx, "u1", "y"); err != nil {
		t.Fatalf("UpdatePassword err: %v", err)
	}
	got, err := store.GetByUsername(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetByUsername err: %v", err)
	}
	if got.PasswordHash != "y" {
		t.Fatalf("expected updated hash, got %q", got.PasswordHash)
	}

	if _, err := store.GetByUsername(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListsEmotionsChronologically(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	store.Insert(ctx, emotion.Record{UserID: "u1", Timestamp: now, Emotions: emotion.Labels{emotion.Joy}})
	store.Insert(ctx, emotion.Record{UserID: "u1", Timestamp: now.Add(-time.Hour), Emotions: emotion.Labels{emotion.Fear}})
	store.Insert(ctx, emotion.Record{UserID: "u2", Timestamp: now, Emotions: emotion.Labels{emotion.Anger}})

	records, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Emotions[0] != emotion.Fear || records[1].Emotions[0] != emotion.Joy {
		t.Fatalf("records not ordered by timestamp: %+v", records)
	}
}
