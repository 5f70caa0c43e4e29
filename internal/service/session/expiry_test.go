package session

import (
	"context"
	"errors"
	"testing"
	"time"

	modelsession "github.com/zhouzirui/emotibot/backend/internal/model/session"
)

func TestCreateDropsExpiredSessions(t *testing.T) {
	svc := NewService(time.Hour)
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	old, _ := svc.Create(ctx, "user-1", "a@example.com")
	if err := svc.SaveMessage(ctx, modelsession.Message{SessionID: old.ID, Sender: "user", Content: "hi"}); err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}

	clock = clock.Add(30 * time.Minute)
	recent, _ := svc.Create(ctx, "user-2", "b@example.com")
	if svc.Len() != 2 {
		t.Fatalf("expected 2 live sessions, got %d", svc.Len())
	}

	clock = clock.Add(45 * time.Minute)
	if _, err := svc.Create(ctx, "user-3", "c@example.com"); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	if _, err := svc.Get(ctx, old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session to be dropped, got %v", err)
	}
	if _, err := svc.LoadTranscript(ctx, old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired transcript to be dropped, got %v", err)
	}
	if _, err := svc.Get(ctx, recent.ID); err != nil {
		t.Fatalf("recent session should survive: %v", err)
	}
	if svc.Len() != 2 {
		t.Fatalf("expected 2 live sessions, got %d", svc.Len())
	}
}

func TestZeroTTLKeepsSessions(t *testing.T) {
	svc := NewService(0)
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	first, _ := svc.Create(ctx, "user-1", "a@example.com")
	clock = clock.AddDate(1, 0, 0)
	svc.Create(ctx, "user-2", "b@example.com")

	if _, err := svc.Get(ctx, first.ID); err != nil {
		t.Fatalf("session without ttl should survive: %v", err)
	}
}
