package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
)

type failingProvider struct{}

func (failingProvider) SignUp(context.Context, string, string) (string, error) {
	return "", errors.New("signup disabled")
}

type failingEmotions struct{}

func (failingEmotions) Insert(context.Context, emotion.Record) error {
	return errors.New("insert failed")
}

func (failingEmotions) ListByUser(context.Context, string) ([]emotion.Record, error) {
	return nil, errors.New("list failed")
}

func newTestService(t *testing.T) (*Service, *repository.MemoryStore) {
	t.Helper()
	mem := repository.NewMemoryStore()
	return NewService(LocalProvider{}, mem.Store(), "test-secret", time.Hour), mem
}

func TestRegisterAndLogin(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	id, msg, err := svc.Register(ctx, "ana@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if msg != MsgRegistered || id == "" {
		t.Fatalf("unexpected register result: %q %q", id, msg)
	}

	stored, _ := mem.GetByUsername(ctx, "ana@example.com")
	if !strings.HasPrefix(stored.PasswordHash, "$2") || stored.PasswordHash == "s3cret" {
		t.Fatalf("password should be stored hashed, got %q", stored.PasswordHash)
	}

	u, err := svc.Login(ctx, "ana@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if u.ID != id {
		t.Fatalf("expected id %s, got %s", id, u.ID)
	}

	if _, err := svc.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterMessages(t *testing.T) {
	ctx := context.Background()

	svc := NewService(failingProvider{}, repository.NewMemoryStore().Store(), "k", 0)
	if _, msg, err := svc.Register(ctx, "a@example.com", "pw"); err == nil || msg != MsgRegisterError {
		t.Fatalf("expected provider failure message, got %q (%v)", msg, err)
	}

	svc, _ = newTestService(t)
	if _, _, err := svc.Register(ctx, "a@example.com", "pw"); err != nil {
		t.Fatalf("first Register err: %v", err)
	}
	if _, msg, err := svc.Register(ctx, "a@example.com", "pw"); err == nil || msg != MsgSaveFailed {
		t.Fatalf("expected save failure message, got %q (%v)", msg, err)
	}
}

func TestLegacyPlaintextLoginRehashes(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	if err := mem.Create(ctx, user.User{ID: "legacy-1", Username: "old@example.com", PasswordHash: "plain"}); err != nil {
		t.Fatalf("seed err: %v", err)
	}

	if _, err := svc.Login(ctx, "old@example.com", "plain"); err != nil {
		t.Fatalf("first login err: %v", err)
	}

	stored, _ := mem.GetByUsername(ctx, "old@example.com")
	if !isHashed(stored.PasswordHash) {
		t.Fatalf("expected rehashed password, got %q", stored.PasswordHash)
	}

	if _, err := svc.Login(ctx, "old@example.com", "plain"); err != nil {
		t.Fatalf("second login err: %v", err)
	}
	if _, err := svc.Login(ctx, "old@example.com", "other"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.IssueToken(user.User{ID: "u1", Username: "ana@example.com"}, "sess-1")
	if err != nil {
		t.Fatalf("IssueToken err: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken err: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "ana@example.com" || claims.SessionID != "sess-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other := NewService(nil, repository.NewMemoryStore().Store(), "another-secret", time.Hour)
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.IssueToken(user.User{ID: "u1"}, "sess-1")
	if err != nil {
		t.Fatalf("IssueToken err: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestSaveEmotions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.SaveEmotions(ctx, "", []emotion.Score{{Label: emotion.Joy, Probability: 0.9}})
	svc.SaveEmotions(ctx, "u1", nil)
	svc.SaveEmotions(ctx, "u1", []emotion.Score{{Label: emotion.Joy, Probability: 0.6}, {Label: emotion.Fear, Probability: 0.4}})

	records, err := svc.Emotions(ctx, "u1")
	if err != nil {
		t.Fatalf("Emotions err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if got := records[0].Emotions.Literal(); got != `{"neutral"}` {
		t.Fatalf("empty scores should store neutral, got %s", got)
	}
	if got := records[1].Emotions.Literal(); got != `{"joy","fear"}` {
		t.Fatalf("unexpected labels %s", got)
	}

	empty, _ := svc.Emotions(ctx, "")
	if len(empty) != 0 {
		t.Fatalf("blank user id must not be saved, got %d rows", len(empty))
	}
}

func TestSaveEmotionsSwallowsErrors(t *testing.T) {
	mem := repository.NewMemoryStore()
	store := repository.Store{Users: mem, Emotions: failingEmotions{}}
	svc := NewService(nil, store, "k", time.Hour)

	svc.SaveEmotions(context.Background(), "u1", nil)

	if _, err := svc.Emotions(context.Background(), "u1"); err == nil {
		t.Fatal("expected list error to surface")
	}
}
