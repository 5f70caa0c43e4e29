package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
	"github.com/zhouzirui/emotibot/backend/internal/service/ai"
	"github.com/zhouzirui/emotibot/backend/internal/service/auth"
	"github.com/zhouzirui/emotibot/backend/internal/service/chat"
	emotionsvc "github.com/zhouzirui/emotibot/backend/internal/service/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/service/session"
)

type fixture struct {
	chat     *chat.Service
	auth     *auth.Service
	sessions *session.Service
	prompts  []string
}

func newFixture(t *testing.T, dist emotion.Distribution, genErr error) *fixture {
	t.Helper()

	f := &fixture{}
	classifier := emotionsvc.ClassifierFunc(func(context.Context, string) (emotion.Distribution, error) {
		return dist, nil
	})
	generator := ai.GeneratorFunc(func(_ context.Context, prompt string, _ ai.Sampling) (string, error) {
		f.prompts = append(f.prompts, prompt)
		if genErr != nil {
			return "", genErr
		}
		return "It is okay to feel this way. Visit www.example.org for more.", nil
	})

	f.auth = auth.NewService(nil, repository.NewMemoryStore().Store(), "secret", time.Hour)
	f.sessions = session.NewService(time.Hour)
	f.chat = chat.NewService(
		emotionsvc.NewService(classifier, "fake", 0.3),
		ai.NewService(generator, "fake"),
		f.auth,
		f.sessions,
	)
	return f
}

func TestSendRunsPipeline(t *testing.T) {
	f := newFixture(t, emotion.Distribution{emotion.Sadness: 0.55, emotion.Fear: 0.35, emotion.Neutral: 0.1}, nil)
	ctx := context.Background()

	state, err := f.sessions.Create(ctx, "user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	reply, err := f.chat.Send(ctx, state.ID, "I am scared and sad")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}

	if reply.Detected != "fear, sadness" {
		t.Fatalf("unexpected detected emotions %q", reply.Detected)
	}
	if reply.Response != "It is okay to feel this way. Visit for more." {
		t.Fatalf("unexpected response %q", reply.Response)
	}
	if len(f.prompts) != 1 || !strings.Contains(f.prompts[0], "The user feels sadness") {
		t.Fatalf("generator should be prompted once with the strongest emotion, got %v", f.prompts)
	}

	records, _ := f.auth.Emotions(ctx, "user-1")
	if len(records) != 1 || records[0].Emotions.Literal() != `{"fear","sadness"}` {
		t.Fatalf("unexpected emotion log: %+v", records)
	}

	got, _ := f.sessions.Get(ctx, state.ID)
	if got.LastResponse != reply.Response || got.LastEmotions.Join(", ") != "fear, sadness" {
		t.Fatalf("session not updated: %+v", got)
	}

	transcript, _ := f.sessions.LoadTranscript(ctx, state.ID)
	if len(transcript) != 2 || transcript[0].Sender != chat.SenderUser || transcript[1].Sender != chat.SenderAssistant {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
}

func TestSendRejectsBlankMessage(t *testing.T) {
	f := newFixture(t, emotion.Distribution{emotion.Joy: 1}, nil)
	ctx := context.Background()
	state, _ := f.sessions.Create(ctx, "user-1", "a@example.com")

	if _, err := f.chat.Send(ctx, state.ID, "   "); !errors.Is(err, chat.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(f.prompts) != 0 {
		t.Fatal("generator must not run for blank input")
	}
}

func TestSendUnknownSession(t *testing.T) {
	f := newFixture(t, emotion.Distribution{emotion.Joy: 1}, nil)
	if _, err := f.chat.Send(context.Background(), "missing", "hello"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSendGeneratorFailureSkipsPersistence(t *testing.T) {
	f := newFixture(t, emotion.Distribution{emotion.Joy: 1}, errors.New("model loading"))
	ctx := context.Background()
	state, _ := f.sessions.Create(ctx, "user-1", "a@example.com")

	if _, err := f.chat.Send(ctx, state.ID, "great day"); err == nil {
		t.Fatal("expected generator error")
	}

	records, _ := f.auth.Emotions(ctx, "user-1")
	if len(records) != 0 {
		t.Fatalf("no emotions should be saved on failure, got %d", len(records))
	}
}

func TestStreamReportsEmotionsFirst(t *testing.T) {
	f := newFixture(t, emotion.Distribution{emotion.Joy: 0.9, emotion.Neutral: 0.1}, nil)
	ctx := context.Background()
	state, _ := f.sessions.Create(ctx, "user-1", "a@example.com")

	var seen string
	_, err := f.chat.Stream(ctx, state.ID, "great day", func(_ []emotion.Score, detected string) {
		if len(f.prompts) != 0 {
			t.Fatal("callback must run before generation")
		}
		seen = detected
	})
	if err != nil {
		t.Fatalf("Stream err: %v", err)
	}
	if seen != "joy" {
		t.Fatalf("unexpected detected %q", seen)
	}
}
