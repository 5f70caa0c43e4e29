package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/emotibot/backend/internal/middleware"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
	"github.com/zhouzirui/emotibot/backend/internal/service/ai"
	authService "github.com/zhouzirui/emotibot/backend/internal/service/auth"
	chatService "github.com/zhouzirui/emotibot/backend/internal/service/chat"
	emotionService "github.com/zhouzirui/emotibot/backend/internal/service/emotion"
	sessionService "github.com/zhouzirui/emotibot/backend/internal/service/session"
)

func TestSlowReplyKeepsConnectionOpen(t *testing.T) {
	generator := ai.GeneratorFunc(func(context.Context, string, ai.Sampling) (string, error) {
		time.Sleep(300 * time.Millisecond)
		return "Take your time.", nil
	})

	authSvc := authService.NewService(nil, repository.NewMemoryStore().Store(), "secret", time.Hour)
	sessions := sessionService.NewService(time.Hour)
	chatSvc := chatService.NewService(emotionService.NewService(nil, "", -1), ai.NewService(generator, "slow"), authSvc, sessions)

	handler := New(chatSvc, sessions)
	handler.readTimeout = 100 * time.Millisecond

	r := chi.NewRouter()
	r.Use(middleware.Auth(authSvc))
	handler.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx := context.Background()
	state, err := sessions.Create(ctx, "user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	token, err := authSvc.IssueToken(user.User{ID: "user-1", Username: "a@example.com"}, state.ID)
	if err != nil {
		t.Fatalf("IssueToken err: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msg outgoingMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "connected" {
		t.Fatalf("expected connected message, got %+v (%v)", msg, err)
	}

	for i := 0; i < 2; i++ {
		if err := conn.WriteJSON(inboundMessage{Message: "a long day"}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		msg = outgoingMessage{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read reply %d: %v", i, err)
		}
		if msg.Type != "reply" || msg.Response != "Take your time." {
			t.Fatalf("reply %d: unexpected message %+v", i, msg)
		}
	}
}
