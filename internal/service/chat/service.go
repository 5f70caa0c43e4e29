// Package chat runs one user message through detection, reply generation and persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	analysis "github.com/zhouzirui/emotibot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	modelsession "github.com/zhouzirui/emotibot/backend/internal/model/session"
	"github.com/zhouzirui/emotibot/backend/internal/service/ai"
	"github.com/zhouzirui/emotibot/backend/internal/service/auth"
	emotionsvc "github.com/zhouzirui/emotibot/backend/internal/service/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/service/session"
)

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

var ErrEmptyMessage = errors.New("message is empty")

// Reply is what the user sees after sending a message.
type Reply struct {
	Response string          `json:"response"`
	Emotions []emotion.Score `json:"emotions"`
	Detected string          `json:"detected"`
}

// Service wires the classifier, the generator, the emotion log and the session store.
type Service struct {
	emotions *emotionsvc.Service
	ai       *ai.Service
	auth     *auth.Service
	sessions *session.Service
}

func NewService(emotions *emotionsvc.Service, aiService *ai.Service, authService *auth.Service, sessions *session.Service) *Service {
	return &Service{
		emotions: emotions,
		ai:       aiService,
		auth:     authService,
		sessions: sessions,
	}
}

// Send processes one message for the session.
func (s *Service) Send(ctx context.Context, sessionID, text string) (Reply, error) {
	return s.Stream(ctx, sessionID, text, nil)
}

// Stream is Send with a callback fired once emotions are known and before the
// reply is generated.
func (s *Service) Stream(ctx context.Context, sessionID, text string, onDetected func(scores []emotion.Score, detected string)) (Reply, error) {
	if strings.TrimSpace(text) == "" {
		return Reply{}, ErrEmptyMessage
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}

	scores := s.emotions.Detect(ctx, text)
	detected := emotion.NamesOf(scores).Join(", ")
	if onDetected != nil {
		onDetected(scores, detected)
	}

	strongest := analysis.Strongest(scores)
	response, err := s.ai.Respond(ctx, text, strongest)
	if err != nil {
		return Reply{}, fmt.Errorf("respond: %w", err)
	}

	s.auth.SaveEmotions(ctx, state.UserID, scores)

	if err := s.sessions.SetLastReply(ctx, sessionID, response, emotion.NamesOf(scores)); err != nil {
		log.Printf("[chat] update session %s failed: %v", sessionID, err)
	}
	s.appendTranscript(ctx, sessionID, text, response, detected)

	log.Printf("[chat] session %s handled message, emotions=%s strongest=%s", sessionID, detected, strongest)
	return Reply{Response: response, Emotions: scores, Detected: detected}, nil
}

func (s *Service) appendTranscript(ctx context.Context, sessionID, text, response, detected string) {
	turns := []modelsession.Message{
		{SessionID: sessionID, Sender: SenderUser, Content: text, Emotion: detected},
		{SessionID: sessionID, Sender: SenderAssistant, Content: response},
	}
	for _, turn := range turns {
		if err := s.sessions.SaveMessage(ctx, turn); err != nil {
			log.Printf("[chat] save %s message failed: %v", turn.Sender, err)
		}
	}
}
