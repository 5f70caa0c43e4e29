package stream

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatHandler "github.com/zhouzirui/emotibot/backend/internal/handler/chat"
	"github.com/zhouzirui/emotibot/backend/internal/handler/session"
	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	chatService "github.com/zhouzirui/emotibot/backend/internal/service/chat"
	sessionService "github.com/zhouzirui/emotibot/backend/internal/service/session"
	"github.com/zhouzirui/emotibot/backend/pkg/utils"
)

// Handler 通过 Server-Sent Events 推送处理进度
type Handler struct {
	chatSvc    *chatService.Service
	sessionSvc *sessionService.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, sessionSvc *sessionService.Service) *Handler {
	return &Handler{chatSvc: chatSvc, sessionSvc: sessionSvc}
}

// RegisterRoutes 注册流式路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.handleStream)
}

type startEvent struct {
	SessionID string `json:"sessionId"`
}

type emotionEvent struct {
	Emotions []emotion.Score `json:"emotions"`
	Detected string          `json:"detected"`
}

type messageEvent struct {
	Content string `json:"content"`
}

type endEvent struct {
	Finished bool `json:"finished"`
}

type errorEvent struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	state, ok := session.Current(w, r, h.sessionSvc)
	if !ok {
		return
	}

	userMessage := r.URL.Query().Get("message")
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	sse, err := utils.NewSSEWriter(w)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("[stream] opening stream for session=%s", state.ID)
	sse.Event("start", startEvent{SessionID: state.ID})

	reply, err := h.chatSvc.Stream(r.Context(), state.ID, userMessage, func(scores []emotion.Score, detected string) {
		sse.Event("emotion", emotionEvent{Emotions: scores, Detected: detected})
	})
	if err != nil {
		status, message := chatHandler.ErrorStatus(err)
		sse.Event("error", errorEvent{Status: status, Error: message})
		return
	}

	sse.Event("message", messageEvent{Content: reply.Response})
	sse.Event("end", endEvent{Finished: true})
}
