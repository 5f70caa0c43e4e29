package chat

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/emotibot/backend/internal/handler/session"
	modelsession "github.com/zhouzirui/emotibot/backend/internal/model/session"
	"github.com/zhouzirui/emotibot/backend/internal/service/ai"
	chatService "github.com/zhouzirui/emotibot/backend/internal/service/chat"
	sessionService "github.com/zhouzirui/emotibot/backend/internal/service/session"
	"github.com/zhouzirui/emotibot/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc    *chatService.Service
	sessionSvc *sessionService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, sessionSvc *sessionService.Service) *Handler {
	return &Handler{chatSvc: chatSvc, sessionSvc: sessionSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleSendMessage)
	r.Get("/messages", h.handleLastMessage)
}

type historyResponse struct {
	LastResponse string                 `json:"lastResponse"`
	Detected     string                 `json:"detected"`
	Transcript   []modelsession.Message `json:"transcript"`
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	state, ok := session.Current(w, r, h.sessionSvc)
	if !ok {
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chatSvc.Send(r.Context(), state.ID, payload.Message)
	if err != nil {
		status, message := ErrorStatus(err)
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleLastMessage(w http.ResponseWriter, r *http.Request) {
	state, ok := session.Current(w, r, h.sessionSvc)
	if !ok {
		return
	}

	transcript, err := h.sessionSvc.LoadTranscript(r.Context(), state.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{
		LastResponse: state.LastResponse,
		Detected:     state.LastEmotions.Join(", "),
		Transcript:   transcript,
	})
}

// ErrorStatus maps pipeline errors to an HTTP status and a client-facing message.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chatService.ErrEmptyMessage):
		return http.StatusBadRequest, "message is required"
	case errors.Is(err, sessionService.ErrSessionNotFound):
		return http.StatusUnauthorized, "session expired, please log in again"
	case errors.Is(err, ai.ErrUnavailable):
		return http.StatusServiceUnavailable, "response generator unavailable"
	default:
		log.Printf("[chat] send failed: %v", err)
		return http.StatusBadGateway, "failed to generate a response"
	}
}
