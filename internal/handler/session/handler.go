package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/emotibot/backend/internal/middleware"
	modelsession "github.com/zhouzirui/emotibot/backend/internal/model/session"
	sessionService "github.com/zhouzirui/emotibot/backend/internal/service/session"
	"github.com/zhouzirui/emotibot/backend/pkg/utils"
)

// Handler 暴露当前登录会话的状态
type Handler struct {
	sessionSvc *sessionService.Service
}

// New 创建会话处理器
func New(sessionSvc *sessionService.Service) *Handler {
	return &Handler{sessionSvc: sessionSvc}
}

// RegisterRoutes 注册会话路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.handleGetSession)
}

type view struct {
	Welcome string `json:"welcome"`
	modelsession.State
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, ok := Current(w, r, h.sessionSvc)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, view{
		Welcome: fmt.Sprintf("Welcome, %s", state.Username),
		State:   state,
	})
}

// Current 读取令牌绑定的会话；会话已结束时写出 401 并返回 false。
func Current(w http.ResponseWriter, r *http.Request, sessionSvc *sessionService.Service) (modelsession.State, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return modelsession.State{}, false
	}

	state, err := sessionSvc.Get(r.Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, sessionService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusUnauthorized, "session expired, please log in again")
			return modelsession.State{}, false
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return modelsession.State{}, false
	}
	return state, true
}
