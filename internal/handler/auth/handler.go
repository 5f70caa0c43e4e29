package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/emotibot/backend/internal/middleware"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
	authService "github.com/zhouzirui/emotibot/backend/internal/service/auth"
	sessionService "github.com/zhouzirui/emotibot/backend/internal/service/session"
	"github.com/zhouzirui/emotibot/backend/pkg/utils"
)

// Handler 处理注册、登录与登出
type Handler struct {
	authSvc    *authService.Service
	sessionSvc *sessionService.Service
}

// New 创建认证处理器
func New(authSvc *authService.Service, sessionSvc *sessionService.Service) *Handler {
	return &Handler{authSvc: authSvc, sessionSvc: sessionSvc}
}

// RegisterPublicRoutes 注册无需令牌的路由
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// RegisterRoutes 注册需要令牌的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
}

type credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c credentials) name() string {
	if strings.TrimSpace(c.Email) != "" {
		return strings.TrimSpace(c.Email)
	}
	return strings.TrimSpace(c.Username)
}

type loginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.name() == "" || payload.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	userID, message, err := h.authSvc.Register(r.Context(), payload.name(), payload.Password)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			status = http.StatusConflict
		case message == authService.MsgSaveFailed:
			status = http.StatusInternalServerError
		}
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"userId":  userID,
		"message": message,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.authSvc.Login(r.Context(), payload.name(), payload.Password)
	if err != nil {
		if !errors.Is(err, authService.ErrInvalidCredentials) {
			log.Printf("[auth] login error: %v", err)
		}
		utils.RespondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	state, err := h.sessionSvc.Create(r.Context(), u.ID, u.Username)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to open session")
		return
	}

	token, err := h.authSvc.IssueToken(*u, state.ID)
	if err != nil {
		h.sessionSvc.Delete(r.Context(), state.ID)
		log.Printf("[auth] issue token failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	utils.RespondJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		SessionID: state.ID,
		UserID:    u.ID,
		Username:  u.Username,
		Message:   fmt.Sprintf("Login successful, %s!", u.Username),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	h.sessionSvc.Delete(r.Context(), claims.SessionID)
	w.WriteHeader(http.StatusNoContent)
}
