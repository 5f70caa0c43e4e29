package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/emotibot/backend/internal/handler/auth"
	"github.com/zhouzirui/emotibot/backend/internal/handler/chat"
	"github.com/zhouzirui/emotibot/backend/internal/handler/dashboard"
	"github.com/zhouzirui/emotibot/backend/internal/handler/session"
	"github.com/zhouzirui/emotibot/backend/internal/handler/stream"
	"github.com/zhouzirui/emotibot/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/emotibot/backend/internal/middleware"
	aiService "github.com/zhouzirui/emotibot/backend/internal/service/ai"
	authService "github.com/zhouzirui/emotibot/backend/internal/service/auth"
	chatService "github.com/zhouzirui/emotibot/backend/internal/service/chat"
	emotionService "github.com/zhouzirui/emotibot/backend/internal/service/emotion"
	sessionService "github.com/zhouzirui/emotibot/backend/internal/service/session"
	"github.com/zhouzirui/emotibot/backend/pkg/utils"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Auth     *authService.Service
	Sessions *sessionService.Service
	Emotions *emotionService.Service
	AI       *aiService.Service
	Chat     *chatService.Service
	Store    string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"store":      svc.Store,
			"classifier": svc.Emotions.Backend(),
			"generator":  svc.AI.Backend(),
		})
	})

	authHandler := auth.New(svc.Auth, svc.Sessions)

	r.Route("/api", func(api chi.Router) {
		authHandler.RegisterPublicRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middlewarePkg.Auth(svc.Auth))

			authHandler.RegisterRoutes(protected)
			session.New(svc.Sessions).RegisterRoutes(protected)
			chat.New(svc.Chat, svc.Sessions).RegisterRoutes(protected)
			stream.New(svc.Chat, svc.Sessions).RegisterRoutes(protected)
			ws.New(svc.Chat, svc.Sessions).RegisterRoutes(protected)
			dashboard.New(svc.Auth, svc.Sessions).RegisterRoutes(protected)
		})
	})

	return r
}
