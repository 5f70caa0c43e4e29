package dashboard

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/emotibot/backend/internal/analysis/chart"
	"github.com/zhouzirui/emotibot/backend/internal/handler/session"
	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	modelsession "github.com/zhouzirui/emotibot/backend/internal/model/session"
	authService "github.com/zhouzirui/emotibot/backend/internal/service/auth"
	sessionService "github.com/zhouzirui/emotibot/backend/internal/service/session"
	"github.com/zhouzirui/emotibot/backend/pkg/utils"
)

// NoDataWarning is shown while the user has no emotion history.
const NoDataWarning = "No data available. Try sending a message first."

// Handler 提供情绪统计图表数据
type Handler struct {
	authSvc    *authService.Service
	sessionSvc *sessionService.Service
}

// New 创建图表处理器
func New(authSvc *authService.Service, sessionSvc *sessionService.Service) *Handler {
	return &Handler{authSvc: authSvc, sessionSvc: sessionSvc}
}

// RegisterRoutes 注册图表与情绪记录路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Post("/dashboard/frequency", h.handleShowFrequency)
	r.Post("/dashboard/evolution", h.handleShowEvolution)
	r.Get("/emotions", h.handleEmotions)
}

// View is the chart column: which chart is active and its data.
type View struct {
	ShowBarChart  bool                     `json:"showBarChart"`
	ShowLineChart bool                     `json:"showLineChart"`
	Warning       string                   `json:"warning,omitempty"`
	Frequency     []chart.Bar              `json:"frequency,omitempty"`
	Evolution     *chart.Line              `json:"evolution,omitempty"`
	Colors        map[emotion.Label]string `json:"colors"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state, ok := session.Current(w, r, h.sessionSvc)
	if !ok {
		return
	}
	h.respondView(w, r, state, nil)
}

func (h *Handler) handleShowFrequency(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.sessionSvc.ShowFrequency)
}

func (h *Handler) handleShowEvolution(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.sessionSvc.ShowEvolution)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, show func(context.Context, string) (modelsession.State, error)) {
	state, ok := session.Current(w, r, h.sessionSvc)
	if !ok {
		return
	}

	records, ok := h.loadRecords(w, r, state.UserID)
	if !ok {
		return
	}
	if len(records) > 0 {
		updated, err := show(r.Context(), state.ID)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "session expired, please log in again")
			return
		}
		state = updated
	}
	h.respondView(w, r, state, records)
}

func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, state modelsession.State, records []emotion.Record) {
	if records == nil {
		var ok bool
		if records, ok = h.loadRecords(w, r, state.UserID); !ok {
			return
		}
	}

	utils.RespondJSON(w, http.StatusOK, BuildView(state, records))
}

// BuildView renders the chart selected by the session toggles.
func BuildView(state modelsession.State, records []emotion.Record) View {
	view := View{
		ShowBarChart:  state.ShowBarChart,
		ShowLineChart: state.ShowLineChart,
		Colors:        emotion.Colors,
	}
	if len(records) == 0 {
		view.Warning = NoDataWarning
		return view
	}
	if state.ShowBarChart {
		view.Frequency = chart.Frequency(records)
	}
	if state.ShowLineChart {
		line := chart.Evolution(records)
		view.Evolution = &line
	}
	return view
}

func (h *Handler) handleEmotions(w http.ResponseWriter, r *http.Request) {
	state, ok := session.Current(w, r, h.sessionSvc)
	if !ok {
		return
	}

	records, ok := h.loadRecords(w, r, state.UserID)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) loadRecords(w http.ResponseWriter, r *http.Request, userID string) ([]emotion.Record, bool) {
	records, err := h.authSvc.Emotions(r.Context(), userID)
	if err != nil {
		log.Printf("[dashboard] load emotions for %s failed: %v", userID, err)
		utils.RespondError(w, http.StatusBadGateway, "failed to load emotion history")
		return nil, false
	}
	if records == nil {
		records = []emotion.Record{}
	}
	return records, true
}
