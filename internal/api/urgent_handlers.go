package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/diptiprasadsarangi01/Smart-Todo/internal/middleware"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/urgency"
)

// UrgentHandlers serves the ranked urgent-task list for the dashboard.
type UrgentHandlers struct {
	engine *urgency.Engine
	logger *slog.Logger

	// now is swappable in tests for deterministic ranking.
	now func() time.Time
}

// NewUrgentHandlers creates handlers backed by the given ranking engine.
func NewUrgentHandlers(engine *urgency.Engine, logger *slog.Logger) *UrgentHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &UrgentHandlers{
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
}

// UrgentTasksResponse is the JSON body returned by GET /tasks/urgent.
type UrgentTasksResponse struct {
	Tasks       []urgency.RankedTask `json:"tasks"`
	GeneratedAt string               `json:"generated_at"`
}

// UrgentTasks handles GET /tasks/urgent.
// It ranks the authenticated user's upcoming tasks and returns at most the
// configured result limit, highest urgency first. When the external ranker is
// unavailable the list is still returned, ranked by local heuristics.
func (h *UrgentHandlers) UrgentTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		ctx = middleware.SetErrorCode(ctx, ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	ranked, err := h.engine.RankUrgentTasks(ctx, userID, h.now())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to rank urgent tasks",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		ctx = middleware.SetErrorCode(ctx, ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to rank urgent tasks")
		return
	}

	response := UrgentTasksResponse{
		Tasks:       ranked,
		GeneratedAt: h.now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode urgent tasks response", "error", err)
	}
}
