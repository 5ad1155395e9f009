package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diptiprasadsarangi01/Smart-Todo/internal/airank"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/middleware"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/task"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/urgency"
)

func seedTasks(t *testing.T, repo *task.InMemoryRepository, userID string, now time.Time) {
	t.Helper()

	today := now
	week := now.AddDate(0, 0, 5)

	tasks := []*task.Task{
		{UserID: userID, Title: "Pay electricity bill urgent", Priority: task.PriorityHigh, Category: task.CategoryFinance, Status: task.StatusPending, DueDate: &today},
		{UserID: userID, Title: "Draft project outline", Priority: task.PriorityMedium, Category: task.CategoryWork, Status: task.StatusPending, DueDate: &week},
		{UserID: userID, Title: "Read a chapter", Priority: task.PriorityLow, Category: task.CategoryLearning, Status: task.StatusPending},
	}
	for _, tk := range tasks {
		if err := repo.Create(context.Background(), tk); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
}

func newUrgentHandler(t *testing.T, ranker airank.Ranker, userID string) (*UrgentHandlers, time.Time) {
	t.Helper()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := task.NewInMemoryRepository()
	if userID != "" {
		seedTasks(t, repo, userID, now)
	}

	engine := urgency.NewEngine(urgency.EngineConfig{
		Tasks:  repo,
		Ranker: ranker,
	})
	h := NewUrgentHandlers(engine, nil)
	h.now = func() time.Time { return now }
	return h, now
}

func authedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/tasks/urgent", nil)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func TestUrgentTasks_Success(t *testing.T) {
	ranker := &airank.FailingRanker{Err: errors.New("unavailable")}
	h, _ := newUrgentHandler(t, ranker, "user-1")

	rr := httptest.NewRecorder()
	h.UrgentTasks(rr, authedRequest("user-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body UrgentTasksResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Tasks) != 3 {
		t.Fatalf("expected 3 ranked tasks, got %d", len(body.Tasks))
	}
	if body.Tasks[0].Title != "Pay electricity bill urgent" {
		t.Errorf("expected the urgent bill first, got %q", body.Tasks[0].Title)
	}
	for i := 1; i < len(body.Tasks); i++ {
		if body.Tasks[i-1].FinalScore < body.Tasks[i].FinalScore {
			t.Errorf("tasks not sorted by final score at position %d", i)
		}
	}
	if body.GeneratedAt == "" {
		t.Error("expected generated_at timestamp")
	}
}

func TestUrgentTasks_EmptyList(t *testing.T) {
	h, _ := newUrgentHandler(t, &airank.StaticRanker{Scores: map[string]int{}}, "")

	rr := httptest.NewRecorder()
	h.UrgentTasks(rr, authedRequest("user-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body UrgentTasksResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Tasks == nil {
		t.Error("expected tasks field to be an empty array, not null")
	}
	if len(body.Tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(body.Tasks))
	}
}

func TestUrgentTasks_Unauthenticated(t *testing.T) {
	h, _ := newUrgentHandler(t, &airank.StaticRanker{Scores: map[string]int{}}, "")

	rr := httptest.NewRecorder()
	h.UrgentTasks(rr, authedRequest(""))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if body.Error.Code != ErrCodeAuthFailed {
		t.Errorf("expected %q, got %q", ErrCodeAuthFailed, body.Error.Code)
	}
}

func TestUrgentTasks_MethodNotAllowed(t *testing.T) {
	h, _ := newUrgentHandler(t, &airank.StaticRanker{Scores: map[string]int{}}, "")

	req := httptest.NewRequest(http.MethodPost, "/tasks/urgent", nil)
	rr := httptest.NewRecorder()
	h.UrgentTasks(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

// failingSource always errors, standing in for a broken task store.
type failingSource struct{}

func (f *failingSource) ListUpcoming(ctx context.Context, userID string, now time.Time) ([]*task.Task, error) {
	return nil, errors.New("store down")
}

func TestUrgentTasks_StoreError(t *testing.T) {
	engine := urgency.NewEngine(urgency.EngineConfig{
		Tasks:  &failingSource{},
		Ranker: &airank.StaticRanker{Scores: map[string]int{}},
	})
	h := NewUrgentHandlers(engine, nil)

	rr := httptest.NewRecorder()
	h.UrgentTasks(rr, authedRequest("user-1"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if body.Error.Code != ErrCodeInternal {
		t.Errorf("expected %q, got %q", ErrCodeInternal, body.Error.Code)
	}
}
