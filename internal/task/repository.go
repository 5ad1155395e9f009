package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the task store consumed by the urgency engine.
type Repository interface {
	// Create inserts a new task with a generated UUID.
	Create(ctx context.Context, t *Task) error

	// GetByID retrieves a task by its UUID.
	GetByID(ctx context.Context, id string) (*Task, error)

	// Complete marks a task as completed.
	Complete(ctx context.Context, id string) error

	// ListUpcoming returns the user's non-completed tasks that are due today
	// or later (including tasks with no due date), ordered by due date
	// ascending with undated tasks last. "Today" is relative to now.
	ListUpcoming(ctx context.Context, userID string, now time.Time) ([]*Task, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]*Task // UUID -> Task
}

// NewInMemoryRepository creates a new in-memory task repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		tasks: make(map[string]*Task),
	}
}

// Create inserts a new task with a generated UUID.
func (r *InMemoryRepository) Create(ctx context.Context, t *Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	stored := *t
	r.tasks[t.ID] = &stored
	return nil
}

// GetByID retrieves a task by its UUID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	// Return a copy to avoid external modification
	result := *t
	return &result, nil
}

// Complete marks a task as completed.
func (r *InMemoryRepository) Complete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}

	t.Status = StatusCompleted
	t.UpdatedAt = time.Now()
	return nil
}

// ListUpcoming returns the user's non-completed tasks due today or later.
func (r *InMemoryRepository) ListUpcoming(ctx context.Context, userID string, now time.Time) ([]*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Task
	for _, t := range r.tasks {
		if t.UserID != userID || !t.Upcoming(now) {
			continue
		}
		copied := *t
		result = append(result, &copied)
	}

	// Due date ascending, undated tasks last, ID as tie-breaker for
	// stable output across invocations.
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.ID < b.ID
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case a.DueDate.Equal(*b.DueDate):
			return a.ID < b.ID
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})

	return result, nil
}
