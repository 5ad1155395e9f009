// Package task provides the task model and repositories backing the
// urgency ranking engine.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/diptiprasadsarangi01/Smart-Todo/internal/validate"
)

// Priority levels for a task.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task categories.
const (
	CategoryWork     = "work"
	CategoryPersonal = "personal"
	CategoryFinance  = "finance"
	CategoryLearning = "learning"
	CategoryHealth   = "health"
	CategoryMisc     = "misc"
)

// Task statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Common errors for task operations.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrEmptyUserID  = errors.New("user id cannot be empty")
	ErrEmptyTitle   = errors.New("title cannot be empty")
)

// Task represents a single dated to-do item owned by a user.
// DueDate is day-granular; only the calendar date is significant.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidPriority reports whether p is a recognized priority level.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidCategory reports whether c is a recognized category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryFinance, CategoryLearning, CategoryHealth, CategoryMisc:
		return true
	}
	return false
}

// ValidStatus reports whether s is a recognized status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted:
		return true
	}
	return false
}

// Validate checks that the task has a user, a title, and recognized enum
// values. Title and description are trimmed and sanitized in place.
func (t *Task) Validate() error {
	if t.UserID == "" {
		return ErrEmptyUserID
	}
	title, err := validate.TaskTitle(t.Title)
	if err != nil {
		if errors.Is(err, validate.ErrEmpty) {
			return ErrEmptyTitle
		}
		return fmt.Errorf("invalid title: %w", err)
	}
	t.Title = title
	desc, err := validate.TaskDescription(t.Description)
	if err != nil {
		return fmt.Errorf("invalid description: %w", err)
	}
	t.Description = desc
	if !ValidPriority(t.Priority) {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if !ValidCategory(t.Category) {
		return fmt.Errorf("invalid category %q", t.Category)
	}
	if !ValidStatus(t.Status) {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	return nil
}

// Midnight truncates t to local midnight. Due-date arithmetic works on
// whole days, so both "now" and due dates are compared at midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Upcoming reports whether the task is not completed and due today or later
// (tasks without a due date count as upcoming).
func (t *Task) Upcoming(now time.Time) bool {
	if t.Status == StatusCompleted {
		return false
	}
	if t.DueDate == nil {
		return true
	}
	return !Midnight(*t.DueDate).Before(Midnight(now))
}
