package task

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/diptiprasadsarangi01/Smart-Todo/internal/tracing"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new task with a generated UUID.
func (r *PostgresRepository) Create(ctx context.Context, t *Task) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "tasks", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if err := t.Validate(); err != nil {
		return err
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, user_id, title, description, due_date, priority, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.DueDate,
		t.Priority, t.Category, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// GetByID retrieves a task by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (_ *Task, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "tasks", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `
		SELECT id, user_id, title, description, due_date, priority, category, status, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// Complete marks a task as completed.
func (r *PostgresRepository) Complete(ctx context.Context, id string) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "tasks", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	query := `
		UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, StatusCompleted, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ListUpcoming returns the user's non-completed tasks due today or later.
// The due-date comparison is day-granular: tasks due any time today are
// included regardless of the time-of-day stored in due_date.
func (r *PostgresRepository) ListUpcoming(ctx context.Context, userID string, now time.Time) (_ []*Task, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "tasks", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `
		SELECT id, user_id, title, description, due_date, priority, category, status, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		  AND status != $2
		  AND (due_date IS NULL OR due_date >= $3)
		ORDER BY due_date ASC NULLS LAST, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, StatusCompleted, Midnight(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming tasks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var result []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return result, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*Task, error) {
	var t Task
	var description sql.NullString
	var dueDate sql.NullTime

	err := s.Scan(&t.ID, &t.UserID, &t.Title, &description, &dueDate,
		&t.Priority, &t.Category, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		t.Description = description.String
	}
	if dueDate.Valid {
		due := dueDate.Time
		t.DueDate = &due
	}
	return &t, nil
}
