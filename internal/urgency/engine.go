package urgency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/diptiprasadsarangi01/Smart-Todo/internal/airank"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/task"
	"github.com/diptiprasadsarangi01/Smart-Todo/internal/tracing"
)

// FallbackReason is attached to every candidate when the ranking service
// could not be consulted and the fallback score was used.
const FallbackReason = "ranked by local heuristics (AI ranking unavailable)"

// TaskSource is the slice of the task store the engine consumes.
type TaskSource interface {
	ListUpcoming(ctx context.Context, userID string, now time.Time) ([]*task.Task, error)
}

// RankedTask is one entry of the final ranked list, carrying everything
// the dashboard needs for display without further lookups.
type RankedTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	FinalScore  int        `json:"final_score"`
	AIReason    string     `json:"ai_reason,omitempty"`
}

// EngineConfig configures the urgency engine.
type EngineConfig struct {
	Tasks   TaskSource
	Ranker  airank.Ranker
	Weights *Weights // nil uses DefaultWeights

	// RankTimeout bounds the external ranking call; the fallback path is
	// taken when the call does not complete in time. Zero uses
	// airank.DefaultTimeout.
	RankTimeout time.Duration

	Metrics *Metrics     // optional
	Logger  *slog.Logger // nil uses slog.Default
}

// Engine runs the three-stage urgency ranking pipeline. Each invocation is
// an independent, stateless computation over a fresh task snapshot; the
// engine holds no mutable state and is safe for concurrent use.
type Engine struct {
	tasks       TaskSource
	ranker      airank.Ranker
	weights     *Weights
	rankTimeout time.Duration
	metrics     *Metrics
	logger      *slog.Logger
}

// NewEngine creates an Engine from the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	weights := cfg.Weights
	if weights == nil {
		weights = DefaultWeights()
	}
	timeout := cfg.RankTimeout
	if timeout <= 0 {
		timeout = airank.DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		tasks:       cfg.Tasks,
		ranker:      cfg.Ranker,
		weights:     weights,
		rankTimeout: timeout,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// Weights returns the engine's scoring configuration.
func (e *Engine) Weights() *Weights {
	return e.weights
}

// RankUrgentTasks runs the pipeline for one user and returns the ranked
// top entries, at most ResultLimit long.
//
// A task store error propagates to the caller as-is; nothing can be
// ranked without task data. Any failure of the external ranking service
// is absorbed: every candidate gets the fallback AI score and the result
// degrades to local-heuristic-only ranking. An empty task list returns an
// empty result without calling the ranking service.
func (e *Engine) RankUrgentTasks(ctx context.Context, userID string, now time.Time) (_ []RankedTask, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "rank_urgent_tasks")
	defer func() { endSpan(err) }()

	start := time.Now()
	if e.metrics != nil {
		e.metrics.IncRankTotal()
		defer func() {
			e.metrics.ObserveRankDuration(time.Since(start).Seconds())
		}()
	}

	tasks, err := e.tasks.ListUpcoming(ctx, userID, now)
	if err != nil {
		if e.metrics != nil {
			e.metrics.IncStoreErrors()
		}
		return nil, fmt.Errorf("failed to list upcoming tasks: %w", err)
	}

	candidates := SelectCandidates(tasks, now, e.weights)
	if e.metrics != nil {
		e.metrics.SetLastCandidateCount(float64(len(candidates)))
	}
	if len(candidates) == 0 {
		return []RankedTask{}, nil
	}

	e.applyAIScores(ctx, candidates)

	merged := Merge(candidates, e.weights)

	result := make([]RankedTask, 0, len(merged))
	for _, c := range merged {
		result = append(result, RankedTask{
			ID:          c.Task.ID,
			Title:       c.Task.Title,
			Description: c.Task.Description,
			DueDate:     c.Task.DueDate,
			Priority:    c.Task.Priority,
			Category:    c.Task.Category,
			FinalScore:  c.FinalScore,
			AIReason:    c.AIReason,
		})
	}
	if e.metrics != nil {
		e.metrics.SetLastResultCount(float64(len(result)))
	}
	return result, nil
}

// applyAIScores consults the ranking service for the candidate batch and
// writes the scores in place. Every failure mode, including a response
// that does not cover every submitted id, assigns the uniform fallback.
func (e *Engine) applyAIScores(ctx context.Context, candidates []ScoredCandidate) {
	// Ranker failures are absorbed by the fallback, so the span itself
	// always ends clean; the fallback counter tracks degradation.
	ctx, endSpan := tracing.StartSpan(ctx, "ai_rank_batch")
	defer endSpan(nil)

	payload := make([]airank.TaskPayload, 0, len(candidates))
	for _, c := range candidates {
		p := airank.TaskPayload{
			ID:          c.Task.ID,
			Title:       c.Task.Title,
			Description: c.Task.Description,
			Priority:    c.Task.Priority,
			Category:    c.Task.Category,
		}
		if c.Task.DueDate != nil {
			p.DueDate = c.Task.DueDate.Format("2006-01-02")
		}
		payload = append(payload, p)
	}

	rankCtx, cancel := context.WithTimeout(ctx, e.rankTimeout)
	defer cancel()

	rankings, err := e.ranker.Rank(rankCtx, payload)
	if err != nil {
		e.fallback(ctx, candidates, err)
		return
	}

	byID := make(map[string]airank.Ranking, len(rankings))
	for _, r := range rankings {
		byID[r.ID] = r
	}
	for _, c := range candidates {
		if _, ok := byID[c.Task.ID]; !ok {
			e.fallback(ctx, candidates, fmt.Errorf("%w: no ranking for task %s", airank.ErrInvalidResponse, c.Task.ID))
			return
		}
	}

	for i := range candidates {
		r := byID[candidates[i].Task.ID]
		candidates[i].AIScore = r.AIScore
		candidates[i].AIReason = r.Reason
	}
}

// fallback assigns the uniform fallback AI score to every candidate.
func (e *Engine) fallback(ctx context.Context, candidates []ScoredCandidate, cause error) {
	if e.metrics != nil {
		e.metrics.IncFallbackTotal()
	}
	e.logger.WarnContext(ctx, "AI ranking unavailable, using fallback scores",
		"error", cause,
		"candidates", len(candidates))

	for i := range candidates {
		candidates[i].AIScore = e.weights.FallbackAIScore
		candidates[i].AIReason = FallbackReason
	}
}
