package airank

import (
	"context"
	"time"
)

// StaticRanker is a Ranker test double that returns fixed scores by task id.
// Ids absent from the map fail the whole call, matching the strict contract.
type StaticRanker struct {
	Scores  map[string]int
	Reasons map[string]string
}

// Rank returns the configured score for each submitted task.
func (s *StaticRanker) Rank(ctx context.Context, tasks []TaskPayload) ([]Ranking, error) {
	result := make([]Ranking, 0, len(tasks))
	for _, t := range tasks {
		score, ok := s.Scores[t.ID]
		if !ok {
			return nil, ErrInvalidResponse
		}
		result = append(result, Ranking{
			ID:      t.ID,
			AIScore: score,
			Reason:  s.Reasons[t.ID],
		})
	}
	return result, nil
}

// FailingRanker is a Ranker test double that always returns the given error.
type FailingRanker struct {
	Err error
}

// Rank always fails.
func (f *FailingRanker) Rank(ctx context.Context, tasks []TaskPayload) ([]Ranking, error) {
	return nil, f.Err
}

// SlowRanker wraps a Ranker with an artificial delay for timeout testing.
// It respects context cancellation during the delay.
type SlowRanker struct {
	Ranker Ranker
	Delay  time.Duration
}

// Rank waits for the configured delay, then delegates.
func (s *SlowRanker) Rank(ctx context.Context, tasks []TaskPayload) ([]Ranking, error) {
	select {
	case <-time.After(s.Delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Ranker.Rank(ctx, tasks)
}
