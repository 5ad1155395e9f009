package urgency

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/diptiprasadsarangi01/Smart-Todo/internal/task"
)

// ScoredCandidate wraps a task with the scores accumulated through the
// pipeline. Candidates are created fresh on each invocation and discarded
// after merging; nothing here is persisted.
type ScoredCandidate struct {
	Task       *task.Task
	LocalScore int    // deterministic local score, 0..LocalScoreCap
	LocalNorm  int    // LocalScore normalized to 0-100 against the batch max
	AIScore    int    // external importance score or the fallback constant
	AIReason   string // short explanation from the ranking service (may be empty)
	FinalScore int    // weighted blend of LocalNorm and AIScore
}

// DaysUntilDue returns the number of calendar days from now to the due
// date, comparing both at midnight. Due today yields 0, overdue is
// negative. The midnight-to-midnight span is rounded to whole days:
// across a DST transition it is 23 or 25 hours, and either still counts
// as exactly one calendar day.
func DaysUntilDue(due, now time.Time) int {
	d := task.Midnight(due).Sub(task.Midnight(now))
	return int(math.Round(d.Hours() / 24))
}

// LocalScore computes the deterministic local urgency score for a task.
// The result is reproducible for an identical task snapshot and "now".
func LocalScore(t *task.Task, now time.Time, w *Weights) int {
	score := 0

	switch t.Priority {
	case task.PriorityHigh:
		score += w.PriorityHigh
	case task.PriorityMedium:
		score += w.PriorityMedium
	case task.PriorityLow:
		score += w.PriorityLow
	}

	if t.DueDate != nil {
		switch diff := DaysUntilDue(*t.DueDate, now); {
		case diff <= 0:
			score += w.DueToday
		case diff == 1:
			score += w.DueTomorrow
		case diff <= 7:
			score += w.DueThisWeek
		}
	}

	score += keywordBoost(t, w)

	if t.Category == task.CategoryFinance {
		score += w.FinanceBoost
	}

	if score > w.LocalScoreCap {
		score = w.LocalScoreCap
	}
	return score
}

// keywordBoost counts distinct urgency keywords in the lowercased
// concatenation of title and description. Each distinct match adds
// KeywordBoost points; the total saturates at KeywordBoostCap. Counting
// all distinct matches first keeps the result independent of keyword order.
func keywordBoost(t *task.Task, w *Weights) int {
	text := strings.ToLower(t.Title + " " + t.Description)

	boost := 0
	for _, kw := range urgencyKeywords {
		if strings.Contains(text, kw) {
			boost += w.KeywordBoost
		}
	}
	if boost > w.KeywordBoostCap {
		boost = w.KeywordBoostCap
	}
	return boost
}

// SelectCandidates scores every task locally, sorts the batch descending
// by local score (stable, preserving input order on ties), and keeps the
// top CandidateLimit entries for external ranking.
func SelectCandidates(tasks []*task.Task, now time.Time, w *Weights) []ScoredCandidate {
	if len(tasks) == 0 {
		return nil
	}

	candidates := make([]ScoredCandidate, 0, len(tasks))
	for _, t := range tasks {
		candidates = append(candidates, ScoredCandidate{
			Task:       t,
			LocalScore: LocalScore(t, now, w),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].LocalScore > candidates[j].LocalScore
	})

	if len(candidates) > w.CandidateLimit {
		candidates = candidates[:w.CandidateLimit]
	}
	return candidates
}
