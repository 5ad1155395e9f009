package urgency

import (
	"math"
	"sort"
)

// Merge combines local and AI scores into the final ranked list.
//
// Each candidate's local score is normalized to 0-100 against the batch
// maximum (floored at 1 to avoid division by zero), blended with the AI
// score as round(alpha*localNorm + beta*aiScore), then the batch is sorted
// descending by final score (stable, ties keep pre-sort order) and
// truncated to ResultLimit. Pure computation; an empty input yields an
// empty output.
func Merge(candidates []ScoredCandidate, w *Weights) []ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	maxLocal := 1
	for _, c := range candidates {
		if c.LocalScore > maxLocal {
			maxLocal = c.LocalScore
		}
	}

	merged := make([]ScoredCandidate, len(candidates))
	copy(merged, candidates)
	for i := range merged {
		merged[i].LocalNorm = int(math.Round(float64(merged[i].LocalScore) / float64(maxLocal) * 100))
		merged[i].FinalScore = int(math.Round(w.Alpha*float64(merged[i].LocalNorm) + w.Beta*float64(merged[i].AIScore)))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FinalScore > merged[j].FinalScore
	})

	if len(merged) > w.ResultLimit {
		merged = merged[:w.ResultLimit]
	}
	return merged
}
