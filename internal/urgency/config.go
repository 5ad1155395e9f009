package urgency

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// urgencyKeywords is the fixed keyword set scanned in title+description.
// Matching is order-independent: each distinct keyword found adds
// KeywordBoost points, and the total is capped at KeywordBoostCap.
var urgencyKeywords = []string{
	"urgent", "asap", "deadline", "client", "exam",
	"pay", "bill", "meeting", "important", "submit",
}

// Weights holds all scoring constants for the urgency pipeline.
// The zero value is not usable; start from DefaultWeights.
type Weights struct {
	// Priority base points.
	PriorityHigh   int `json:"priority_high"`   // default: 40
	PriorityMedium int `json:"priority_medium"` // default: 25
	PriorityLow    int `json:"priority_low"`    // default: 10

	// Due-date urgency points, bucketed by whole days until the due date.
	DueToday    int `json:"due_today"`     // due today or overdue (default: 50)
	DueTomorrow int `json:"due_tomorrow"`  // due exactly tomorrow (default: 35)
	DueThisWeek int `json:"due_this_week"` // due in 2-7 days (default: 15)

	// Keyword boost per distinct match and its saturation cap.
	KeywordBoost    int `json:"keyword_boost"`     // default: 8
	KeywordBoostCap int `json:"keyword_boost_cap"` // default: 20

	// FinanceBoost is added for finance-category tasks.
	FinanceBoost int `json:"finance_boost"` // default: 8

	// LocalScoreCap bounds the total local score.
	LocalScoreCap int `json:"local_score_cap"` // default: 200

	// Blend weights for the final score. The local signal is weighted
	// higher than the AI signal: the AI is a refinement, not the driver.
	Alpha float64 `json:"alpha"` // local weight (default: 0.6)
	Beta  float64 `json:"beta"`  // AI weight (default: 0.4)

	// FallbackAIScore is assigned uniformly when the ranking service fails.
	FallbackAIScore int `json:"fallback_ai_score"` // default: 50

	// CandidateLimit bounds the batch sent to the ranking service.
	CandidateLimit int `json:"candidate_limit"` // default: 12

	// ResultLimit bounds the final ranked output.
	ResultLimit int `json:"result_limit"` // default: 6
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight overrides
}

// DefaultWeights returns the default scoring configuration.
//
// Local score formula (capped at 200):
//
//	priority base (high 40 / medium 25 / low 10)
//	+ due-date bucket (today-or-overdue 50 / tomorrow 35 / within a week 15)
//	+ 8 per distinct urgency keyword, capped at 20
//	+ 8 for finance-category tasks
//
// Final score formula: round(0.6 * localNorm + 0.4 * aiScore), where
// localNorm is the local score normalized to 0-100 against the batch max.
func DefaultWeights() *Weights {
	return &Weights{
		PriorityHigh:    40,
		PriorityMedium:  25,
		PriorityLow:     10,
		DueToday:        50,
		DueTomorrow:     35,
		DueThisWeek:     15,
		KeywordBoost:    8,
		KeywordBoostCap: 20,
		FinanceBoost:    8,
		LocalScoreCap:   200,
		Alpha:           0.6,
		Beta:            0.4,
		FallbackAIScore: 50,
		CandidateLimit:  12,
		ResultLimit:     6,
	}
}

// Keywords returns a copy of the urgency keyword set.
func Keywords() []string {
	result := make([]string, len(urgencyKeywords))
	copy(result, urgencyKeywords)
	return result
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// If the path is empty, defaults are returned. If the file cannot be read
// or parsed, defaults are returned together with the error so the caller
// can degrade gracefully. Partial configurations are merged with defaults.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read urgency calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse urgency calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := MergeCalibration(DefaultWeights(), &config.Weights)
	slog.Info("loaded urgency calibration",
		"path", filePath,
		"version", config.Version,
		"alpha", merged.Alpha,
		"beta", merged.Beta,
		"candidate_limit", merged.CandidateLimit,
		"result_limit", merged.ResultLimit)

	return merged, nil
}

// MergeCalibration merges override weights onto base weights.
// Only non-zero override values are applied, allowing partial overrides
// in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	if override.PriorityHigh != 0 {
		result.PriorityHigh = override.PriorityHigh
	}
	if override.PriorityMedium != 0 {
		result.PriorityMedium = override.PriorityMedium
	}
	if override.PriorityLow != 0 {
		result.PriorityLow = override.PriorityLow
	}
	if override.DueToday != 0 {
		result.DueToday = override.DueToday
	}
	if override.DueTomorrow != 0 {
		result.DueTomorrow = override.DueTomorrow
	}
	if override.DueThisWeek != 0 {
		result.DueThisWeek = override.DueThisWeek
	}
	if override.KeywordBoost != 0 {
		result.KeywordBoost = override.KeywordBoost
	}
	if override.KeywordBoostCap != 0 {
		result.KeywordBoostCap = override.KeywordBoostCap
	}
	if override.FinanceBoost != 0 {
		result.FinanceBoost = override.FinanceBoost
	}
	if override.LocalScoreCap != 0 {
		result.LocalScoreCap = override.LocalScoreCap
	}
	if override.Alpha != 0 {
		result.Alpha = override.Alpha
	}
	if override.Beta != 0 {
		result.Beta = override.Beta
	}
	if override.FallbackAIScore != 0 {
		result.FallbackAIScore = override.FallbackAIScore
	}
	if override.CandidateLimit != 0 {
		result.CandidateLimit = override.CandidateLimit
	}
	if override.ResultLimit != 0 {
		result.ResultLimit = override.ResultLimit
	}

	return &result
}

// Validate checks that the weights form a usable configuration.
// Returns an error describing the first problem found.
func (w *Weights) Validate() error {
	if w.Alpha < 0 || w.Beta < 0 {
		return fmt.Errorf("blend weights must be non-negative (alpha=%.2f, beta=%.2f)", w.Alpha, w.Beta)
	}
	if w.Alpha+w.Beta == 0 {
		return fmt.Errorf("at least one blend weight must be positive")
	}
	if w.FallbackAIScore < 0 || w.FallbackAIScore > 100 {
		return fmt.Errorf("fallback AI score must be in [0,100] (got %d)", w.FallbackAIScore)
	}
	if w.CandidateLimit <= 0 {
		return fmt.Errorf("candidate limit must be > 0 (got %d)", w.CandidateLimit)
	}
	if w.ResultLimit <= 0 {
		return fmt.Errorf("result limit must be > 0 (got %d)", w.ResultLimit)
	}
	if w.LocalScoreCap <= 0 {
		return fmt.Errorf("local score cap must be > 0 (got %d)", w.LocalScoreCap)
	}
	return nil
}
