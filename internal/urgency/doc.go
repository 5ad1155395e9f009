// Package urgency implements the hybrid urgency-ranking engine behind the
// dashboard's "Urgent Tasks" list.
//
// The engine is a single-shot pipeline over a fresh task snapshot:
//
//	// Wire once at startup
//	engine := urgency.NewEngine(urgency.EngineConfig{
//		Tasks:   taskRepo,
//		Ranker:  airank.NewClient(cfg.AIRankURL, cfg.AIAPIKey, nil),
//		Weights: weights,
//	})
//
//	// Per request
//	ranked, err := engine.RankUrgentTasks(ctx, userID, time.Now())
//
// Stage one computes a deterministic local score per task (priority base,
// due-date proximity, keyword matches, category weight) and keeps the top
// candidates. Stage two asks the external ranking service for a 0-100
// importance score per candidate; any failure there degrades to a uniform
// fallback score and never surfaces to the caller. Stage three normalizes
// the local scores against the batch maximum, blends the two signals with
// fixed weights, and returns the top entries in stable descending order.
//
// Calibration:
//
// All scoring constants live in Weights and can be overridden at deploy
// time via a JSON calibration file loaded at startup. See LoadCalibration.
// Identical task snapshots, an identical "now", and a deterministic ranker
// always produce identical ordered output.
package urgency
