package urgency

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCalibration_EmptyPath(t *testing.T) {
	w, err := LoadCalibration("")
	if err != nil {
		t.Fatalf("LoadCalibration() error = %v", err)
	}
	if *w != *DefaultWeights() {
		t.Errorf("expected defaults for empty path, got %+v", w)
	}
}

func TestLoadCalibration_MissingFile(t *testing.T) {
	w, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if *w != *DefaultWeights() {
		t.Errorf("expected defaults on read failure, got %+v", w)
	}
}

func TestLoadCalibration_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := LoadCalibration(path)
	if err == nil {
		t.Error("expected error for malformed JSON")
	}
	if *w != *DefaultWeights() {
		t.Errorf("expected defaults on parse failure, got %+v", w)
	}
}

func TestLoadCalibration_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	content := `{
		"version": "2026-03",
		"weights": {
			"priority_high": 45,
			"alpha": 0.7,
			"beta": 0.3
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration() error = %v", err)
	}

	if w.PriorityHigh != 45 {
		t.Errorf("expected overridden PriorityHigh=45, got %d", w.PriorityHigh)
	}
	if w.Alpha != 0.7 || w.Beta != 0.3 {
		t.Errorf("expected overridden blend 0.7/0.3, got %.1f/%.1f", w.Alpha, w.Beta)
	}
	// Untouched fields keep their defaults.
	if w.PriorityMedium != 25 || w.CandidateLimit != 12 || w.ResultLimit != 6 {
		t.Errorf("expected default values for untouched fields, got %+v", w)
	}
}

func TestMergeCalibration(t *testing.T) {
	base := DefaultWeights()

	t.Run("nil base falls back to defaults", func(t *testing.T) {
		got := MergeCalibration(nil, &Weights{PriorityHigh: 99})
		if *got != *DefaultWeights() {
			t.Errorf("expected defaults, got %+v", got)
		}
	})

	t.Run("nil override copies base", func(t *testing.T) {
		got := MergeCalibration(base, nil)
		if *got != *base {
			t.Errorf("expected base copy, got %+v", got)
		}
		if got == base {
			t.Error("expected a copy, got the same pointer")
		}
	})

	t.Run("zero values do not override", func(t *testing.T) {
		got := MergeCalibration(base, &Weights{})
		if *got != *base {
			t.Errorf("expected base unchanged by zero override, got %+v", got)
		}
	})
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Weights)
		wantErr bool
	}{
		{"defaults are valid", func(w *Weights) {}, false},
		{"negative alpha", func(w *Weights) { w.Alpha = -0.1 }, true},
		{"zero blend", func(w *Weights) { w.Alpha = 0; w.Beta = 0 }, true},
		{"fallback score above range", func(w *Weights) { w.FallbackAIScore = 101 }, true},
		{"zero candidate limit", func(w *Weights) { w.CandidateLimit = 0 }, true},
		{"zero result limit", func(w *Weights) { w.ResultLimit = 0 }, true},
		{"zero local cap", func(w *Weights) { w.LocalScoreCap = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.mutate(w)
			err := w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKeywords_ReturnsCopy(t *testing.T) {
	kws := Keywords()
	if len(kws) != 10 {
		t.Fatalf("expected 10 keywords, got %d", len(kws))
	}
	kws[0] = "mutated"
	if Keywords()[0] == "mutated" {
		t.Error("Keywords() leaked the internal slice")
	}
}
