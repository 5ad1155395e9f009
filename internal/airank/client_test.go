package airank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var sampleTasks = []TaskPayload{
	{ID: "t1", Title: "Pay electricity bill", DueDate: "2026-03-10", Priority: "high", Category: "finance"},
	{ID: "t2", Title: "Read a chapter", Priority: "low", Category: "learning"},
}

func TestClient_Rank_Success(t *testing.T) {
	var gotAuth string
	var gotBody rankRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"rankings": []map[string]any{
				{"id": "t1", "ai_score": 90, "reason": "bill due imminently"},
				{"id": "t2", "ai_score": 20},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key", server.Client())
	rankings, err := client.Rank(context.Background(), sampleTasks)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if gotAuth != "Bearer secret-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if len(gotBody.Tasks) != 2 {
		t.Errorf("expected 2 tasks in request, got %d", len(gotBody.Tasks))
	}
	if len(rankings) != 2 {
		t.Fatalf("expected 2 rankings, got %d", len(rankings))
	}
	if rankings[0].ID != "t1" || rankings[0].AIScore != 90 || rankings[0].Reason != "bill due imminently" {
		t.Errorf("unexpected first ranking: %+v", rankings[0])
	}
}

func TestClient_Rank_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client())
	_, err := client.Rank(context.Background(), sampleTasks)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestClient_Rank_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "rankings": [`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client())
	_, err := client.Rank(context.Background(), sampleTasks)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestClient_Rank_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Rank(ctx, sampleTasks)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestValidateResponse(t *testing.T) {
	score := func(id string, s int) *Ranking {
		return &Ranking{ID: id, AIScore: s}
	}

	tests := []struct {
		name    string
		resp    rankResponse
		wantErr bool
	}{
		{
			name:    "valid",
			resp:    rankResponse{Success: true, Rankings: []*Ranking{score("t1", 0), score("t2", 100)}},
			wantErr: false,
		},
		{
			name:    "empty rankings array is valid",
			resp:    rankResponse{Success: true, Rankings: []*Ranking{}},
			wantErr: false,
		},
		{
			name:    "success flag not set",
			resp:    rankResponse{Success: false, Rankings: []*Ranking{score("t1", 50)}},
			wantErr: true,
		},
		{
			name:    "missing rankings array",
			resp:    rankResponse{Success: true, Rankings: nil},
			wantErr: true,
		},
		{
			name:    "null entry",
			resp:    rankResponse{Success: true, Rankings: []*Ranking{nil}},
			wantErr: true,
		},
		{
			name:    "empty id",
			resp:    rankResponse{Success: true, Rankings: []*Ranking{score("", 50)}},
			wantErr: true,
		},
		{
			name:    "score below range",
			resp:    rankResponse{Success: true, Rankings: []*Ranking{score("t1", -1)}},
			wantErr: true,
		},
		{
			name:    "score above range",
			resp:    rankResponse{Success: true, Rankings: []*Ranking{score("t1", 101)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateResponse(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("expected ErrInvalidResponse sentinel, got %v", err)
			}
		})
	}
}

func TestSlowRanker_RespectsContext(t *testing.T) {
	slow := &SlowRanker{
		Ranker: &StaticRanker{Scores: map[string]int{"t1": 80}},
		Delay:  time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := slow.Rank(ctx, []TaskPayload{{ID: "t1", Title: "x", Priority: "high", Category: "work"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}
