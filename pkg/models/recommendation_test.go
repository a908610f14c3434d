package models

import (
	"testing"
	"time"
)

func TestRecommendationSet_Find(t *testing.T) {
	set := &RecommendationSet{
		Recommendations: []Recommendation{
			{ID: "a", Title: "first"},
			{ID: "b", Title: "second"},
		},
		Timestamp: time.Now(),
	}

	r, ok := set.Find("b")
	if !ok || r.Title != "second" {
		t.Fatalf("Find(b) = %+v, %v", r, ok)
	}

	if _, ok := set.Find("missing"); ok {
		t.Error("Find(missing) should not succeed")
	}

	var nilSet *RecommendationSet
	if _, ok := nilSet.Find("a"); ok {
		t.Error("Find on nil set should not succeed")
	}
	if nilSet.Len() != 0 {
		t.Error("nil set should have zero length")
	}
}

func TestRecommendationSet_IDs(t *testing.T) {
	set := &RecommendationSet{
		Recommendations: []Recommendation{{ID: "x"}, {ID: "y"}, {ID: "z"}},
	}

	ids := set.IDs()
	want := []string{"x", "y", "z"}
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestProgressStatus_StringValues(t *testing.T) {
	tests := []struct {
		status ProgressStatus
		want   string
	}{
		{ProgressNotStarted, "not_started"},
		{ProgressCompleted, "completed"},
		{ProgressFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if string(tt.status) != tt.want {
				t.Errorf("string(ProgressStatus) = %q, want %q", tt.status, tt.want)
			}
			if !tt.status.Valid() {
				t.Errorf("%q should be valid", tt.status)
			}
		})
	}

	if ProgressStatus("running").Valid() {
		t.Error("running is not a persisted status")
	}
}

func TestExecutionResult_Failed(t *testing.T) {
	if (ExecutionResult{Kind: ResultSuccess}).Failed() {
		t.Error("success result reported as failed")
	}
	if !(ExecutionResult{Kind: ResultError}).Failed() {
		t.Error("error result not reported as failed")
	}
	if ResultKind("partial").Valid() {
		t.Error("unknown kind should be invalid")
	}
}
