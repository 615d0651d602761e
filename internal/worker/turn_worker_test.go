package worker

import (
	"testing"
	"time"

	"github.com/lumilearn/tutor-backend/internal/model"
)

func TestSectionRow(t *testing.T) {
	now := time.Now()
	exhausted := model.CompletionExhausted

	tests := []struct {
		name       string
		outcome    model.TurnOutcome
		wantStatus model.ProgressStatus
		wantReason *model.CompletionReason
	}{
		{
			name: "retry keeps in_progress",
			outcome: model.TurnOutcome{
				StudentID:    7,
				SectionID:    "frac_s1_001",
				AttemptCount: 2,
			},
			wantStatus: model.ProgressInProgress,
		},
		{
			name: "completed carries reason",
			outcome: model.TurnOutcome{
				StudentID:        7,
				SectionID:        "frac_s1_001",
				SectionCompleted: true,
				CompletionReason: &exhausted,
				AttemptCount:     3,
			},
			wantStatus: model.ProgressCompleted,
			wantReason: &exhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := sectionRow(&tt.outcome, now)
			if row.ItemID != tt.outcome.SectionID {
				t.Errorf("ItemID = %q, want %q", row.ItemID, tt.outcome.SectionID)
			}
			if row.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", row.Status, tt.wantStatus)
			}
			if row.AttemptsInSection != tt.outcome.AttemptCount {
				t.Errorf("AttemptsInSection = %d, want %d", row.AttemptsInSection, tt.outcome.AttemptCount)
			}
			if (row.CompletionReason == nil) != (tt.wantReason == nil) {
				t.Fatalf("CompletionReason = %v, want %v", row.CompletionReason, tt.wantReason)
			}
			if tt.wantReason != nil && *row.CompletionReason != *tt.wantReason {
				t.Errorf("CompletionReason = %q, want %q", *row.CompletionReason, *tt.wantReason)
			}
		})
	}
}

func TestAggregateRowMastered(t *testing.T) {
	now := time.Now()
	solved := model.CompletionSolved

	unfinished := model.TurnOutcome{
		StudentID:        7,
		Topic:            "fractions",
		SectionID:        "frac_s1_001",
		SectionCompleted: true,
		CompletionReason: &solved,
		NextSectionID:    "frac_s1_002",
	}
	if row := aggregateRow(&unfinished, now); row != nil {
		t.Fatalf("aggregateRow = %+v, want nil for unfinished topic", row)
	}

	finished := unfinished
	finished.SectionID = "frac_s2_001"
	finished.NextSectionID = ""
	finished.TopicFinished = true

	row := aggregateRow(&finished, now)
	if row == nil {
		t.Fatal("aggregateRow returned nil for finished topic")
	}
	if row.ItemID != model.TutorSessionItemID("fractions") {
		t.Errorf("ItemID = %q, want %q", row.ItemID, model.TutorSessionItemID("fractions"))
	}
	if row.Status != model.ProgressMastered {
		t.Errorf("Status = %q, want %q", row.Status, model.ProgressMastered)
	}
	if row.CompletionReason != nil {
		t.Errorf("CompletionReason = %q, want nil", *row.CompletionReason)
	}
}

func TestAggregateRowMasteredAfterExhaustedFinal(t *testing.T) {
	now := time.Now()
	exhausted := model.CompletionExhausted

	o := model.TurnOutcome{
		StudentID:        7,
		Topic:            "fractions",
		SectionID:        "frac_s2_001",
		SectionCompleted: true,
		CompletionReason: &exhausted,
		TopicFinished:    true,
	}

	row := aggregateRow(&o, now)
	if row == nil {
		t.Fatal("aggregateRow returned nil for finished topic")
	}
	if row.Status != model.ProgressMastered {
		t.Errorf("Status = %q, want %q", row.Status, model.ProgressMastered)
	}
	if row.CompletionReason != nil {
		t.Errorf("CompletionReason = %q, want nil", *row.CompletionReason)
	}
}
