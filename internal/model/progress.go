package model

import "time"

// ProgressStatus enumerates ledger states for a progress item. Sections move
// pending → in_progress → completed; the per-topic aggregate row
// (<topic>_tutor_session) additionally uses mastered once every section of
// the topic is completed.
type ProgressStatus string

const (
	ProgressPending    ProgressStatus = "pending"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressMastered   ProgressStatus = "mastered"
)

// CompletionReason records why a section was marked completed. A section can
// complete because the student answered correctly, or because the retry
// budget was exhausted and the tutor moved on. Downstream mastery reporting
// must not treat the two alike.
type CompletionReason string

const (
	CompletionSolved    CompletionReason = "solved"
	CompletionExhausted CompletionReason = "exhausted"
)

// SectionProgress is one ledger row: the status of a single progress item
// (curriculum section, practice problem, or topic aggregate) for a student.
// AttemptsInSection is the authoritative attempt counter for the section;
// the turn log is an audit trail, not the source of truth.
type SectionProgress struct {
	StudentID         int               `json:"student_id"`
	ItemID            string            `json:"item_id"`
	Status            ProgressStatus    `json:"status"`
	AttemptsInSection int               `json:"attempts_in_section"`
	CompletionReason  *CompletionReason `json:"completion_reason,omitempty"`
	LastAttemptAt     *time.Time        `json:"last_attempt_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TutorSessionItemID returns the ledger key of the per-topic aggregate row.
func TutorSessionItemID(topic string) string {
	return topic + "_tutor_session"
}
