package model

// TurnOutcome is one judged chat turn, queued for asynchronous persistence.
// The worker applies it to the turn log and the progress ledger in a single
// transaction, so a crash mid-write never records half a turn.
type TurnOutcome struct {
	StudentID        int               `json:"student_id"`
	Topic            string            `json:"topic"`
	SectionID        string            `json:"section_id"`
	StudentMessage   string            `json:"student_message"`
	TutorMessage     string            `json:"tutor_message"`
	SectionCompleted bool              `json:"section_completed"`
	CompletionReason *CompletionReason `json:"completion_reason,omitempty"`
	AttemptCount     int               `json:"attempt_count"`
	NextSectionID    string            `json:"next_section_id,omitempty"`
	TopicFinished    bool              `json:"topic_finished"`
}
