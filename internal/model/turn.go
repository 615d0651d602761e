package model

import "time"

// Sender identifies which party produced a conversation turn.
type Sender string

const (
	SenderStudent Sender = "student"
	SenderTutor   Sender = "tutor"
)

// Turn is one conversation exchange entry. The section_id tags which
// curriculum section the turn was produced against; attempt reconstruction
// from a conversation window counts student turns by this tag.
type Turn struct {
	ID        int64     `json:"id,omitempty"`
	StudentID int       `json:"student_id"`
	SectionID string    `json:"section_id"`
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// EmotionalSignals carries client-observed affect hints forwarded into the
// tutor's prompt context. All fields are optional.
type EmotionalSignals struct {
	ResponseTimeMs    int64  `json:"response_time_ms,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	ConfidenceLevel   string `json:"confidence_level,omitempty" binding:"omitempty,oneof=low medium high"`
	StrugglingPattern bool   `json:"struggling_pattern,omitempty"`
}

// ChatRequest is the payload for one tutoring turn.
type ChatRequest struct {
	StudentAnswer string            `json:"student_answer" binding:"required,min=1,max=2000"`
	Emotional     *EmotionalSignals `json:"emotional_intelligence,omitempty"`
}
