package tutor

import (
	"strings"

	"github.com/lumilearn/tutor-backend/internal/model"
)

// slowResponseMs marks a response time suggesting the student is stuck.
const slowResponseMs = 45000

// EmotionalContext renders client-reported emotional signals into prompt
// context for the tutor model. Returns "" when nothing is noteworthy.
func EmotionalContext(s *model.EmotionalSignals) string {
	if s == nil {
		return ""
	}
	var lines []string
	if s.ResponseTimeMs > slowResponseMs {
		lines = append(lines, "- The student took a long time to answer; they may be stuck or unsure.")
	}
	if s.ConsecutiveErrors >= 2 {
		lines = append(lines, "- The student has made several mistakes in a row; be extra gentle and encouraging.")
	}
	if s.ConfidenceLevel == "low" {
		lines = append(lines, "- The student reports low confidence; reassure them before correcting.")
	}
	if s.StrugglingPattern {
		lines = append(lines, "- The student shows a struggling pattern; simplify the next explanation.")
	}
	return strings.Join(lines, "\n")
}
