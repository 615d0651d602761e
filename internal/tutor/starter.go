package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumilearn/tutor-backend/internal/model"
)

// resumeWindow is how many trailing turns a resume greeting summarizes.
const resumeWindow = 4

// ConversationStarter returns the opening tutor message for a fresh session
// along with the section the student should work on. An empty section ID
// means every section is already completed.
func (e *Engine) ConversationStarter(progress map[string]model.ProgressStatus) (string, string) {
	current := e.nav.CurrentSectionFor(progress)
	if current == "" {
		return TerminalMessage(e.topic), ""
	}
	sec, _ := e.nav.Section(current)
	intro := fmt.Sprintf("Hi! I'm your %s tutor. ", e.topic)
	return RenderSectionEntry(sec, intro), current
}

// ResumeMessage greets a student returning mid-topic with a recap of where
// they left off. Resume is a deliberate re-entry point, so a generation
// failure fails the request rather than degrading to a canned greeting.
func (e *Engine) ResumeMessage(ctx context.Context, history []model.Turn, currentSectionID string) (string, error) {
	sec, ok := e.nav.Section(currentSectionID)
	if !ok {
		return "", fmt.Errorf("%w: %q in topic %q", ErrUnknownSection, currentSectionID, e.topic)
	}

	var recent strings.Builder
	start := len(history) - resumeWindow
	if start < 0 {
		start = 0
	}
	for _, t := range history[start:] {
		fmt.Fprintf(&recent, "%s: %s\n", t.Sender, t.Message)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "A student is returning to their %s lesson. Their recent conversation was:\n%s\n", e.topic, recent.String())
	fmt.Fprintf(&prompt, "They are currently working on this question: %q\n\n", sec.Question)
	prompt.WriteString("Write a short, warm welcome-back message that recaps where they left off and repeats the current question in bold.")

	msg, err := e.gen.Generate(ctx, tutorSystem, prompt.String())
	if err != nil {
		return "", fmt.Errorf("resume message: %w", err)
	}
	return msg, nil
}

// PracticeReviewMessage greets a student who already finished the topic and
// is back for review.
func (e *Engine) PracticeReviewMessage(ctx context.Context, solved, exhausted int) (string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "A student has completed every section of the %s topic: %d solved on their own and %d explained to them.\n\n", e.topic, solved, exhausted)
	prompt.WriteString("Write a short, celebratory message inviting them to review the material or try practice problems.")

	msg, err := e.gen.Generate(ctx, tutorSystem, prompt.String())
	if err != nil {
		return "", fmt.Errorf("practice review message: %w", err)
	}
	return msg, nil
}
