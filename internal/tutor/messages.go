package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumilearn/tutor-backend/internal/curriculum"
	"github.com/lumilearn/tutor-backend/internal/model"
)

const tutorSystem = "You are a patient, encouraging math tutor for primary school students. Keep responses short, warm, and age-appropriate."

// RenderSectionEntry renders the message shown when a student enters a
// section, with an optional intro prepended. Worked examples demonstrate a
// full solution before posing the student's own question; every other type
// is teaching text followed by the bolded question.
func RenderSectionEntry(sec *curriculum.Section, intro string) string {
	var b strings.Builder
	b.WriteString(intro)

	if sec.Type == curriculum.SectionWorkedExample {
		b.WriteString(sec.Text)
		b.WriteString("\n\n**Problem:** ")
		b.WriteString(sec.DemonstrationProblem)
		b.WriteString("\n\n**Solution:**\n")
		for _, step := range sec.SolutionSteps {
			b.WriteString(step)
			b.WriteString("\n")
		}
		b.WriteString("\n**Answer:** ")
		b.WriteString(sec.DemonstrationAnswer)
		b.WriteString("\n\nNow it's your turn! **")
		b.WriteString(sec.Question)
		b.WriteString("**")
		return b.String()
	}

	b.WriteString(sec.Text)
	b.WriteString(" **")
	b.WriteString(sec.Question)
	b.WriteString("**")
	return b.String()
}

// TerminalMessage is shown once the last section of a topic is completed.
func TerminalMessage(topic string) string {
	return fmt.Sprintf("Excellent work! You've completed all the %s sections. You're now ready for practice problems!", topic)
}

// correctTransition celebrates a correct answer and presents the next
// section. Generation failure fails the turn: a completed section with no
// transition message would leave the student stranded.
func (e *Engine) correctTransition(ctx context.Context, cur *curriculum.Section, nextID string) (string, error) {
	next, ok := e.nav.Section(nextID)
	if !ok {
		// No successor: the topic is finished.
		return TerminalMessage(e.topic), nil
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "A student just answered correctly: %q\n\n", cur.Question)
	if next.StepOrdinal > cur.StepOrdinal {
		fmt.Fprintf(&prompt, "They are moving from step %d to step %d of the %s topic. Write one short, enthusiastic sentence congratulating them on finishing the step and welcoming them to the next one.", cur.StepOrdinal, next.StepOrdinal, e.topic)
	} else {
		prompt.WriteString("Write one short, enthusiastic sentence of encouragement before they continue to the next part.")
	}

	encouragement, err := e.gen.Generate(ctx, tutorSystem, prompt.String())
	if err != nil {
		return "", fmt.Errorf("transition message: %w", err)
	}
	return encouragement + "\n\n" + RenderSectionEntry(next, ""), nil
}

// explainAndAdvance handles an exhausted retry budget: the correct answer is
// explained and the student is moved to the next section anyway.
func (e *Engine) explainAndAdvance(ctx context.Context, cur *curriculum.Section, nextID string) (string, error) {
	next, hasNext := e.nav.Section(nextID)

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "A student could not solve this after several tries: %q\n\n", cur.Question)
	fmt.Fprintf(&prompt, "The explanation of the correct approach is:\n%s\n\n", cur.DetailedExplanation)
	switch {
	case !hasNext:
		prompt.WriteString("Write a kind, supportive message that walks through the explanation, reassures them that this topic takes practice, and congratulates them on working through all the material.")
	case next.Type == curriculum.SectionCompletion:
		prompt.WriteString("Write a kind, supportive message that walks through the explanation and reassures them. Do not mention moving on.")
	default:
		prompt.WriteString("Write a kind, supportive message that walks through the explanation, reassures them, and gently notes you are moving to the next part together.")
	}

	explanation, err := e.gen.Generate(ctx, tutorSystem, prompt.String())
	if err != nil {
		return "", fmt.Errorf("explanation message: %w", err)
	}
	if !hasNext {
		return explanation, nil
	}
	return explanation + "\n\n" + RenderSectionEntry(next, ""), nil
}

// reassureAndAdvance handles a recognized negative answer on a completion
// section: the student says they are not ready, so reassure them, restate
// the key idea, and advance anyway. Generation degrades to a templated
// message because a reassurance is decorative, not load-bearing.
func (e *Engine) reassureAndAdvance(ctx context.Context, cur *curriculum.Section, nextID string) (string, error) {
	next, hasNext := e.nav.Section(nextID)

	var prompt strings.Builder
	prompt.WriteString("A student said they do not feel ready to move on yet.\n\n")
	fmt.Fprintf(&prompt, "The key idea of what they just studied is:\n%s\n\n", cur.DetailedExplanation)
	prompt.WriteString("Write one short, warm message that reassures them it is normal to feel unsure, restates the key idea simply, and encourages them that practicing the next part will build confidence.")

	msg, err := e.gen.Generate(ctx, tutorSystem, prompt.String())
	if err != nil {
		msg = fmt.Sprintf("That's perfectly fine! Feeling unsure is part of learning. Remember: %s Let's keep going and build your confidence together.", cur.DetailedExplanation)
	}
	if !hasNext {
		return msg + "\n\n" + TerminalMessage(e.topic), nil
	}
	return msg + "\n\n" + RenderSectionEntry(next, ""), nil
}

// hint composes the retry message for an incorrect answer. Generation
// failure degrades to a templated hint so a flaky model never blocks a
// retry.
func (e *Engine) hint(ctx context.Context, answer string, sec *curriculum.Section, window []model.Turn, signals *model.EmotionalSignals) string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "A student answered %q to the question %q, which is incorrect.\n\n", answer, sec.Question)
	fmt.Fprintf(&prompt, "The correct approach is:\n%s\n\n", sec.DetailedExplanation)

	if ctxt := EmotionalContext(signals); ctxt != "" {
		prompt.WriteString("Student state:\n")
		prompt.WriteString(ctxt)
		prompt.WriteString("\n")
	}
	if m := AnalyzeMisconceptions(answer, lastTutorMessage(window)); len(m.Interventions) > 0 {
		prompt.WriteString("Likely misconception guidance:\n")
		for _, iv := range m.Interventions {
			prompt.WriteString("- ")
			prompt.WriteString(iv)
			prompt.WriteString("\n")
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Write a short, encouraging hint that nudges them toward the right approach without giving the full answer, then invite them to try again.")

	msg, err := e.gen.Generate(ctx, tutorSystem, prompt.String())
	if err != nil {
		return fmt.Sprintf("That's not quite right, but good try! Here's a hint: %s Can you try again?", truncate(sec.DetailedExplanation, 100))
	}
	return msg
}

func lastTutorMessage(window []model.Turn) string {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Sender == model.SenderTutor {
			return window[i].Message
		}
	}
	return ""
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
