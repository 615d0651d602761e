package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lumilearn/tutor-backend/internal/curriculum"
	"github.com/lumilearn/tutor-backend/internal/model"
)

func TestRenderSectionEntryRegular(t *testing.T) {
	sec := &curriculum.Section{
		Type:     curriculum.SectionRegular,
		Text:     "A fraction names part of a whole.",
		Question: "What is half of 8?",
	}

	got := RenderSectionEntry(sec, "")
	want := "A fraction names part of a whole. **What is half of 8?**"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got = RenderSectionEntry(sec, "Hi! I'm your fractions tutor. ")
	if !strings.HasPrefix(got, "Hi! I'm your fractions tutor. A fraction") {
		t.Errorf("intro not prepended: %q", got)
	}
}

func TestRenderSectionEntryWorkedExample(t *testing.T) {
	topic := testTopic()
	sec := &topic.Steps[0].Sections[1]

	got := RenderSectionEntry(sec, "")
	want := "Watch how division by a fraction works.\n\n" +
		"**Problem:** 3 ÷ 1/3\n\n" +
		"**Solution:**\n" +
		"Step 1: Ask how many thirds fit into 3.\n" +
		"Step 2: Each whole holds 3 thirds.\n" +
		"Step 3: 3 wholes hold 3 × 3 = 9 thirds.\n\n" +
		"**Answer:** 9\n\n" +
		"Now it's your turn! **What is 4 ÷ 1/2?**"
	if got != want {
		t.Errorf("worked example render mismatch:\ngot  %q\nwant %q", got, want)
	}
}

func TestConversationStarter(t *testing.T) {
	e := newTestEngine(&fakeEval{}, &fakeGen{})

	msg, current := e.ConversationStarter(nil)
	if current != "frac_s1_001" {
		t.Errorf("current = %q, want first section", current)
	}
	if !strings.HasPrefix(msg, "Hi! I'm your fractions tutor. ") {
		t.Errorf("message missing intro: %q", msg)
	}

	progress := map[string]model.ProgressStatus{
		"frac_s1_001": model.ProgressCompleted,
	}
	_, current = e.ConversationStarter(progress)
	if current != "frac_s1_002" {
		t.Errorf("current = %q, want resume at first incomplete section", current)
	}

	for _, id := range e.Navigator().AllSectionIDs() {
		progress[id] = model.ProgressCompleted
	}
	msg, current = e.ConversationStarter(progress)
	if current != "" {
		t.Errorf("current = %q, want empty when all sections done", current)
	}
	if msg != TerminalMessage("fractions") {
		t.Errorf("message = %q, want terminal message", msg)
	}
}

func TestResumeMessage(t *testing.T) {
	gen := &fakeGen{text: "Welcome back!"}
	e := newTestEngine(&fakeEval{}, gen)

	history := []model.Turn{
		{Sender: model.SenderTutor, SectionID: "frac_s1_001", Message: "old turn dropped"},
		{Sender: model.SenderStudent, SectionID: "frac_s1_001", Message: "16"},
		{Sender: model.SenderTutor, SectionID: "frac_s1_001", Message: "hint one"},
		{Sender: model.SenderStudent, SectionID: "frac_s1_001", Message: "12"},
		{Sender: model.SenderTutor, SectionID: "frac_s1_001", Message: "hint two"},
	}

	msg, err := e.ResumeMessage(context.Background(), history, "frac_s1_001")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "Welcome back!" {
		t.Errorf("message = %q", msg)
	}

	prompt := gen.prompts[0]
	if strings.Contains(prompt, "old turn dropped") {
		t.Error("prompt must only include the trailing turns")
	}
	if !strings.Contains(prompt, "hint two") {
		t.Error("prompt missing the most recent turn")
	}
	if !strings.Contains(prompt, "What is half of 8?") {
		t.Error("prompt missing the current question")
	}
}

func TestResumeMessageFailurePropagates(t *testing.T) {
	gen := &fakeGen{err: errors.New("model down")}
	e := newTestEngine(&fakeEval{}, gen)

	if _, err := e.ResumeMessage(context.Background(), nil, "frac_s1_001"); err == nil {
		t.Fatal("resume generation failure must propagate")
	}
	if _, err := e.ResumeMessage(context.Background(), nil, "bogus"); !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("err = %v, want ErrUnknownSection", err)
	}
}

func TestEmotionalContext(t *testing.T) {
	if got := EmotionalContext(nil); got != "" {
		t.Errorf("nil signals must produce empty context, got %q", got)
	}
	if got := EmotionalContext(&model.EmotionalSignals{ResponseTimeMs: 1000}); got != "" {
		t.Errorf("unremarkable signals must produce empty context, got %q", got)
	}

	got := EmotionalContext(&model.EmotionalSignals{
		ResponseTimeMs:    60000,
		ConsecutiveErrors: 3,
		ConfidenceLevel:   "low",
		StrugglingPattern: true,
	})
	for _, want := range []string{"long time", "mistakes in a row", "low confidence", "struggling pattern"} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q: %q", want, got)
		}
	}
}

func TestAnalyzeMisconceptions(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		lastTutor string
		want      []string
		risk      string
	}{
		{
			name:      "multiply when dividing",
			answer:    "I multiply them together",
			lastTutor: "Divide 4 by 1/2. What do you get?",
			want:      []string{"confusing_operations"},
			risk:      "medium",
		},
		{
			name:      "flip the wrong fraction",
			answer:    "flip the first one",
			lastTutor: "What is 4 ÷ 1/2?",
			want:      []string{"reciprocal_confusion"},
			risk:      "medium",
		},
		{
			name:      "multiply without division context",
			answer:    "times 2",
			lastTutor: "What is half of 8?",
			risk:      "low",
		},
		{
			name:   "clean wrong answer",
			answer: "16",
			risk:   "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := AnalyzeMisconceptions(tt.answer, tt.lastTutor)
			if len(m.Detected) != len(tt.want) {
				t.Fatalf("detected = %v, want %v", m.Detected, tt.want)
			}
			for i := range tt.want {
				if m.Detected[i] != tt.want[i] {
					t.Errorf("detected[%d] = %q, want %q", i, m.Detected[i], tt.want[i])
				}
			}
			if m.RiskLevel != tt.risk {
				t.Errorf("risk = %q, want %q", m.RiskLevel, tt.risk)
			}
			if len(m.Interventions) != len(m.Detected) {
				t.Errorf("each detection needs an intervention, got %d for %d", len(m.Interventions), len(m.Detected))
			}
		})
	}
}
