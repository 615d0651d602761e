package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lumilearn/tutor-backend/internal/curriculum"
	"github.com/lumilearn/tutor-backend/internal/model"
	"github.com/lumilearn/tutor-backend/internal/oracle"
)

type fakeEval struct {
	verdict oracle.Verdict
	err     error
	calls   []oracle.EvalRequest
}

func (f *fakeEval) Evaluate(_ context.Context, req oracle.EvalRequest) (oracle.Verdict, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return f.verdict, nil
}

type fakeGen struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGen) Generate(_ context.Context, _, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func testTopic() *curriculum.Topic {
	return &curriculum.Topic{
		Name: "fractions",
		Steps: []curriculum.Step{
			{
				Ordinal: 1,
				Sections: []curriculum.Section{
					{
						ID:                  "frac_s1_001",
						Type:                curriculum.SectionRegular,
						Text:                "A fraction names part of a whole.",
						Question:            "What is half of 8?",
						SampleCorrect:       "4",
						SampleIncorrect:     "16",
						DetailedExplanation: "Half of 8 means 8 divided into 2 equal parts, which is 4.",
						StepOrdinal:         1,
					},
					{
						ID:                   "frac_s1_002",
						Type:                 curriculum.SectionWorkedExample,
						Text:                 "Watch how division by a fraction works.",
						Question:             "What is 4 ÷ 1/2?",
						SampleCorrect:        "8",
						SampleIncorrect:      "2",
						DetailedExplanation:  "Dividing by 1/2 asks how many halves fit, so 4 ÷ 1/2 = 8.",
						DemonstrationProblem: "3 ÷ 1/3",
						SolutionSteps: []string{
							"Step 1: Ask how many thirds fit into 3.",
							"Step 2: Each whole holds 3 thirds.",
							"Step 3: 3 wholes hold 3 × 3 = 9 thirds.",
						},
						DemonstrationAnswer: "9",
						StepOrdinal:         1,
					},
				},
			},
			{
				Ordinal: 2,
				Sections: []curriculum.Section{
					{
						ID:                  "frac_s2_001",
						Type:                curriculum.SectionCompletion,
						Text:                "You've practiced dividing by fractions.",
						Question:            "Are you ready to move on?",
						SampleCorrect:       "yes",
						SampleIncorrect:     "what",
						DetailedExplanation: "Dividing by a fraction is multiplying by its reciprocal.",
						StepOrdinal:         2,
					},
				},
			},
		},
	}
}

func newTestEngine(eval *fakeEval, gen *fakeGen) *Engine {
	return NewEngine("fractions", curriculum.NewNavigator(testTopic()), eval, gen, 2)
}

func TestAttemptsInWindow(t *testing.T) {
	window := []model.Turn{
		{Sender: model.SenderTutor, SectionID: "a", Message: "q"},
		{Sender: model.SenderStudent, SectionID: "a", Message: "wrong"},
		{Sender: model.SenderTutor, SectionID: "a", Message: "hint"},
		{Sender: model.SenderStudent, SectionID: "a", Message: "wrong again"},
		{Sender: model.SenderStudent, SectionID: "b", Message: "other section"},
	}

	if got := AttemptsInWindow(window, "a"); got != 3 {
		t.Errorf("attempts for a = %d, want 3", got)
	}
	if got := AttemptsInWindow(window, "b"); got != 2 {
		t.Errorf("attempts for b = %d, want 2", got)
	}
	if got := AttemptsInWindow(nil, "a"); got != 1 {
		t.Errorf("attempts for empty window = %d, want 1", got)
	}
}

func TestAdvanceUnknownSection(t *testing.T) {
	e := newTestEngine(&fakeEval{}, &fakeGen{})

	_, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "4",
		CurrentSectionID: "nope_001",
	})
	if !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("err = %v, want ErrUnknownSection", err)
	}
}

func TestAdvanceCorrectMovesToNextSection(t *testing.T) {
	eval := &fakeEval{verdict: oracle.VerdictCorrect}
	gen := &fakeGen{text: "Great job!"}
	e := newTestEngine(eval, gen)

	res, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "4",
		CurrentSectionID: "frac_s1_001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.SectionCompleted || !res.Correct {
		t.Errorf("completed=%v correct=%v, want both true", res.SectionCompleted, res.Correct)
	}
	if res.CompletionReason != model.CompletionSolved {
		t.Errorf("reason = %q, want solved", res.CompletionReason)
	}
	if res.NextSectionID != "frac_s1_002" {
		t.Errorf("next = %q, want frac_s1_002", res.NextSectionID)
	}
	if !strings.HasPrefix(res.TutorMessage, "Great job!\n\n") {
		t.Errorf("message missing encouragement prefix: %q", res.TutorMessage)
	}
	if !strings.Contains(res.TutorMessage, "Now it's your turn! **What is 4 ÷ 1/2?**") {
		t.Errorf("message missing next section question: %q", res.TutorMessage)
	}
}

func TestAdvanceIncorrectRetriesWithHint(t *testing.T) {
	eval := &fakeEval{verdict: oracle.VerdictIncorrect}
	gen := &fakeGen{text: "Think about equal parts."}
	e := newTestEngine(eval, gen)

	res, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "16",
		CurrentSectionID: "frac_s1_001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.SectionCompleted {
		t.Error("retry turn must not complete the section")
	}
	if res.NextSectionID != "frac_s1_001" {
		t.Errorf("next = %q, want the same section on retry", res.NextSectionID)
	}
	if res.AttemptCount != 1 {
		t.Errorf("attempt = %d, want 1", res.AttemptCount)
	}
	if res.TutorMessage != "Think about equal parts." {
		t.Errorf("message = %q", res.TutorMessage)
	}
}

func TestAdvanceHintFallsBackWhenGeneratorFails(t *testing.T) {
	eval := &fakeEval{verdict: oracle.VerdictIncorrect}
	gen := &fakeGen{err: errors.New("model down")}
	e := newTestEngine(eval, gen)

	res, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "16",
		CurrentSectionID: "frac_s1_001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.TutorMessage, "Here's a hint:") {
		t.Errorf("message = %q, want templated hint", res.TutorMessage)
	}
	if !strings.Contains(res.TutorMessage, "Can you try again?") {
		t.Errorf("message = %q, want retry invitation", res.TutorMessage)
	}
}

func TestAdvanceForceAdvancesAfterExhaustedAttempts(t *testing.T) {
	eval := &fakeEval{verdict: oracle.VerdictIncorrect}
	gen := &fakeGen{text: "Here is how it works."}
	e := newTestEngine(eval, gen)

	res, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "16",
		CurrentSectionID: "frac_s1_001",
		StoredAttempts:   2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.SectionCompleted {
		t.Fatal("third incorrect attempt must complete the section")
	}
	if res.Correct {
		t.Error("force-advance must not report a correct answer")
	}
	if res.CompletionReason != model.CompletionExhausted {
		t.Errorf("reason = %q, want exhausted", res.CompletionReason)
	}
	if res.AttemptCount != 3 {
		t.Errorf("attempt = %d, want 3", res.AttemptCount)
	}
	if res.NextSectionID != "frac_s1_002" {
		t.Errorf("next = %q, want frac_s1_002", res.NextSectionID)
	}
	if !strings.HasPrefix(res.TutorMessage, "Here is how it works.") {
		t.Errorf("message = %q", res.TutorMessage)
	}
}

func TestAdvanceAttemptCountFromWindowWhenNoStoredCounter(t *testing.T) {
	eval := &fakeEval{verdict: oracle.VerdictIncorrect}
	gen := &fakeGen{text: "Almost there."}
	e := newTestEngine(eval, gen)

	window := []model.Turn{
		{Sender: model.SenderStudent, SectionID: "frac_s1_001", Message: "16"},
		{Sender: model.SenderTutor, SectionID: "frac_s1_001", Message: "hint"},
		{Sender: model.SenderStudent, SectionID: "frac_s1_001", Message: "12"},
		{Sender: model.SenderTutor, SectionID: "frac_s1_001", Message: "hint"},
	}

	res, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "10",
		CurrentSectionID: "frac_s1_001",
		Window:           window,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AttemptCount != 3 {
		t.Errorf("attempt = %d, want 3 reconstructed from window", res.AttemptCount)
	}
	if !res.SectionCompleted || res.CompletionReason != model.CompletionExhausted {
		t.Errorf("third attempt must force-advance, got completed=%v reason=%q", res.SectionCompleted, res.CompletionReason)
	}
}

func TestAdvanceEvaluatorFailureFailsTurn(t *testing.T) {
	eval := &fakeEval{err: oracle.ErrEvaluationUnavailable}
	e := newTestEngine(eval, &fakeGen{text: "unused"})

	res, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "4",
		CurrentSectionID: "frac_s1_001",
	})
	if !errors.Is(err, oracle.ErrEvaluationUnavailable) {
		t.Fatalf("err = %v, want ErrEvaluationUnavailable", err)
	}
	if res != nil {
		t.Error("no result may be produced when evaluation fails")
	}
}

func TestAdvanceCompletionVocabulary(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		evaluated bool
	}{
		{name: "affirmative yes", answer: "Yes!"},
		{name: "affirmative ready", answer: "I'm ready"},
		{name: "negative no", answer: "no"},
		{name: "negated affirmation", answer: "not ready yet"},
		{name: "unrecognized falls through", answer: "what does that mean", evaluated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := &fakeEval{verdict: oracle.VerdictCorrect}
			gen := &fakeGen{text: "Wonderful!"}
			e := newTestEngine(eval, gen)

			res, err := e.Advance(context.Background(), AdvanceInput{
				StudentAnswer:    tt.answer,
				CurrentSectionID: "frac_s2_001",
			})
			if err != nil {
				t.Fatal(err)
			}
			if tt.evaluated != (len(eval.calls) == 1) {
				t.Errorf("evaluator calls = %d, evaluated expectation %v", len(eval.calls), tt.evaluated)
			}
			if !res.SectionCompleted {
				t.Error("completion section must advance on every recognized or evaluated answer")
			}
			if res.NextSectionID != "" {
				t.Errorf("next = %q, want terminal empty", res.NextSectionID)
			}
			if !strings.Contains(res.TutorMessage, "completed all the fractions sections") {
				t.Errorf("message = %q, want terminal text on last section", res.TutorMessage)
			}
		})
	}
}

func TestAdvanceNegativeCompletionReassures(t *testing.T) {
	gen := &fakeGen{err: errors.New("model down")}
	e := newTestEngine(&fakeEval{}, gen)

	res, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "no, not sure",
		CurrentSectionID: "frac_s2_001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.SectionCompleted || res.CompletionReason != model.CompletionSolved {
		t.Errorf("completion section must advance on a negative answer, got completed=%v reason=%q", res.SectionCompleted, res.CompletionReason)
	}
	if !strings.Contains(res.TutorMessage, "That's perfectly fine!") {
		t.Errorf("message = %q, want templated reassurance fallback", res.TutorMessage)
	}
	if !strings.Contains(res.TutorMessage, "completed all the fractions sections") {
		t.Errorf("message = %q, want terminal suffix on last section", res.TutorMessage)
	}
}

func TestAdvanceLastRegularSectionTerminalMessage(t *testing.T) {
	// Drop the completion section so a regular section sits last.
	topic := testTopic()
	topic.Steps = topic.Steps[:1]
	e := NewEngine("fractions", curriculum.NewNavigator(topic), &fakeEval{verdict: oracle.VerdictCorrect}, &fakeGen{text: "unused"}, 2)

	res, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "8",
		CurrentSectionID: "frac_s1_002",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.NextSectionID != "" {
		t.Errorf("next = %q, want empty at end of curriculum", res.NextSectionID)
	}
	if res.TutorMessage != TerminalMessage("fractions") {
		t.Errorf("message = %q, want terminal message", res.TutorMessage)
	}
}

func TestAdvanceTransitionFailurePropagates(t *testing.T) {
	eval := &fakeEval{verdict: oracle.VerdictCorrect}
	gen := &fakeGen{err: errors.New("model down")}
	e := newTestEngine(eval, gen)

	_, err := e.Advance(context.Background(), AdvanceInput{
		StudentAnswer:    "4",
		CurrentSectionID: "frac_s1_001",
	})
	if err == nil {
		t.Fatal("transition generation failure must fail the turn")
	}
}

// Walks a curriculum the way a session does: the ledger state between turns
// is replayed from each Result, never invented.
func TestProgressionScenario(t *testing.T) {
	eval := &fakeEval{}
	gen := &fakeGen{text: "Keep going!"}
	e := newTestEngine(eval, gen)
	ctx := context.Background()

	var window []model.Turn
	current := "frac_s1_001"
	attempts := 0

	step := func(answer string, verdict oracle.Verdict) *Result {
		t.Helper()
		eval.verdict = verdict
		res, err := e.Advance(ctx, AdvanceInput{
			StudentAnswer:    answer,
			Window:           window,
			CurrentSectionID: current,
			StoredAttempts:   attempts,
		})
		if err != nil {
			t.Fatal(err)
		}
		window = append(window,
			model.Turn{Sender: model.SenderStudent, SectionID: current, Message: answer},
			model.Turn{Sender: model.SenderTutor, SectionID: res.NextSectionID, Message: res.TutorMessage},
		)
		if res.SectionCompleted {
			current = res.NextSectionID
			attempts = 0
		} else {
			attempts = res.AttemptCount
		}
		return res
	}

	// Section 1: correct on the first try.
	res := step("4", oracle.VerdictCorrect)
	if !res.SectionCompleted || res.AttemptCount != 1 || current != "frac_s1_002" {
		t.Fatalf("after section 1: completed=%v attempt=%d current=%q", res.SectionCompleted, res.AttemptCount, current)
	}

	// Section 2: two wrong answers retry, the third force-advances.
	res = step("2", oracle.VerdictIncorrect)
	if res.SectionCompleted || res.AttemptCount != 1 {
		t.Fatalf("first wrong answer: completed=%v attempt=%d", res.SectionCompleted, res.AttemptCount)
	}
	res = step("6", oracle.VerdictIncorrect)
	if res.SectionCompleted || res.AttemptCount != 2 {
		t.Fatalf("second wrong answer: completed=%v attempt=%d", res.SectionCompleted, res.AttemptCount)
	}
	res = step("still 6", oracle.VerdictIncorrect)
	if !res.SectionCompleted || res.CompletionReason != model.CompletionExhausted || res.AttemptCount != 3 {
		t.Fatalf("third wrong answer: completed=%v reason=%q attempt=%d", res.SectionCompleted, res.CompletionReason, res.AttemptCount)
	}
	if current != "frac_s2_001" {
		t.Fatalf("current = %q, want the completion section", current)
	}

	// Completion section closes out the topic.
	res = step("yes", "")
	if !res.SectionCompleted || res.NextSectionID != "" {
		t.Fatalf("completion turn: completed=%v next=%q", res.SectionCompleted, res.NextSectionID)
	}
	if !strings.Contains(res.TutorMessage, "completed all the fractions sections") {
		t.Errorf("final message = %q, want terminal text", res.TutorMessage)
	}
}

func TestCompletionGate(t *testing.T) {
	tests := []struct {
		answer     string
		recognized bool
		affirm     bool
	}{
		{"yes", true, true},
		{"YES!", true, true},
		{"I'm ready.", true, true},
		{"confident", true, true},
		{"sure, let's go", true, true},
		{"no", true, false},
		{"not ready", true, false},
		{"not confident yet", true, false},
		{"I know fractions", false, false},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		recognized, affirm := completionGate(tt.answer)
		if recognized != tt.recognized || affirm != tt.affirm {
			t.Errorf("completionGate(%q) = (%v, %v), want (%v, %v)", tt.answer, recognized, affirm, tt.recognized, tt.affirm)
		}
	}
}
