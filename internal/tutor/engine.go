// Package tutor implements the sequential section progression engine: the
// per-turn decision of whether a student retries the current curriculum
// section, advances, or is moved on after exhausting the retry budget.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lumilearn/tutor-backend/internal/curriculum"
	"github.com/lumilearn/tutor-backend/internal/model"
	"github.com/lumilearn/tutor-backend/internal/oracle"
)

// ErrUnknownSection indicates the caller pointed the engine at a section the
// curriculum does not contain. A deployment/data defect, never retried.
var ErrUnknownSection = errors.New("unknown section id")

// DefaultMaxAttempts is the retry budget: incorrect answers beyond this many
// attempts force-advance the section.
const DefaultMaxAttempts = 2

// Engine owns curriculum traversal for one topic. It holds no mutable state:
// every Advance call reconstructs its inputs from the ledger and the
// supplied conversation window, so the engine is safe under concurrent
// requests for different users.
type Engine struct {
	topic       string
	nav         *curriculum.Navigator
	eval        oracle.Evaluator
	gen         oracle.Generator
	maxAttempts int
}

// NewEngine creates an Engine for one topic. maxAttempts <= 0 selects
// DefaultMaxAttempts.
func NewEngine(topic string, nav *curriculum.Navigator, eval oracle.Evaluator, gen oracle.Generator, maxAttempts int) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Engine{
		topic:       topic,
		nav:         nav,
		eval:        eval,
		gen:         gen,
		maxAttempts: maxAttempts,
	}
}

// Navigator exposes the engine's section ordering.
func (e *Engine) Navigator() *curriculum.Navigator { return e.nav }

// Topic returns the topic this engine traverses.
func (e *Engine) Topic() string { return e.topic }

// AdvanceInput is one student turn plus the state needed to judge it.
type AdvanceInput struct {
	StudentAnswer string
	// Window is the relevant slice of the turn log, oldest first. Used as an
	// audit trail to reconstruct the attempt count when StoredAttempts is
	// not available.
	Window []model.Turn
	// Progress is the student's ledger status map. Consulted only to resolve
	// the current section when CurrentSectionID is empty.
	Progress         map[string]model.ProgressStatus
	CurrentSectionID string
	// StoredAttempts is the ledger's attempt counter for the current
	// section: the number of prior student turns already recorded. Zero
	// falls back to scanning Window.
	StoredAttempts int
	Emotional      *model.EmotionalSignals
}

// Result is the engine's decision for one turn.
type Result struct {
	TutorMessage     string
	SectionCompleted bool
	CurrentSectionID string
	// NextSectionID is the section the student should work on after this
	// turn: the successor on advance, the current section on retry, and
	// empty when the curriculum is finished.
	NextSectionID string
	Correct       bool
	// AttemptCount is the 1-based attempt number this turn was judged as.
	AttemptCount int
	// CompletionReason is set only when SectionCompleted: solved for a
	// correct answer, exhausted for a force-advance.
	CompletionReason model.CompletionReason
}

// Advance judges one student turn and decides the progression.
//
// Evaluator failure fails the whole turn: no fallback verdict is ever
// synthesized, and the caller must leave the ledger untouched.
func (e *Engine) Advance(ctx context.Context, in AdvanceInput) (*Result, error) {
	sectionID := in.CurrentSectionID
	if sectionID == "" {
		sectionID = e.nav.CurrentSectionFor(in.Progress)
	}
	sec, ok := e.nav.Section(sectionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q in topic %q", ErrUnknownSection, sectionID, e.topic)
	}

	attempt := in.StoredAttempts + 1
	if in.StoredAttempts == 0 {
		attempt = AttemptsInWindow(in.Window, sectionID)
	}

	correct, affirmative, err := e.verdict(ctx, sec, in.StudentAnswer)
	if err != nil {
		return nil, err
	}

	res := &Result{
		CurrentSectionID: sectionID,
		Correct:          correct,
		AttemptCount:     attempt,
	}

	switch {
	case correct && sec.Type == curriculum.SectionCompletion:
		// Completion sections gate entry to the next step, not
		// understanding: both yes and no advance.
		next := e.nav.NextSectionID(sectionID)
		res.SectionCompleted = true
		res.CompletionReason = model.CompletionSolved
		res.NextSectionID = next

		var msg string
		if affirmative {
			msg, err = e.correctTransition(ctx, sec, next)
		} else {
			msg, err = e.reassureAndAdvance(ctx, sec, next)
		}
		if err != nil {
			return nil, err
		}
		res.TutorMessage = msg

	case correct:
		next := e.nav.NextSectionID(sectionID)
		res.SectionCompleted = true
		res.CompletionReason = model.CompletionSolved
		res.NextSectionID = next

		msg, err := e.correctTransition(ctx, sec, next)
		if err != nil {
			return nil, err
		}
		res.TutorMessage = msg

	case attempt > e.maxAttempts:
		// Retry budget exhausted: explain and move on. Completed, but not a
		// success; the reason distinguishes the two downstream.
		next := e.nav.NextSectionID(sectionID)
		res.SectionCompleted = true
		res.CompletionReason = model.CompletionExhausted
		res.NextSectionID = next

		msg, err := e.explainAndAdvance(ctx, sec, next)
		if err != nil {
			return nil, err
		}
		res.TutorMessage = msg

	default:
		res.SectionCompleted = false
		res.NextSectionID = sectionID
		res.TutorMessage = e.hint(ctx, in.StudentAnswer, sec, in.Window, in.Emotional)
	}

	return res, nil
}

// verdict decides correctness. Completion sections check the readiness
// vocabulary first; unrecognized answers, and every other section type,
// delegate to the evaluator.
func (e *Engine) verdict(ctx context.Context, sec *curriculum.Section, answer string) (correct, affirmative bool, err error) {
	if sec.Type == curriculum.SectionCompletion {
		if recognized, affirm := completionGate(answer); recognized {
			return true, affirm, nil
		}
	}

	v, err := e.eval.Evaluate(ctx, oracle.EvalRequest{
		Topic:           e.topic,
		Question:        sec.Question,
		SampleCorrect:   sec.SampleCorrect,
		SampleIncorrect: sec.SampleIncorrect,
		StudentAnswer:   answer,
	})
	if err != nil {
		return false, false, err
	}
	// An evaluator-judged completion answer carries no readiness polarity;
	// treat it as affirmative.
	return v == oracle.VerdictCorrect, true, nil
}

// completionGate matches the answer against the fixed readiness vocabulary.
// recognized reports whether the vocabulary matched at all; affirmative is
// false for negated answers ("no", "not ready", "not confident yet").
func completionGate(answer string) (recognized, affirmative bool) {
	var hasAffirm, hasNeg bool
	for _, word := range strings.Fields(strings.ToLower(answer)) {
		switch strings.Trim(word, ".,!?'\"") {
		case "yes", "ready", "confident", "sure":
			hasAffirm = true
		case "no", "not":
			hasNeg = true
		}
	}
	return hasAffirm || hasNeg, hasAffirm && !hasNeg
}

// AttemptsInWindow reconstructs the 1-based attempt number for a section
// from a conversation window: 1 + the number of student turns tagged to that
// section. Turns tagged to other sections are ignored wherever they appear.
//
// The ledger's stored counter is the source of truth; this reconstruction
// exists for windows predating the counter and as the audit cross-check.
func AttemptsInWindow(window []model.Turn, sectionID string) int {
	prior := 0
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Sender == model.SenderStudent && window[i].SectionID == sectionID {
			prior++
		}
	}
	return prior + 1
}
