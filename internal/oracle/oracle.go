// Package oracle exposes the two natural-language contracts the tutor relies
// on: a binary correctness verdict for free-text answers, and free-form text
// generation for transitions, hints and explanations. The two are separate
// interfaces so either can be swapped or mocked independently.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lumilearn/tutor-backend/internal/llm"
)

// Verdict is the binary correctness judgment for a student answer.
type Verdict string

const (
	VerdictCorrect   Verdict = "CORRECT"
	VerdictIncorrect Verdict = "INCORRECT"
)

var (
	// ErrEvaluationUnavailable is returned when a verdict could not be
	// obtained. There is no fallback verdict: a failed evaluation fails the
	// whole turn and must never be read as INCORRECT.
	ErrEvaluationUnavailable = errors.New("evaluation unavailable")

	// ErrGenerationUnavailable is returned when free-text generation failed.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrMalformedVerdict is returned when the model produced something other
	// than the two literal verdict tokens. A protocol violation, surfaced as
	// an evaluation failure.
	ErrMalformedVerdict = errors.New("malformed verdict output")
)

// EvalRequest carries everything the evaluator needs for one verdict.
type EvalRequest struct {
	Topic           string
	Question        string
	SampleCorrect   string
	SampleIncorrect string
	StudentAnswer   string
}

// Evaluator produces a Verdict for a student's free-text answer.
type Evaluator interface {
	Evaluate(ctx context.Context, req EvalRequest) (Verdict, error)
}

// Generator produces free-form tutor text from an instruction prompt. The
// output is inserted verbatim into the outgoing message.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Oracle implements Evaluator and Generator on top of an llm.Provider.
type Oracle struct {
	provider llm.Provider
}

// New creates an Oracle backed by the given provider.
func New(provider llm.Provider) *Oracle {
	return &Oracle{provider: provider}
}

const evaluateSystem = "You are evaluating a primary school student's answer. " +
	"Respond with only the single word CORRECT or INCORRECT."

// Evaluate asks the model for a verdict and parses it strictly: the output
// must be exactly one of the two tokens (case-insensitive, surrounding
// whitespace ignored). Anything else is ErrMalformedVerdict.
func (o *Oracle) Evaluate(ctx context.Context, req EvalRequest) (Verdict, error) {
	prompt := fmt.Sprintf(`You are evaluating a student's %s response.

QUESTION: %s
STUDENT ANSWER: %q
SAMPLE CORRECT RESPONSE: %q
SAMPLE INCORRECT RESPONSES: %q

Is the student's answer correct? Consider:
1. Mathematical accuracy
2. Conceptual understanding shown
3. Similarity to sample correct response

Respond with only: "CORRECT" or "INCORRECT"`,
		req.Topic, req.Question, req.StudentAnswer, req.SampleCorrect, req.SampleIncorrect)

	resp, err := o.provider.Complete(ctx, llm.Request{
		System:    evaluateSystem,
		Prompt:    prompt,
		MaxTokens: 8,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEvaluationUnavailable, err)
	}

	return ParseVerdict(resp.Text)
}

// ParseVerdict validates raw model output against the verdict contract.
func ParseVerdict(raw string) (Verdict, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(VerdictCorrect):
		return VerdictCorrect, nil
	case string(VerdictIncorrect):
		return VerdictIncorrect, nil
	default:
		return "", fmt.Errorf("%w: %w: %q", ErrEvaluationUnavailable, ErrMalformedVerdict, raw)
	}
}

// Generate produces free-form tutor text.
func (o *Oracle) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := o.provider.Complete(ctx, llm.Request{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}
	if resp.Text == "" {
		return "", fmt.Errorf("%w: empty output", ErrGenerationUnavailable)
	}
	return resp.Text, nil
}
