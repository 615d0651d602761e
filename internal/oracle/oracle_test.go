package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lumilearn/tutor-backend/internal/llm"
)

func TestEvaluateParsesStrictVerdicts(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    Verdict
		wantErr error
	}{
		{"exact correct", "CORRECT", VerdictCorrect, nil},
		{"exact incorrect", "INCORRECT", VerdictIncorrect, nil},
		{"lowercase", "correct", VerdictCorrect, nil},
		{"surrounding whitespace", "  INCORRECT\n", VerdictIncorrect, nil},
		{"chatty output is a protocol violation", "The answer is CORRECT.", "", ErrMalformedVerdict},
		{"empty output is a protocol violation", "", "", ErrMalformedVerdict},
		{"garbage is a protocol violation", "MAYBE", "", ErrMalformedVerdict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(llm.NewMockProvider(llm.MockResponse{Text: tt.output}))
			got, err := o.Evaluate(context.Background(), EvalRequest{
				Topic:         "fractions",
				Question:      "How many halves in 3?",
				StudentAnswer: "6",
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				// A malformed verdict is an evaluation failure, never a verdict.
				if !errors.Is(err, ErrEvaluationUnavailable) {
					t.Errorf("malformed verdict should read as evaluation failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluatePromptContainsReferences(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "CORRECT"})
	o := New(mock)

	_, err := o.Evaluate(context.Background(), EvalRequest{
		Topic:           "fractions",
		Question:        "What is 4 ÷ 1/2?",
		SampleCorrect:   "8",
		SampleIncorrect: "2",
		StudentAnswer:   "eight",
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if len(mock.Calls) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(mock.Calls))
	}
	prompt := mock.Calls[0].Prompt
	for _, want := range []string{"What is 4 ÷ 1/2?", `"8"`, `"2"`, `"eight"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestEvaluateProviderFailure(t *testing.T) {
	o := New(llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}))

	_, err := o.Evaluate(context.Background(), EvalRequest{Question: "q", StudentAnswer: "a"})
	if !errors.Is(err, ErrEvaluationUnavailable) {
		t.Fatalf("expected ErrEvaluationUnavailable, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	o := New(llm.NewMockProvider(llm.MockResponse{Text: "Well done! Let's keep going."}))

	got, err := o.Generate(context.Background(), "You are a tutor.", "Encourage the student.")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Well done! Let's keep going." {
		t.Errorf("unexpected output %q", got)
	}
}

func TestGenerateFailures(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		o := New(llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}))
		if _, err := o.Generate(context.Background(), "", "p"); !errors.Is(err, ErrGenerationUnavailable) {
			t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		o := New(llm.NewMockProvider(llm.MockResponse{Text: ""}))
		if _, err := o.Generate(context.Background(), "", "p"); !errors.Is(err, ErrGenerationUnavailable) {
			t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
		}
	})
}
