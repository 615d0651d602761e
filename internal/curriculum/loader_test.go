package curriculum

import (
	"path/filepath"
	"strings"
	"testing"
)

func loadTestTopic(t *testing.T) *Topic {
	t.Helper()
	topic, err := LoadFile(filepath.Join("testdata", "fractions_learn.json"), "fractions")
	if err != nil {
		t.Fatalf("load test curriculum: %v", err)
	}
	return topic
}

func TestLoadFile(t *testing.T) {
	topic := loadTestTopic(t)

	if topic.Name != "fractions" {
		t.Errorf("expected topic name fractions, got %q", topic.Name)
	}
	if topic.Title != "Fractions - Primary 6" {
		t.Errorf("unexpected title %q", topic.Title)
	}
	if len(topic.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(topic.Steps))
	}
	if topic.SectionCount() != 4 {
		t.Errorf("expected 4 sections, got %d", topic.SectionCount())
	}

	// Step ordinals are stamped onto sections at load time.
	for _, step := range topic.Steps {
		for _, sec := range step.Sections {
			if sec.StepOrdinal != step.Ordinal {
				t.Errorf("section %s has ordinal %d, step has %d", sec.ID, sec.StepOrdinal, step.Ordinal)
			}
		}
	}

	we := topic.Steps[0].Sections[1]
	if we.Type != SectionWorkedExample {
		t.Fatalf("expected worked_example, got %s", we.Type)
	}
	if len(we.SolutionSteps) != 3 || we.DemonstrationAnswer != "9" {
		t.Errorf("worked example fields not loaded: %+v", we)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"malformed json", `{"step1_sequence": [`, "parse curriculum"},
		{"no sequences", `{"topic": "x"}`, "no step sequences"},
		{"empty id", `{"step1_sequence": [{"id": "", "type": "regular", "question": "q"}]}`, "empty id"},
		{"unknown type", `{"step1_sequence": [{"id": "a", "type": "quiz", "question": "q"}]}`, "unknown type"},
		{"missing question", `{"step1_sequence": [{"id": "a", "type": "regular"}]}`, "no question"},
		{
			"duplicate id",
			`{"step1_sequence": [
				{"id": "a", "type": "regular", "question": "q"},
				{"id": "a", "type": "regular", "question": "q"}
			]}`,
			"duplicate section id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw), "broken")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseStepOrderFollowsOrdinals(t *testing.T) {
	// Declare step3 before step1 in the document; flattened order must still
	// follow the ordinal embedded in the sequence key.
	raw := `{
		"step3_sequence": [{"id": "late", "type": "regular", "question": "q"}],
		"step1_sequence": [{"id": "early", "type": "regular", "question": "q"}]
	}`
	topic, err := Parse([]byte(raw), "ordered")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	nav := NewNavigator(topic)
	ids := nav.AllSectionIDs()
	if len(ids) != 2 || ids[0] != "early" || ids[1] != "late" {
		t.Errorf("expected [early late], got %v", ids)
	}
}

func TestLoadDirRejectsEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Fatal("expected error for directory without curriculum files")
	}
}

func TestLoadDir(t *testing.T) {
	lib, err := LoadDir("testdata")
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}

	topics := lib.Topics()
	if len(topics) != 1 || topics[0] != "fractions" {
		t.Fatalf("expected [fractions], got %v", topics)
	}
	if _, ok := lib.Topic("fractions"); !ok {
		t.Error("fractions topic not retrievable")
	}
	if _, ok := lib.Topic("algebra"); ok {
		t.Error("unknown topic should not resolve")
	}
}
