package curriculum

// SectionType distinguishes how a section is presented and graded.
type SectionType string

const (
	// SectionRegular is an explanation followed by a graded question.
	SectionRegular SectionType = "regular"
	// SectionWorkedExample demonstrates a solved problem before asking the
	// student to try a similar one.
	SectionWorkedExample SectionType = "worked_example"
	// SectionCompletion is a yes/no readiness check closing a step. It gates
	// entry to review, not understanding: every recognized answer advances.
	SectionCompletion SectionType = "completion"
)

// Section is one immutable curriculum unit. Loaded once at startup and never
// mutated afterwards.
type Section struct {
	ID                  string      `json:"id"`
	Type                SectionType `json:"type"`
	Text                string      `json:"text"`
	Question            string      `json:"question"`
	SampleCorrect       string      `json:"sample_correct_response"`
	SampleIncorrect     string      `json:"sample_incorrect_response"`
	DetailedExplanation string      `json:"exact_detailed_explanation"`

	// Worked-example fields. Empty for other section types.
	DemonstrationProblem string   `json:"demonstration_problem,omitempty"`
	SolutionSteps        []string `json:"solution_steps,omitempty"`
	DemonstrationAnswer  string   `json:"demonstration_answer,omitempty"`

	// StepOrdinal is assigned at load time from the step sequence key the
	// section came from. Ordering never falls back to parsing the ID.
	StepOrdinal int `json:"-"`
}

// StepMeta is display metadata for one learning step.
type StepMeta struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Step is an ordered group of sections forming one syllabus stage.
type Step struct {
	Ordinal  int
	Meta     StepMeta
	Sections []Section
}

// Topic is the full curriculum for one subject topic: steps in ordinal
// order, sections within a step in file order.
type Topic struct {
	Name        string
	Title       string
	Description string
	Steps       []Step
}

// SectionCount returns the total number of sections across all steps.
func (t *Topic) SectionCount() int {
	n := 0
	for _, step := range t.Steps {
		n += len(step.Sections)
	}
	return n
}
