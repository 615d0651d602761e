package curriculum

import (
	"github.com/lumilearn/tutor-backend/internal/model"
)

// Navigator provides pure ordering queries over one topic's curriculum.
// The flattened total order it exposes (steps by ordinal, sections in file
// order) is the contract every other component relies on.
type Navigator struct {
	topic *Topic
	order []string
	index map[string]int
	byID  map[string]*Section
}

// NewNavigator builds a Navigator for a loaded topic.
func NewNavigator(topic *Topic) *Navigator {
	n := &Navigator{
		topic: topic,
		index: make(map[string]int),
		byID:  make(map[string]*Section),
	}
	for si := range topic.Steps {
		for ci := range topic.Steps[si].Sections {
			sec := &topic.Steps[si].Sections[ci]
			n.index[sec.ID] = len(n.order)
			n.order = append(n.order, sec.ID)
			n.byID[sec.ID] = sec
		}
	}
	return n
}

// Topic returns the underlying topic.
func (n *Navigator) Topic() *Topic { return n.topic }

// AllSectionIDs returns every section ID in flattened order. The returned
// slice is a copy; callers may not mutate the canonical order.
func (n *Navigator) AllSectionIDs() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Section looks up a section by ID.
func (n *Navigator) Section(id string) (*Section, bool) {
	sec, ok := n.byID[id]
	return sec, ok
}

// NextSectionID returns the successor of id in flattened order, or "" when
// id is the last section or unknown.
func (n *Navigator) NextSectionID(id string) string {
	i, ok := n.index[id]
	if !ok || i+1 >= len(n.order) {
		return ""
	}
	return n.order[i+1]
}

// PrevSectionIDs returns up to count section IDs immediately before id in
// flattened order, oldest first. Used to widen the conversation window for
// cross-section context.
func (n *Navigator) PrevSectionIDs(id string, count int) []string {
	i, ok := n.index[id]
	if !ok || count <= 0 {
		return nil
	}
	start := i - count
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, i-start)
	out = append(out, n.order[start:i]...)
	return out
}

// CurrentSectionFor returns the first section (in flattened order) whose
// status is not completed, i.e. the student's resume point. An empty string
// means every section is completed: the ready-for-practice signal.
func (n *Navigator) CurrentSectionFor(progress map[string]model.ProgressStatus) string {
	for _, id := range n.order {
		if progress[id] != model.ProgressCompleted {
			return id
		}
	}
	return ""
}

// StepProgress summarizes one step's completion state for status reporting.
type StepProgress struct {
	Ordinal           int      `json:"ordinal"`
	Meta              StepMeta `json:"meta"`
	TotalSections     int      `json:"total_sections"`
	CompletedSections int      `json:"completed_sections"`
	Completed         bool     `json:"completed"`
}

// StepProgressFor aggregates per-step completion from a ledger status map,
// using the explicit step ordinals assigned at load time.
func (n *Navigator) StepProgressFor(progress map[string]model.ProgressStatus) []StepProgress {
	out := make([]StepProgress, 0, len(n.topic.Steps))
	for _, step := range n.topic.Steps {
		sp := StepProgress{
			Ordinal:       step.Ordinal,
			Meta:          step.Meta,
			TotalSections: len(step.Sections),
		}
		for _, sec := range step.Sections {
			if progress[sec.ID] == model.ProgressCompleted {
				sp.CompletedSections++
			}
		}
		sp.Completed = sp.CompletedSections >= sp.TotalSections && sp.TotalSections > 0
		out = append(out, sp)
	}
	return out
}
