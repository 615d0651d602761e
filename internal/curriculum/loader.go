package curriculum

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// sequenceSuffix is the reserved key suffix marking an ordered step sequence
// inside a topic document.
const sequenceSuffix = "_sequence"

// stepKeyPattern extracts the step ordinal from a sequence key, e.g.
// "step2_sequence" → 2.
var stepKeyPattern = regexp.MustCompile(`^step(\d+)` + sequenceSuffix + `$`)

// learnFileSuffix is the per-topic curriculum file naming convention.
const learnFileSuffix = "_learn.json"

// Library holds every topic loaded at process start.
type Library struct {
	topics map[string]*Topic
}

// LoadDir loads every <topic>_learn.json in dir into a Library. Any missing,
// unreadable, or malformed file is a fatal error: curriculum defects are
// deployment defects, not runtime conditions.
func LoadDir(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read curriculum dir %s: %w", dir, err)
	}

	lib := &Library{topics: make(map[string]*Topic)}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, learnFileSuffix) {
			continue
		}
		topicName := strings.TrimSuffix(name, learnFileSuffix)
		topic, err := LoadFile(filepath.Join(dir, name), topicName)
		if err != nil {
			return nil, err
		}
		lib.topics[topicName] = topic
	}

	if len(lib.topics) == 0 {
		return nil, fmt.Errorf("no curriculum files (*%s) found in %s", learnFileSuffix, dir)
	}
	return lib, nil
}

// LoadFile parses a single topic curriculum document.
func LoadFile(path, topicName string) (*Topic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("curriculum file for topic %q: %w", topicName, err)
	}
	return Parse(raw, topicName)
}

// Parse builds a Topic from a raw curriculum JSON document. Step ordinals are
// taken from the stepN_sequence keys and stamped onto every section; the
// flattened section order is steps by ordinal, sections in document order.
func Parse(raw []byte, topicName string) (*Topic, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse curriculum for topic %q: %w", topicName, err)
	}

	topic := &Topic{Name: topicName}
	if v, ok := doc["topic"]; ok {
		_ = json.Unmarshal(v, &topic.Title)
	}
	if v, ok := doc["description"]; ok {
		_ = json.Unmarshal(v, &topic.Description)
	}

	var stepsMeta []StepMeta
	if v, ok := doc["steps"]; ok {
		if err := json.Unmarshal(v, &stepsMeta); err != nil {
			return nil, fmt.Errorf("topic %q: invalid steps metadata: %w", topicName, err)
		}
	}

	type keyedStep struct {
		ordinal int
		key     string
	}
	var stepKeys []keyedStep
	for key := range doc {
		m := stepKeyPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		ordinal, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("topic %q: invalid step key %q: %w", topicName, key, err)
		}
		stepKeys = append(stepKeys, keyedStep{ordinal: ordinal, key: key})
	}
	if len(stepKeys) == 0 {
		return nil, fmt.Errorf("topic %q: no step sequences (keys ending in %q)", topicName, sequenceSuffix)
	}
	sort.Slice(stepKeys, func(i, j int) bool { return stepKeys[i].ordinal < stepKeys[j].ordinal })

	seen := make(map[string]struct{})
	for i, sk := range stepKeys {
		var sections []Section
		if err := json.Unmarshal(doc[sk.key], &sections); err != nil {
			return nil, fmt.Errorf("topic %q: invalid sections in %q: %w", topicName, sk.key, err)
		}

		step := Step{Ordinal: sk.ordinal}
		if i < len(stepsMeta) {
			step.Meta = stepsMeta[i]
		} else {
			step.Meta = StepMeta{
				Icon:        "📚",
				Title:       fmt.Sprintf("Step %d", sk.ordinal),
				Description: fmt.Sprintf("Learning step %d for %s", sk.ordinal, topicName),
			}
		}

		for _, sec := range sections {
			if err := validateSection(sec, topicName, sk.key); err != nil {
				return nil, err
			}
			if _, dup := seen[sec.ID]; dup {
				return nil, fmt.Errorf("topic %q: duplicate section id %q", topicName, sec.ID)
			}
			seen[sec.ID] = struct{}{}

			sec.StepOrdinal = sk.ordinal
			step.Sections = append(step.Sections, sec)
		}
		topic.Steps = append(topic.Steps, step)
	}

	return topic, nil
}

func validateSection(sec Section, topicName, key string) error {
	if sec.ID == "" {
		return fmt.Errorf("topic %q: section with empty id in %q", topicName, key)
	}
	switch sec.Type {
	case SectionRegular, SectionWorkedExample, SectionCompletion:
	default:
		return fmt.Errorf("topic %q: section %q has unknown type %q", topicName, sec.ID, sec.Type)
	}
	if sec.Question == "" {
		return fmt.Errorf("topic %q: section %q has no question", topicName, sec.ID)
	}
	return nil
}

// Topics returns the loaded topic names in sorted order.
func (l *Library) Topics() []string {
	names := make([]string, 0, len(l.topics))
	for name := range l.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Topic returns the curriculum for a topic, or false if not loaded.
func (l *Library) Topic(name string) (*Topic, bool) {
	t, ok := l.topics[name]
	return t, ok
}
