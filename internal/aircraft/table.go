package aircraft

import (
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed states.yaml
var defaultTable []byte

// Table is the declarative description of the aircraft state machine.
type Table struct {
	States      []StateSpec      `yaml:"states"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

// StateSpec declares one state.
type StateSpec struct {
	Name string `yaml:"name"`
	Exit bool   `yaml:"exit,omitempty"`
}

// TransitionSpec declares a timed transition. After names the duration
// source.
type TransitionSpec struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	After string `yaml:"after"`
}

// DefaultTable returns the built-in table.
func DefaultTable() (Table, error) {
	return ParseTable(defaultTable)
}

// ParseTable decodes and validates a YAML table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("failed to decode state table: %w", err)
	}
	if err := t.validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func (t Table) validate() error {
	seen := make(map[State]bool, len(t.States))
	for _, spec := range t.States {
		s, err := ParseState(spec.Name)
		if err != nil {
			return fmt.Errorf("state table: %w", err)
		}
		if seen[s] {
			return fmt.Errorf("state table: %s declared twice", s)
		}
		seen[s] = true
	}
	for _, s := range States() {
		if !seen[s] {
			return fmt.Errorf("state table: %s is missing", s)
		}
	}
	for _, tr := range t.Transitions {
		if _, err := ParseState(tr.From); err != nil {
			return fmt.Errorf("state table: transition from: %w", err)
		}
		if _, err := ParseState(tr.To); err != nil {
			return fmt.Errorf("state table: transition to: %w", err)
		}
		if tr.After == "" {
			return fmt.Errorf("state table: transition %s -> %s has no duration", tr.From, tr.To)
		}
	}
	return nil
}

// StateDoc is the YAML form of a live state.
type StateDoc struct {
	Name      string   `yaml:"name"`
	Exit      bool     `yaml:"exit,omitempty"`
	Members   int      `yaml:"members"`
	Hooks     []string `yaml:"hooks,omitempty"`
	AutoTo    string   `yaml:"autoTo,omitempty"`
	AutoAfter float64  `yaml:"autoAfter,omitempty"`
}

// DumpStates writes the live state machine as YAML.
func (f *Fleet) DumpStates(w io.Writer) error {
	docs := make([]StateDoc, 0, len(stateNames))
	for _, info := range f.engine.Describe() {
		doc := StateDoc{Name: info.ID.String(), Exit: info.Exit, Members: info.Members}
		if info.HasEnter {
			doc.Hooks = append(doc.Hooks, "enter")
		}
		if info.HasUpdate {
			doc.Hooks = append(doc.Hooks, "update")
		}
		if info.HasLeave {
			doc.Hooks = append(doc.Hooks, "leave")
		}
		if info.Auto {
			doc.AutoTo = info.AutoTo.String()
			doc.AutoAfter = info.AutoAfter
		}
		docs = append(docs, doc)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]StateDoc{"states": docs}); err != nil {
		return fmt.Errorf("failed to encode states: %w", err)
	}
	return enc.Close()
}
