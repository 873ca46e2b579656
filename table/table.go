// Package table builds hsm machines from declarative state tables.
//
// A table is the data equivalent of a generated front end: states are
// declared by name, reference their parent and handlers symbolically, and
// are resolved once at startup into the dense integer ids the engine
// consumes. Tables parse from YAML or JSON.
package table

import (
	"fmt"

	"github.com/goliatone/go-hsm"
)

// Definition declares a complete state table.
type Definition struct {
	Version int               `json:"version" yaml:"version"`
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	States  []StateDefinition `json:"states" yaml:"states"`
}

// StateDefinition declares one state. Parent and handler fields reference
// other states and registered handlers by name.
type StateDefinition struct {
	Name    string `json:"name" yaml:"name"`
	Parent  string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Process string `json:"process" yaml:"process"`
	Enter   string `json:"enter,omitempty" yaml:"enter,omitempty"`
	Exit    string `json:"exit,omitempty" yaml:"exit,omitempty"`
	Initial bool   `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// Validate performs structural validation: unique non-empty names, resolvable
// parent references, a process handler per state, and exactly one initial
// state that is a leaf. Cycle detection happens when the machine is built.
func (d Definition) Validate() error {
	if len(d.States) == 0 {
		return fmt.Errorf("table requires at least one state")
	}

	names := make(map[string]int, len(d.States))
	for idx, st := range d.States {
		if st.Name == "" {
			return fmt.Errorf("state[%d]: name is required", idx)
		}
		if _, dup := names[st.Name]; dup {
			return fmt.Errorf("state %s declared twice", st.Name)
		}
		names[st.Name] = idx
		if st.Process == "" {
			return fmt.Errorf("state %s: process handler is required", st.Name)
		}
	}

	hasChildren := make(map[string]bool, len(d.States))
	for _, st := range d.States {
		if st.Parent == "" {
			continue
		}
		if _, ok := names[st.Parent]; !ok {
			return fmt.Errorf("state %s: unknown parent %s", st.Name, st.Parent)
		}
		hasChildren[st.Parent] = true
	}

	initial := ""
	for _, st := range d.States {
		if !st.Initial {
			continue
		}
		if initial != "" {
			return fmt.Errorf("states %s and %s both marked initial", initial, st.Name)
		}
		initial = st.Name
	}
	if initial == "" {
		return fmt.Errorf("table requires exactly one initial state")
	}
	if hasChildren[initial] {
		return fmt.Errorf("initial state %s is not a leaf", initial)
	}

	return nil
}

// InitialState returns the name of the state marked initial, or empty when
// the definition is invalid.
func (d Definition) InitialState() string {
	for _, st := range d.States {
		if st.Initial {
			return st.Name
		}
	}
	return ""
}

// Check validates the definition structurally and then runs the engine's
// topology validation (cycle detection) against it, without requiring the
// caller's handlers. Intended for linting tables before deployment.
func (d Definition) Check() error {
	if err := d.Validate(); err != nil {
		return err
	}

	stub := func(_ *struct{}, _ *hsm.Machine[struct{}, struct{}], _ struct{}) (bool, hsm.StateID) {
		return true, hsm.StateNone
	}

	ids := make(map[string]hsm.StateID, len(d.States))
	for idx, st := range d.States {
		ids[st.Name] = hsm.StateID(idx)
	}

	b := hsm.NewBuilder[struct{}, struct{}](nil)
	var initial hsm.StateID
	for _, st := range d.States {
		decl := hsm.NewState(st.Name, stub)
		if st.Parent != "" {
			decl = decl.WithParent(ids[st.Parent])
		}
		id := b.AddState(decl)
		if st.Initial {
			initial = id
		}
	}

	_, err := b.Build(initial)
	return err
}
