package hsm

import "fmt"

// Builder accumulates state descriptors. Build validates the declared
// topology once and produces a Machine; the topology is immutable after
// that.
type Builder[SM, M any] struct {
	sm     *SM
	states []stateInfo[SM, M]
	logger Logger
}

// NewBuilder starts declaring a machine over the given context value. sm
// may be nil when handlers carry their own state.
func NewBuilder[SM, M any](sm *SM) *Builder[SM, M] {
	return &Builder[SM, M]{sm: sm}
}

// WithLogger sets the machine logger. Defaults to a FmtLogger.
func (b *Builder[SM, M]) WithLogger(logger Logger) *Builder[SM, M] {
	b.logger = logger
	return b
}

// AddState appends a descriptor and returns its id. Ids are assigned in
// declaration order starting at zero. Parent references may point forward
// to states declared later.
func (b *Builder[SM, M]) AddState(s State[SM, M]) StateID {
	b.states = append(b.states, stateInfo[SM, M]{
		name:    s.name,
		parent:  s.parent,
		process: s.process,
		enter:   s.enter,
		exit:    s.exit,
	})
	return StateID(len(b.states) - 1)
}

// Build finalizes the topology and returns a machine positioned to enter
// the initial leaf chain on the first dispatch.
//
// Build returns ErrNoStates, ErrInvalidParent or ErrCycleDetected when the
// declaration is malformed. An initial id that is not a declared leaf is a
// programmer error in the state table and panics.
func (b *Builder[SM, M]) Build(initial StateID) (*Machine[SM, M], error) {
	if len(b.states) == 0 {
		return nil, ErrNoStates
	}
	for id := range b.states {
		parent := b.states[id].parent
		if parent == StateNone {
			continue
		}
		if parent < 0 || int(parent) >= len(b.states) {
			return nil, cloneBuildError(ErrInvalidParent, "", map[string]any{
				"state":  b.states[id].name,
				"parent": int(parent),
			})
		}
	}

	m := &Machine[SM, M]{
		sm:      b.sm,
		states:  b.states,
		changed: true,
		staged:  StateNone,
		logger: withLoggerFields(normalizeLogger(b.logger), map[string]any{
			"component": "hsm.machine",
		}),
	}
	// Descriptors are owned by the machine from here on.
	b.states = nil

	m.initChildren()
	m.computeLeaves()
	if err := m.detectCycle(); err != nil {
		return nil, err
	}

	if initial < 0 || int(initial) >= len(m.states) || !m.isLeaf[initial] {
		panic(fmt.Sprintf("hsm: initial state %d is not a declared leaf, valid targets are %v", initial, m.leaves))
	}

	m.current = initial
	m.previous = initial

	// Seed the pending enter chain, leaf to root, so the first dispatch
	// activates the initial leaf and all of its ancestors.
	for id := initial; ; {
		m.enterPending = append(m.enterPending, id)
		parent := m.states[id].parent
		if parent == StateNone {
			break
		}
		id = parent
	}

	return m, nil
}
