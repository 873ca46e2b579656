package hsm

import "fmt"

// Machine executes one state tree. Execution is single-threaded and
// synchronous: a dispatch runs to completion before returning, and the
// machine is not reentrant. Handlers must not call Dispatch or DispatchAll
// on their own machine; Defer and the introspection accessors are the
// handler-facing surface.
type Machine[SM, M any] struct {
	sm     *SM
	states []stateInfo[SM, M]
	logger Logger

	// leaves lists the valid transition targets; isLeaf indexes by id.
	leaves []StateID
	isLeaf []bool

	current  StateID
	previous StateID

	changed      bool
	staged       StateID
	enterPending []StateID // built leaf-to-root, drained root-to-leaf
	exitPending  []StateID // drained front-to-back

	deferred [2][]M
	deferIdx int
}

// Dispatch routes msg to the current leaf, bubbling to ancestors while
// handlers report it as not handled, and reports whether a transition
// occurred during the call. Entry actions staged by a previous transition
// run first.
func (m *Machine[SM, M]) Dispatch(msg M) bool {
	m.step(msg, m.current)
	return m.changed
}

// step is the recursive dispatch kernel.
func (m *Machine[SM, M]) step(msg M, id StateID) {
	if m.changed {
		// Drain pending enters root-to-leaf so ancestors activate before
		// descendants. Only the first frame of a dispatch sees changed
		// set; recursive frames find it already cleared.
		for n := len(m.enterPending); n > 0; n = len(m.enterPending) {
			entered := m.enterPending[n-1]
			m.enterPending = m.enterPending[:n-1]
			st := &m.states[entered]
			st.enterCount++
			st.active = true
			if st.enter != nil {
				st.enter(m.sm, msg)
			}
		}
		m.changed = false
	}

	m.states[id].processCount++
	handled, next := m.states[id].process(m.sm, m, msg)
	if next != StateNone && m.staged == StateNone {
		// First staged transition wins across the bubble chain: a more
		// specific handler beats ancestors invoked later in this pass.
		m.staged = next
	}
	if !handled {
		if parent := m.states[id].parent; parent != StateNone {
			m.step(msg, parent)
		}
		// No parent means the message is dropped. That is ordinary
		// control flow, not an error.
	}

	// Consume the staged slot exactly once; outer frames that bubbled the
	// message find it already cleared.
	if dest := m.staged; dest != StateNone {
		m.staged = StateNone
		if dest < 0 || int(dest) >= len(m.states) || !m.isLeaf[dest] {
			panic(fmt.Sprintf("hsm: %d is not a valid transition target, only %v are allowed", dest, m.leaves))
		}
		m.planTransition(dest)
		m.previous = m.current
		m.current = dest
		m.changed = true
		m.logger.Debug("transition staged from=%s to=%s", m.states[m.previous].name, m.states[dest].name)
	}

	if m.changed {
		// Exit actions run now, front-to-back. The freshly planned enter
		// chain is deliberately left for the top of the next dispatch.
		for len(m.exitPending) > 0 {
			exited := m.exitPending[0]
			m.exitPending = m.exitPending[1:]
			st := &m.states[exited]
			st.exitCount++
			st.active = false
			if st.exit != nil {
				st.exit(m.sm, msg)
			}
		}
	}
}

// planTransition computes the minimal exit and enter chains for a
// transition to dest, relative to the lowest common active ancestor. The
// chain shared by the old and new active paths is neither exited nor
// re-entered.
func (m *Machine[SM, M]) planTransition(dest StateID) {
	// Walk up from the destination. Everything below the first ancestor
	// that is already active (the exit sentinel) must be entered; the
	// sentinel itself and anything above it stays untouched.
	sentinel := StateNone
	for id := dest; ; {
		m.enterPending = append(m.enterPending, id)
		parent := m.states[id].parent
		if parent == StateNone {
			break
		}
		id = parent
		if m.states[id].active {
			sentinel = id
			break
		}
	}

	// The current leaf always exits, even when the destination lies within
	// its own ancestor chain. Ancestors exit up to the sentinel, exclusive.
	id := m.current
	m.exitPending = append(m.exitPending, id)
	for {
		parent := m.states[id].parent
		if parent == StateNone || parent == sentinel {
			return
		}
		id = parent
		m.exitPending = append(m.exitPending, id)
	}
}

// Len returns the number of declared states.
func (m *Machine[SM, M]) Len() int {
	return len(m.states)
}

// StateName returns the display name for id.
func (m *Machine[SM, M]) StateName(id StateID) string {
	return m.states[id].name
}

// CurrentState returns the id of the current leaf.
func (m *Machine[SM, M]) CurrentState() StateID {
	return m.current
}

// PreviousState returns the leaf that was current before the last
// transition. Before any transition it equals the initial state.
func (m *Machine[SM, M]) PreviousState() StateID {
	return m.previous
}

// CurrentStateName returns the display name of the current leaf.
func (m *Machine[SM, M]) CurrentStateName() string {
	return m.states[m.current].name
}

// EnterCount reports how many times the state's entry action ran.
func (m *Machine[SM, M]) EnterCount(id StateID) uint64 {
	return m.states[id].enterCount
}

// ProcessCount reports how many times the state's process handler ran.
func (m *Machine[SM, M]) ProcessCount(id StateID) uint64 {
	return m.states[id].processCount
}

// ExitCount reports how many times the state's exit action ran.
func (m *Machine[SM, M]) ExitCount(id StateID) uint64 {
	return m.states[id].exitCount
}

// Snapshot returns a read-only view of every descriptor, in id order.
func (m *Machine[SM, M]) Snapshot() []StateSnapshot {
	out := make([]StateSnapshot, len(m.states))
	for id := range m.states {
		st := &m.states[id]
		out[id] = StateSnapshot{
			ID:           StateID(id),
			Name:         st.name,
			Parent:       st.parent,
			Leaf:         m.isLeaf[id],
			Active:       st.active,
			EnterCount:   st.enterCount,
			ProcessCount: st.processCount,
			ExitCount:    st.exitCount,
		}
	}
	return out
}
