package hsm

// initChildren computes each state's child set from the parent pointers.
func (m *Machine[SM, M]) initChildren() {
	for id := range m.states {
		parent := m.states[id].parent
		if parent == StateNone {
			continue
		}
		m.states[parent].children = append(m.states[parent].children, StateID(id))
	}
}

// computeLeaves records which ids are valid transition targets: states with
// no children. Composite states are only ever entered implicitly, as
// ancestors of an activated leaf.
func (m *Machine[SM, M]) computeLeaves() {
	m.isLeaf = make([]bool, len(m.states))
	for id := range m.states {
		if len(m.states[id].children) == 0 {
			m.leaves = append(m.leaves, StateID(id))
			m.isLeaf[id] = true
		}
	}
}

// detectCycle prunes leaves iteratively, a Kahn's-algorithm variant over
// the parent-pointer forest: pop a leaf, detach it from its parent's child
// set, and promote the parent once its child set empties. Nodes never
// visited this way sit on at least one cycle.
//
// The child sets are consumed destructively; they are not needed after
// build time.
func (m *Machine[SM, M]) detectCycle() error {
	worklist := append([]StateID(nil), m.leaves...)

	visited := 0
	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		visited++

		parent := m.states[id].parent
		if parent == StateNone {
			continue
		}

		children := m.states[parent].children
		for i, child := range children {
			if child == id {
				children = append(children[:i], children[i+1:]...)
				break
			}
		}
		m.states[parent].children = children

		if len(children) == 0 {
			worklist = append(worklist, parent)
		}
	}

	if visited != len(m.states) {
		return cloneBuildError(ErrCycleDetected, "", map[string]any{
			"declared": len(m.states),
			"visited":  visited,
		})
	}
	return nil
}
