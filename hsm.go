// Package hsm implements a hierarchical state machine execution engine.
//
// A machine owns a fixed tree of named states. Messages are dispatched to
// the currently active leaf and bubble to ancestors while handlers report
// them as not handled. Handlers may request a transition to another leaf;
// the engine computes the minimal exit/enter chains relative to the lowest
// common active ancestor and runs enter/exit callbacks exactly once per
// activation. Handlers may also defer messages for reprocessing after the
// current transition round completes.
//
// The topology is declared through a Builder and validated once: the parent
// relation must be acyclic and only leaves (states without children) are
// legal transition destinations. Composite states become active implicitly,
// as ancestors of an activated leaf.
package hsm

// StateID indexes a state descriptor within a machine. IDs are dense,
// assigned in AddState order, and stable for the machine's lifetime.
type StateID int

// StateNone marks the absence of a state: a root's parent, or no staged
// transition.
const StateNone StateID = -1

// ProcessFn handles a message delivered to a state. It reports whether the
// message was handled and, optionally, a destination leaf to transition to.
// Return StateNone to stay in the current state. Unhandled messages bubble
// to the state's parent with the same message.
//
// The machine argument gives handlers access to introspection accessors and
// Defer; handlers must not call Dispatch or DispatchAll on it.
type ProcessFn[SM, M any] func(sm *SM, m *Machine[SM, M], msg M) (handled bool, next StateID)

// EnterFn runs once when a state becomes active.
type EnterFn[SM, M any] func(sm *SM, msg M)

// ExitFn runs once when a state is deactivated.
type ExitFn[SM, M any] func(sm *SM, msg M)

// stateInfo is one descriptor in the machine's registry.
type stateInfo[SM, M any] struct {
	name    string
	parent  StateID
	process ProcessFn[SM, M]
	enter   EnterFn[SM, M]
	exit    ExitFn[SM, M]
	active  bool

	// children is populated at build time and consumed destructively by
	// the cycle detector; it is not maintained afterwards.
	children []StateID

	enterCount   uint64
	processCount uint64
	exitCount    uint64
}

// State declares one descriptor for Builder.AddState. Construct with
// NewState and refine with the With* chainers.
type State[SM, M any] struct {
	name    string
	parent  StateID
	process ProcessFn[SM, M]
	enter   EnterFn[SM, M]
	exit    ExitFn[SM, M]
}

// NewState declares a root-level state with a process handler. Use
// WithParent to nest it under an already or later declared state.
func NewState[SM, M any](name string, process ProcessFn[SM, M]) State[SM, M] {
	return State[SM, M]{
		name:    name,
		parent:  StateNone,
		process: process,
	}
}

// WithParent nests the state under the state declared at parent.
func (s State[SM, M]) WithParent(parent StateID) State[SM, M] {
	s.parent = parent
	return s
}

// WithEnter sets the enter callback.
func (s State[SM, M]) WithEnter(fn EnterFn[SM, M]) State[SM, M] {
	s.enter = fn
	return s
}

// WithExit sets the exit callback.
func (s State[SM, M]) WithExit(fn ExitFn[SM, M]) State[SM, M] {
	s.exit = fn
	return s
}

// StateSnapshot is a read-only view of one descriptor, used by tooling and
// tests.
type StateSnapshot struct {
	ID     StateID
	Name   string
	Parent StateID
	Leaf   bool
	Active bool

	EnterCount   uint64
	ProcessCount uint64
	ExitCount    uint64
}
