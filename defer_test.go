package hsm

import (
	"reflect"
	"testing"
)

type deferCtx struct {
	order []string
}

// The flip machine transitions on every message so DispatchAll keeps
// draining deferred rounds; handlers record processing order and may defer
// follow-up messages.
func newFlipMachine(t *testing.T, onMsg func(sm *deferCtx, m *Machine[deferCtx, string], msg string)) *Machine[deferCtx, string] {
	t.Helper()
	ctx := &deferCtx{}
	b := NewBuilder[deferCtx, string](ctx)

	var left, right StateID
	record := func(next *StateID) ProcessFn[deferCtx, string] {
		return func(sm *deferCtx, m *Machine[deferCtx, string], msg string) (bool, StateID) {
			sm.order = append(sm.order, msg)
			if onMsg != nil {
				onMsg(sm, m, msg)
			}
			return true, *next
		}
	}
	left = b.AddState(NewState("left", record(&right)))
	right = b.AddState(NewState("right", record(&left)))

	m, err := b.Build(left)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func TestDispatchAllDrainsDeferredInFIFOOrder(t *testing.T) {
	m := newFlipMachine(t, func(_ *deferCtx, m *Machine[deferCtx, string], msg string) {
		if msg == "start" {
			m.Defer("first")
			m.Defer("second")
		}
	})

	m.DispatchAll("start")

	want := []string{"start", "first", "second"}
	if got := m.sm.order; !reflect.DeepEqual(got, want) {
		t.Fatalf("dispatch order = %v, want %v", got, want)
	}
	if m.DeferredLen() != 0 {
		t.Fatalf("expected drained deferred buffers, %d left", m.DeferredLen())
	}
}

// Messages deferred while draining round N must wait for every round-N
// message: X is deferred while processing the start message, Y is deferred
// while reprocessing X, and Y must not run before the rest of round one.
func TestDispatchAllDrainsRoundByRound(t *testing.T) {
	m := newFlipMachine(t, func(_ *deferCtx, m *Machine[deferCtx, string], msg string) {
		switch msg {
		case "start":
			m.Defer("x1")
			m.Defer("x2")
		case "x1":
			m.Defer("y")
		}
	})

	m.DispatchAll("start")

	want := []string{"start", "x1", "x2", "y"}
	if got := m.sm.order; !reflect.DeepEqual(got, want) {
		t.Fatalf("dispatch order = %v, want %v", got, want)
	}
}

func TestDeferredMessagesWaitForATransition(t *testing.T) {
	ctx := &deferCtx{}
	b := NewBuilder[deferCtx, string](ctx)
	idle := b.AddState(NewState("idle", func(sm *deferCtx, m *Machine[deferCtx, string], msg string) (bool, StateID) {
		sm.order = append(sm.order, msg)
		if msg == "queue" {
			m.Defer("later")
		}
		return true, StateNone
	}))
	m, err := b.Build(idle)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// No transition occurs, so the deferred message stays queued.
	m.DispatchAll("queue")
	want := []string{"queue"}
	if got := ctx.order; !reflect.DeepEqual(got, want) {
		t.Fatalf("dispatch order = %v, want %v", got, want)
	}
	if m.DeferredLen() != 1 {
		t.Fatalf("expected 1 queued message, got %d", m.DeferredLen())
	}
}
