package hsm

// Defer requeues msg for dispatch after the current transition round
// completes. Handlers call this during processing to push work into a later
// round; DispatchAll drains the queue. Messages deferred while processing
// round N are dispatched, in FIFO order, before any message deferred while
// dispatching them.
func (m *Machine[SM, M]) Defer(msg M) {
	m.deferred[m.deferIdx] = append(m.deferred[m.deferIdx], msg)
}

// DeferredLen reports how many messages are queued in the current deferred
// buffer.
func (m *Machine[SM, M]) DeferredLen() int {
	return len(m.deferred[m.deferIdx])
}

// DispatchAll dispatches msg and then drains deferred messages round by
// round: while dispatches keep producing transitions, the two buffers swap
// and everything queued in the now-inactive buffer is dispatched in FIFO
// order, with newly deferred messages landing in the fresh buffer for the
// next round. Messages still deferred when no dispatch transitions remain
// queued until a later DispatchAll causes a transition.
func (m *Machine[SM, M]) DispatchAll(msg M) {
	transitioned := m.Dispatch(msg)
	for transitioned {
		transitioned = false

		m.deferIdx = 1 - m.deferIdx
		other := 1 - m.deferIdx
		pending := m.deferred[other]
		m.deferred[other] = nil

		for _, deferred := range pending {
			if m.Dispatch(deferred) {
				transitioned = true
			}
		}
	}
}
