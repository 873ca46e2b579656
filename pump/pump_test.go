package pump_test

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-hsm"
	"github.com/goliatone/go-hsm/pump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	seen []string
}

func newCounterMachine(t *testing.T, process hsm.ProcessFn[counter, string]) (*hsm.Machine[counter, string], *counter) {
	t.Helper()
	sm := &counter{}
	b := hsm.NewBuilder[counter, string](sm)
	id := b.AddState(hsm.NewState("only", process))
	m, err := b.Build(id)
	require.NoError(t, err)
	return m, sm
}

func TestPumpDispatchesEverythingSent(t *testing.T) {
	m, sm := newCounterMachine(t, func(sm *counter, _ *hsm.Machine[counter, string], msg string) (bool, hsm.StateID) {
		sm.seen = append(sm.seen, msg)
		return true, hsm.StateNone
	})

	p := pump.New(m, pump.WithBufferSize[counter, string](8))
	require.NoError(t, p.Start(context.Background()))

	for _, msg := range []string{"a", "b", "c"} {
		require.NoError(t, p.Send(msg))
	}
	p.Stop()

	// Stop waits for the consumer, so reading the context is safe here.
	assert.Equal(t, []string{"a", "b", "c"}, sm.seen)
	assert.Equal(t, uint64(3), m.ProcessCount(0))
}

func TestPumpSendAfterStopFails(t *testing.T) {
	m, _ := newCounterMachine(t, func(_ *counter, _ *hsm.Machine[counter, string], _ string) (bool, hsm.StateID) {
		return true, hsm.StateNone
	})

	p := pump.New(m)
	require.NoError(t, p.Start(context.Background()))
	p.Stop()

	err := p.Send("late")
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "HSM_PUMP_CLOSED", appErr.TextCode)
}

func TestPumpStartIsOneShot(t *testing.T) {
	m, _ := newCounterMachine(t, func(_ *counter, _ *hsm.Machine[counter, string], _ string) (bool, hsm.StateID) {
		return true, hsm.StateNone
	})

	p := pump.New(m)
	defer p.Stop()

	require.NoError(t, p.Start(context.Background()))

	err := p.Start(context.Background())
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "HSM_PUMP_STARTED", appErr.TextCode)
}

func TestPumpSurvivesHandlerPanic(t *testing.T) {
	m, sm := newCounterMachine(t, func(sm *counter, _ *hsm.Machine[counter, string], msg string) (bool, hsm.StateID) {
		if msg == "boom" {
			panic("handler exploded")
		}
		sm.seen = append(sm.seen, msg)
		return true, hsm.StateNone
	})

	captured := make(chan error, 1)
	p := pump.New(m, pump.WithErrorHandler[counter, string](func(err error) {
		captured <- err
	}))
	require.NoError(t, p.Start(context.Background()))

	require.NoError(t, p.Send("boom"))
	require.NoError(t, p.Send("after"))

	select {
	case err := <-captured:
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "HSM_PUMP_PANIC", appErr.TextCode)
	case <-time.After(2 * time.Second):
		t.Fatal("panic was never surfaced to the error handler")
	}

	p.Stop()
	assert.Equal(t, []string{"after"}, sm.seen)
}
