// Package pump feeds a machine from concurrent producers.
//
// A Machine serializes everything through one goroutine by contract. Pump
// owns that goroutine: any number of producers call Send, a single consumer
// drains the channel into Machine.DispatchAll, so handlers never need their
// own locking.
package pump

import (
	"context"
	"sync"

	errors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-hsm"
)

var (
	// ErrClosed is returned by Send once Stop has been called.
	ErrClosed = errors.New("pump is closed", errors.CategoryConflict).
			WithTextCode("HSM_PUMP_CLOSED")

	// ErrAlreadyStarted is returned by Start after the first call.
	ErrAlreadyStarted = errors.New("pump already started", errors.CategoryConflict).
				WithTextCode("HSM_PUMP_STARTED")
)

// Pump drives a machine from a buffered channel of messages.
type Pump[SM, M any] struct {
	machine *hsm.Machine[SM, M]

	logger       hsm.Logger
	errorHandler func(error)
	bufferSize   int

	msgs chan M
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	wg        sync.WaitGroup
}

// New wraps a machine in a pump. The machine must not be dispatched to
// directly once the pump is started.
func New[SM, M any](m *hsm.Machine[SM, M], opts ...Option[SM, M]) *Pump[SM, M] {
	p := &Pump[SM, M]{
		machine:    m,
		bufferSize: 64,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.logger == nil {
		p.logger = hsm.NewFmtLogger(nil)
	}
	if p.errorHandler == nil {
		p.errorHandler = func(err error) {
			p.logger.Error("pump dispatch failed error=%v", err)
		}
	}
	p.msgs = make(chan M, p.bufferSize)
	return p
}

// Start launches the consumer goroutine. It returns ErrAlreadyStarted on
// every call after the first. The goroutine exits when ctx is cancelled or
// Stop is called; on Stop it drains whatever is already buffered first.
func (p *Pump[SM, M]) Start(ctx context.Context) error {
	var err error = ErrAlreadyStarted
	p.startOnce.Do(func() {
		err = nil
		p.started = true
		p.wg.Add(1)
		go p.consume(ctx)
	})
	return err
}

// Send queues msg for the consumer. It blocks while the buffer is full and
// returns ErrClosed once the pump has been stopped.
func (p *Pump[SM, M]) Send(msg M) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.msgs <- msg:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

// Stop closes the pump and waits for the consumer to finish the messages
// already buffered. Safe to call more than once.
func (p *Pump[SM, M]) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	if p.started {
		p.wg.Wait()
	}
}

func (p *Pump[SM, M]) consume(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case msg := <-p.msgs:
			p.dispatch(msg)
		case <-ctx.Done():
			return
		case <-p.done:
			p.drain()
			return
		}
	}
}

// drain empties what producers managed to buffer before Stop. Send refuses
// new messages once done is closed, so this terminates.
func (p *Pump[SM, M]) drain() {
	for {
		select {
		case msg := <-p.msgs:
			p.dispatch(msg)
		default:
			return
		}
	}
}

// dispatch runs one message through the machine, converting handler panics
// into errors so a single bad handler does not take down the consumer.
func (p *Pump[SM, M]) dispatch(msg M) {
	defer p.capturePanic()
	p.machine.DispatchAll(msg)
}
