package pump

import "github.com/goliatone/go-hsm"

type Option[SM, M any] func(*Pump[SM, M])

// WithBufferSize sets the message channel capacity. Values below 1 are
// ignored.
func WithBufferSize[SM, M any](size int) Option[SM, M] {
	return func(p *Pump[SM, M]) {
		if size > 0 {
			p.bufferSize = size
		}
	}
}

func WithLogger[SM, M any](l hsm.Logger) Option[SM, M] {
	return func(p *Pump[SM, M]) {
		p.logger = l
	}
}

func WithErrorHandler[SM, M any](h func(error)) Option[SM, M] {
	return func(p *Pump[SM, M]) {
		if h == nil {
			h = func(err error) {}
		}
		p.errorHandler = h
	}
}
