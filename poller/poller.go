// Package poller re-fetches a resource on a fixed interval for as long as the
// resource reports work in flight.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/rs/zerolog"
)

// FetchFunc loads the resource once and reports whether work is still in flight.
type FetchFunc func(ctx context.Context) (inFlight bool, err error)

type Poller struct {
	interval     time.Duration
	fetch        FetchFunc
	onError      func(error)
	stopWhenIdle bool
	logger       zerolog.Logger

	inFlight atomic.Bool
	kick     chan struct{}
}

type Option func(*Poller)

// WithErrorHandler receives every fetch error. Polling continues afterwards.
func WithErrorHandler(fn func(error)) Option {
	return func(p *Poller) {
		p.onError = fn
	}
}

// StopWhenIdle makes Run return once a fetch reports nothing in flight.
func StopWhenIdle() Option {
	return func(p *Poller) {
		p.stopWhenIdle = true
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

func New(interval time.Duration, fetch FetchFunc, options ...Option) (*Poller, error) {
	if interval <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[poller New] interval must be positive, got %s", interval)
	}
	if fetch == nil {
		return nil, errors.New("[poller New] fetch function is required")
	}
	p := &Poller{
		interval: interval,
		fetch:    fetch,
		logger:   zerolog.Nop(),
		kick:     make(chan struct{}, 1),
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Kick marks work as in flight, for example right after starting a run, and
// triggers a fetch without waiting for the next tick.
func (p *Poller) Kick() {
	p.inFlight.Store(true)
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Poller) InFlight() bool {
	return p.inFlight.Load()
}

// Run fetches once immediately, then on every tick while work is in flight.
// It returns ctx.Err() on cancellation, or nil when StopWhenIdle is set and
// the resource went idle.
func (p *Poller) Run(ctx context.Context) error {
	p.inFlight.Store(true)
	p.poll(ctx)
	if p.idleStop() {
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.kick:
			p.poll(ctx)
		case <-ticker.C:
			if !p.inFlight.Load() {
				continue
			}
			p.poll(ctx)
		}
		if p.idleStop() {
			return nil
		}
	}
}

func (p *Poller) idleStop() bool {
	return p.stopWhenIdle && !p.inFlight.Load()
}

func (p *Poller) poll(ctx context.Context) {
	inFlight, err := p.fetch(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("poll failed")
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	p.inFlight.Store(inFlight)
}
