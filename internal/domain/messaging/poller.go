package messaging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reloader refreshes a view from the server.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Poller reloads on a fixed interval until its context ends.
type Poller struct {
	target   Reloader
	interval time.Duration
	logger   zerolog.Logger
	onReload func(error)
}

type PollerOption func(*Poller)

// OnReload is called after every reload attempt with its error.
func OnReload(fn func(error)) PollerOption {
	return func(p *Poller) { p.onReload = fn }
}

func NewPoller(target Reloader, interval time.Duration, logger zerolog.Logger, opts ...PollerOption) *Poller {
	p := &Poller{target: target, interval: interval, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run reloads once immediately and then on every tick. Reload errors are
// logged and polling continues. It returns ctx.Err() when ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.reload(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.reload(ctx)
		}
	}
}

func (p *Poller) reload(ctx context.Context) {
	err := p.target.Reload(ctx)
	if err != nil && ctx.Err() == nil {
		p.logger.Warn().Err(err).Msg("poll reload failed")
	}
	if p.onReload != nil {
		p.onReload(err)
	}
}
