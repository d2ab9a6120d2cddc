// Package status polls the fan channel for live readings.
package status

import (
	"context"
	"sync"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/fan"
)

// DefaultInterval is the status refresh period
const DefaultInterval = time.Second

// Poller reads fan.Status on a fixed period while started. Start and Stop
// may be called any number of times; at most one ticker runs.
type Poller struct {
	ch       fan.Channel
	interval time.Duration
	onUpdate func(fan.Status, error)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	last    fan.Status
	lastErr error
	polled  bool
}

// NewPoller creates a poller. onUpdate may be nil and is called from the
// poller goroutine.
func NewPoller(ch fan.Channel, interval time.Duration, onUpdate func(fan.Status, error)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{ch: ch, interval: interval, onUpdate: onUpdate}
}

// SetVisible starts polling when the consumer is visible and stops it otherwise
func (p *Poller) SetVisible(ctx context.Context, visible bool) {
	if visible {
		p.Start(ctx)
		return
	}
	p.Stop()
}

// Start polls immediately and then every interval until Stop or ctx is done
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop cancels polling and waits for the loop to exit
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the poll loop is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Last returns the most recent reading. ok is false before the first poll.
func (p *Poller) Last() (st fan.Status, ok bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.polled, p.lastErr
}

// Poll reads the channel once and records the result
func (p *Poller) Poll(ctx context.Context) (fan.Status, error) {
	st, err := fan.ReadStatus(ctx, p.ch)

	p.mu.Lock()
	if err == nil {
		p.last = st
	}
	p.lastErr = err
	p.polled = true
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(st, err)
	}
	return st, err
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}
