package fan

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
)

// CurveSource returns the curve the governor should follow
type CurveSource interface {
	AppliedCurve(ctx context.Context) ([]curve.TempPoint, error)
}

// Governor drives a PWM output from the applied curve when no module
// service does it for us
type Governor struct {
	ch       Channel
	src      CurveSource
	out      DutyWriter
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGovernor creates a governor updating out every interval
func NewGovernor(ch Channel, src CurveSource, out DutyWriter, interval time.Duration) *Governor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Governor{ch: ch, src: src, out: out, interval: interval}
}

// Start runs the control loop until Stop or ctx is done. Starting a running
// governor is a no-op.
func (g *Governor) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, _, err := g.Step(ctx); err != nil {
					log.Printf("Governor step failed: %v", err)
				}
			}
		}
	}(g.done)
}

// Stop halts the control loop and waits for it to exit
func (g *Governor) Stop() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Step applies the curve once. It reports the duty written and whether
// control was enabled.
func (g *Governor) Step(ctx context.Context) (int, bool, error) {
	enabled, err := g.ch.IsEnabled(ctx)
	if err != nil || !enabled {
		return 0, false, err
	}

	points, err := g.src.AppliedCurve(ctx)
	if err != nil {
		return 0, true, err
	}
	c, err := curve.New(points, curve.Options{})
	if err != nil {
		return 0, true, err
	}

	temp, err := g.ch.CurrentTemperatureMilliCelsius(ctx)
	if err != nil {
		return 0, true, err
	}

	duty := c.DutyForTemperature(temp)
	if err := g.out.WriteDuty(ctx, duty); err != nil {
		return 0, true, err
	}
	return duty, true, nil
}
