// Package fantest provides an in-memory fan.Channel for tests.
package fantest

import (
	"context"
	"sync"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
)

// Channel records every call and serves configurable readings
type Channel struct {
	mu sync.Mutex

	Enabled     bool
	Curve       []curve.TempPoint
	Duty        int
	MilliC      int
	PresetID    string
	PresetName  string
	Applies     int
	Toggles     int
	Err         error
	Delay       time.Duration
	inFlight    int
	MaxInFlight int
}

// New returns a channel reporting 45°C and idle duty
func New() *Channel {
	return &Channel{Duty: curve.IdleDuty, MilliC: 45000}
}

// Fail makes every later call return err. Pass nil to recover.
func (c *Channel) Fail(err error) {
	c.mu.Lock()
	c.Err = err
	c.mu.Unlock()
}

func (c *Channel) enter() func() {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.MaxInFlight {
		c.MaxInFlight = c.inFlight
	}
	delay := c.Delay
	c.mu.Unlock()
	time.Sleep(delay)
	return func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}
}

func (c *Channel) ApplyCurve(ctx context.Context, points []curve.TempPoint) error {
	defer c.enter()()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Curve = append([]curve.TempPoint(nil), points...)
	c.Applies++
	return nil
}

func (c *Channel) SetEnabled(ctx context.Context, enabled bool) error {
	defer c.enter()()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Enabled = enabled
	c.Toggles++
	return nil
}

func (c *Channel) IsEnabled(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Enabled, c.Err
}

func (c *Channel) CurrentDuty(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Duty, c.Err
}

func (c *Channel) CurrentTemperatureMilliCelsius(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.MilliC, c.Err
}

func (c *Channel) SetActivePreset(ctx context.Context, id, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.PresetID, c.PresetName = id, name
	return nil
}

func (c *Channel) ActivePresetID(ctx context.Context) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.PresetID, c.PresetID != "", c.Err
}

// Snapshot returns the enabled flag and applied curve
func (c *Channel) Snapshot() (bool, []curve.TempPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Enabled, append([]curve.TempPoint(nil), c.Curve...)
}

var _ fan.Channel = (*Channel)(nil)
