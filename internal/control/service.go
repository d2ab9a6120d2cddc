// Package control applies presets to the fan channel. Every write is
// serialized through a Committer.
package control

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/preset"
)

// Service ties the preset repository to the fan channel
type Service struct {
	repo    *preset.Repository
	ch      fan.Channel
	opts    curve.Options
	commits *Committer
}

// NewService creates a service with its own commit worker
func NewService(repo *preset.Repository, ch fan.Channel, opts curve.Options) *Service {
	return &Service{
		repo:    repo,
		ch:      ch,
		opts:    opts,
		commits: NewCommitter(16),
	}
}

// Close stops the commit worker after queued work has run
func (s *Service) Close() {
	s.commits.Close()
}

// Options returns the curve options presets are validated with
func (s *Service) Options() curve.Options {
	return s.opts
}

// Presets lists the preset library, Default first
func (s *Service) Presets(ctx context.Context) ([]preset.Preset, error) {
	return s.repo.List(ctx)
}

// Preset returns a single preset
func (s *Service) Preset(ctx context.Context, id string) (preset.Preset, error) {
	return s.repo.Get(ctx, id)
}

// Current returns the last applied preset, Default when none was applied
func (s *Service) Current(ctx context.Context) (preset.Preset, error) {
	return s.repo.Current(ctx)
}

// Status reads a live status snapshot from the channel
func (s *Service) Status(ctx context.Context) (fan.Status, error) {
	return fan.ReadStatus(ctx, s.ch)
}

// Channel returns the underlying fan channel
func (s *Service) Channel() fan.Channel {
	return s.ch
}

// Apply sends the preset with the given id to the channel and records it as
// the last applied preset
func (s *Service) Apply(ctx context.Context, id string) (preset.Preset, error) {
	var applied preset.Preset
	err := s.commits.Do(ctx, "apply "+id, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, p); err != nil {
			return err
		}
		applied = p
		return nil
	})
	return applied, err
}

// ApplyAsync queues p for the channel without waiting. done may be nil.
func (s *Service) ApplyAsync(p preset.Preset, done func(error)) error {
	return s.commits.Submit("apply "+p.Name, func(ctx context.Context) error {
		return s.apply(ctx, p)
	}, done)
}

func (s *Service) apply(ctx context.Context, p preset.Preset) error {
	if p.ModifiesDefault() {
		return fmt.Errorf("%w: save the edited curve as a new preset before applying", preset.ErrReadOnly)
	}
	c, err := p.Curve(s.opts)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	if err := s.ch.ApplyCurve(ctx, c.Points()); err != nil {
		return fmt.Errorf("failed to apply %s: %w", p.Name, err)
	}
	if err := s.ch.SetActivePreset(ctx, p.ID, p.Name); err != nil {
		return fmt.Errorf("failed to record %s: %w", p.Name, err)
	}
	if err := s.repo.SetCurrent(ctx, p); err != nil {
		return err
	}
	log.Printf("Applied fan preset %s", p)
	return nil
}

// Enable applies the last applied preset (Default if none) and turns curve
// control on
func (s *Service) Enable(ctx context.Context) (preset.Preset, error) {
	var applied preset.Preset
	err := s.commits.Do(ctx, "enable", func(ctx context.Context) error {
		p, err := s.repo.Current(ctx)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, p); err != nil {
			return err
		}
		if err := s.ch.SetEnabled(ctx, true); err != nil {
			return fmt.Errorf("failed to enable fan control: %w", err)
		}
		applied = p
		return nil
	})
	return applied, err
}

// Disable returns the fan to stock behaviour
func (s *Service) Disable(ctx context.Context) error {
	return s.commits.Do(ctx, "disable", func(ctx context.Context) error {
		if err := s.ch.SetEnabled(ctx, false); err != nil {
			return fmt.Errorf("failed to disable fan control: %w", err)
		}
		return nil
	})
}

// Create stores a new preset
func (s *Service) Create(ctx context.Context, name string, points []curve.TempPoint) (preset.Preset, error) {
	var created preset.Preset
	err := s.commits.Do(ctx, "create "+name, func(ctx context.Context) error {
		p, err := s.repo.Create(ctx, name, points)
		created = p
		return err
	})
	return created, err
}

// Update replaces an existing preset
func (s *Service) Update(ctx context.Context, p preset.Preset) (preset.Preset, error) {
	var updated preset.Preset
	err := s.commits.Do(ctx, "update "+p.ID, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Update(ctx, p)
		return err
	})
	return updated, err
}

// Save stores p, creating it when it is new or read-only and updating it
// otherwise. done receives the stored preset.
func (s *Service) Save(p preset.Preset, done func(preset.Preset, error)) error {
	return s.commits.Submit("save "+p.Name, func(ctx context.Context) error {
		var saved preset.Preset
		var err error
		if p.ID == "" || p.IsDefault() {
			saved, err = s.repo.Create(ctx, p.Name, p.Points)
		} else {
			saved, err = s.repo.Update(ctx, p)
			if errors.Is(err, preset.ErrNotFound) {
				saved, err = s.repo.Create(ctx, p.Name, p.Points)
			}
		}
		if done != nil {
			done(saved, err)
		}
		return err
	}, nil)
}

// Delete removes a stored preset
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.commits.Do(ctx, "delete "+id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}
