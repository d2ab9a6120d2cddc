package control

import (
	"context"
	"fmt"

	"github.com/CristiGvl/picoFanCtl/internal/preset"
)

// ToggleResult is what a quick toggle activation produced. When control was
// already on, Presets holds the choices and ActiveID the current one.
// Otherwise Applied is the preset control was enabled with.
type ToggleResult struct {
	Enabled  bool            `json:"enabled"`
	Presets  []preset.Preset `json:"presets,omitempty"`
	ActiveID string          `json:"active_id,omitempty"`
	Applied  *preset.Preset  `json:"applied,omitempty"`
}

// Toggle is the one-tap fan control switch
type Toggle struct {
	svc *Service
}

// NewToggle creates a toggle backed by svc
func NewToggle(svc *Service) *Toggle {
	return &Toggle{svc: svc}
}

// Activate offers the preset list when control is on and enables control with
// the last applied preset when it is off
func (t *Toggle) Activate(ctx context.Context) (ToggleResult, error) {
	enabled, err := t.svc.ch.IsEnabled(ctx)
	if err != nil {
		return ToggleResult{}, err
	}

	if !enabled {
		p, err := t.svc.Enable(ctx)
		if err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Enabled: true, ActiveID: p.ID, Applied: &p}, nil
	}

	presets, err := t.svc.Presets(ctx)
	if err != nil {
		return ToggleResult{}, err
	}
	res := ToggleResult{Enabled: true, Presets: presets}
	if id, ok, err := t.svc.ch.ActivePresetID(ctx); err != nil {
		return ToggleResult{}, err
	} else if ok {
		res.ActiveID = id
	}
	return res, nil
}

// Select applies the chosen preset
func (t *Toggle) Select(ctx context.Context, id string) (preset.Preset, error) {
	return t.svc.Apply(ctx, id)
}

// Disable turns curve control off
func (t *Toggle) Disable(ctx context.Context) error {
	return t.svc.Disable(ctx)
}

// Label describes the toggle state, e.g. "Fan: Quiet" or "Fan: off"
func (t *Toggle) Label(ctx context.Context) (string, error) {
	enabled, err := t.svc.ch.IsEnabled(ctx)
	if err != nil {
		return "", err
	}
	if !enabled {
		return "Fan: off", nil
	}
	p, err := t.svc.repo.Current(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Fan: %s", p.Name), nil
}
