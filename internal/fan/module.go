package fan

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/temps"
)

const (
	keyCurve             = "FAN_CURVE"
	keyEnabled           = "ENABLED"
	keyCurrentPreset     = "CURRENT_PRESET"
	keyCurrentPresetUUID = "CURRENT_PRESET_UUID"
)

// ModuleConfig locates the files and hooks of the fan control module
type ModuleConfig struct {
	ConfigFile      string   `yaml:"config_file"`
	StateFile       string   `yaml:"state_file"`
	DutyPath        string   `yaml:"duty_path"`
	EnableCommands  []string `yaml:"enable_commands"`
	DisableCommands []string `yaml:"disable_commands"`
	ApplyCommands   []string `yaml:"apply_commands"`
}

// DefaultModuleConfig returns the stock module layout
func DefaultModuleConfig() ModuleConfig {
	return ModuleConfig{
		ConfigFile: "/data/adb/modules/rpfanctl/fan_config",
		StateFile:  "/data/adb/modules/rpfanctl/fan_state",
		DutyPath:   "/sys/class/gpio5_pwm2/duty",
		EnableCommands: []string{
			"settings put system fan_mode 6",
		},
		DisableCommands: []string{
			"settings put system performance_mode 1",
			"settings put system fan_mode 4",
		},
	}
}

// ModuleChannel controls the fan through the module's config and state
// files. The module service reads FAN_CURVE and ENABLED and drives the fan.
type ModuleChannel struct {
	mu     sync.Mutex
	cfg    ModuleConfig
	runner Runner
	temps  temps.Reader
	duty   DutyReader
}

// NewModuleChannel creates a channel for the module described by cfg
func NewModuleChannel(cfg ModuleConfig, runner Runner, tempReader temps.Reader, duty DutyReader) *ModuleChannel {
	return &ModuleChannel{
		cfg:    cfg,
		runner: runner,
		temps:  tempReader,
		duty:   duty,
	}
}

// ApplyCurve writes the curve to the module config
func (m *ModuleChannel) ApplyCurve(ctx context.Context, points []curve.TempPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: refusing to apply empty curve", curve.ErrInvalidCurve)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := writeKeys(m.cfg.ConfigFile, map[string]string{keyCurve: FormatCurve(points)}, []string{keyCurve}); err != nil {
		return fmt.Errorf("failed to apply curve: %w", err)
	}
	return m.runAll(ctx, m.cfg.ApplyCommands)
}

// AppliedCurve returns the curve currently written to the module config
func (m *ModuleChannel) AppliedCurve(ctx context.Context) ([]curve.TempPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := readKeys(m.cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	return ParseCurve(values[keyCurve])
}

// SetEnabled switches between curve control and stock fan behaviour
func (m *ModuleChannel) SetEnabled(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	value := "0"
	if enabled {
		value = "1"
	}
	if err := writeKeys(m.cfg.StateFile, map[string]string{keyEnabled: value}, []string{keyEnabled}); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}

	commands := m.cfg.DisableCommands
	if enabled {
		commands = m.cfg.EnableCommands
	}
	return m.runAll(ctx, commands)
}

// IsEnabled reports whether curve control is on
func (m *ModuleChannel) IsEnabled(ctx context.Context) (bool, error) {
	values, err := m.state()
	if err != nil {
		return false, err
	}
	return values[keyEnabled] == "1", nil
}

// CurrentDuty returns the raw duty driven to the fan
func (m *ModuleChannel) CurrentDuty(ctx context.Context) (int, error) {
	if m.duty == nil {
		return 0, fmt.Errorf("%w: no duty source", ErrChannelUnavailable)
	}
	return m.duty.ReadDuty(ctx)
}

// CurrentTemperatureMilliCelsius returns the temperature the module follows
func (m *ModuleChannel) CurrentTemperatureMilliCelsius(ctx context.Context) (int, error) {
	if m.temps == nil {
		return 0, fmt.Errorf("%w: no temperature source", ErrChannelUnavailable)
	}
	value, err := m.temps.ReadMilliCelsius(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	return value, nil
}

// SetActivePreset records the applied preset in the module state
func (m *ModuleChannel) SetActivePreset(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	updates := map[string]string{keyCurrentPreset: name, keyCurrentPresetUUID: id}
	if err := writeKeys(m.cfg.StateFile, updates, []string{keyCurrentPreset, keyCurrentPresetUUID}); err != nil {
		return fmt.Errorf("failed to record preset: %w", err)
	}
	return nil
}

// ActivePresetID returns the recorded preset id
func (m *ModuleChannel) ActivePresetID(ctx context.Context) (string, bool, error) {
	values, err := m.state()
	if err != nil {
		return "", false, err
	}
	id := values[keyCurrentPresetUUID]
	return id, id != "", nil
}

// ActivePresetName returns the recorded preset name
func (m *ModuleChannel) ActivePresetName(ctx context.Context) (string, error) {
	values, err := m.state()
	if err != nil {
		return "", err
	}
	return values[keyCurrentPreset], nil
}

func (m *ModuleChannel) state() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return readKeys(m.cfg.StateFile)
}

func (m *ModuleChannel) runAll(ctx context.Context, commands []string) error {
	if m.runner == nil {
		return nil
	}
	for _, command := range commands {
		if _, err := m.runner.Run(ctx, command); err != nil {
			log.Printf("Fan hook failed: %v", err)
			return err
		}
	}
	return nil
}
