// Package config loads picoFanCtl settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/editor"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/preset"
	"github.com/CristiGvl/picoFanCtl/internal/render"
	"github.com/CristiGvl/picoFanCtl/internal/temps"
	"gopkg.in/yaml.v3"
)

const (
	defaultPath           = "picofanctl.yaml"
	defaultBind           = "0.0.0.0"
	defaultPort           = "8080"
	defaultEditorAddr     = "0.0.0.0:8081"
	defaultPollIntervalMs = 1000
	defaultGovernorMs     = 2000
	envPrefix             = "PICOFAN_"
)

// ServerConfig holds listener addresses
type ServerConfig struct {
	Bind       string `yaml:"bind"`
	Port       string `yaml:"port"`
	EditorAddr string `yaml:"editor_addr"`
}

// Address returns the REST API listen address
func (s ServerConfig) Address() string {
	return s.Bind + ":" + s.Port
}

// GovernorConfig controls the in-process curve loop
type GovernorConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMs int  `yaml:"interval_ms"`
}

// Config holds runtime configuration values
type Config struct {
	Server          ServerConfig     `yaml:"server"`
	PresetsPath     string           `yaml:"presets_path"`
	PollIntervalMs  int              `yaml:"poll_interval_ms"`
	ThermalZone     string           `yaml:"thermal_zone"`
	PrivilegePrefix []string         `yaml:"privilege_prefix"`
	Curve           curve.Options    `yaml:"curve"`
	Editor          editor.Config    `yaml:"editor"`
	Padding         editor.Padding   `yaml:"padding"`
	Render          render.Options   `yaml:"render"`
	Theme           render.Theme     `yaml:"theme"`
	Module          fan.ModuleConfig `yaml:"module"`
	Governor        GovernorConfig   `yaml:"governor"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:       defaultBind,
			Port:       defaultPort,
			EditorAddr: defaultEditorAddr,
		},
		PresetsPath:     preset.DefaultPath(),
		PollIntervalMs:  defaultPollIntervalMs,
		ThermalZone:     temps.DefaultZonePath,
		PrivilegePrefix: []string{"su", "-c"},
		Curve:           curve.Options{EnforceMonotonicDuty: true},
		Editor:          editor.DefaultConfig(),
		Padding:         editor.DefaultPadding,
		Render:          render.DefaultOptions(),
		Module:          fan.DefaultModuleConfig(),
		Governor:        GovernorConfig{IntervalMs: defaultGovernorMs},
	}
}

// DefaultPath returns the config file used when none is given
func DefaultPath() string {
	return envString("CONFIG", defaultPath)
}

// PollInterval returns the status poll period
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// GovernorInterval returns the governor tick period
func (c Config) GovernorInterval() time.Duration {
	return time.Duration(c.Governor.IntervalMs) * time.Millisecond
}

// Load reads defaults, then the YAML file at path if it exists, then
// PICOFAN_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides values from PICOFAN_* variables
func (c *Config) applyEnv() error {
	c.Server.Bind = envString("BIND", c.Server.Bind)
	c.Server.Port = envString("PORT", c.Server.Port)
	c.Server.EditorAddr = envString("EDITOR_ADDR", c.Server.EditorAddr)
	c.PresetsPath = envString("PRESETS_PATH", c.PresetsPath)
	c.ThermalZone = envString("THERMAL_ZONE", c.ThermalZone)
	c.Module.ConfigFile = envString("MODULE_CONFIG_FILE", c.Module.ConfigFile)
	c.Module.StateFile = envString("MODULE_STATE_FILE", c.Module.StateFile)
	c.Module.DutyPath = envString("DUTY_PATH", c.Module.DutyPath)
	if prefix := envString("PRIVILEGE_PREFIX", ""); prefix != "" {
		c.PrivilegePrefix = strings.Fields(prefix)
	}

	poll, err := envInt("POLL_INTERVAL_MS", c.PollIntervalMs)
	if err != nil {
		return err
	}
	c.PollIntervalMs = poll

	governorMs, err := envInt("GOVERNOR_INTERVAL_MS", c.Governor.IntervalMs)
	if err != nil {
		return err
	}
	c.Governor.IntervalMs = governorMs
	c.Governor.Enabled = envBool("GOVERNOR", c.Governor.Enabled)

	c.Curve.EnforceMonotonicDuty = envBool("MONOTONIC_DUTY", c.Curve.EnforceMonotonicDuty)
	c.Render.ExtendToDomainEdge = envBool("EXTEND_TO_EDGE", c.Render.ExtendToDomainEdge)
	c.Editor.ClearSelectionOnRelease = envBool("CLEAR_SELECTION_ON_RELEASE", c.Editor.ClearSelectionOnRelease)
	c.Theme.Dark = envBool("DARK_THEME", c.Theme.Dark)
	return nil
}

// Validate rejects values the service cannot run with
func (c Config) Validate() error {
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be > 0")
	}
	if c.Governor.IntervalMs <= 0 {
		return fmt.Errorf("governor.interval_ms must be > 0")
	}
	if c.Editor.Density <= 0 {
		return fmt.Errorf("editor.density must be > 0")
	}
	if c.Editor.TouchSlopDP < 0 || c.Editor.ToleranceDP <= 0 {
		return fmt.Errorf("editor.touch_slop_dp must be >= 0 and editor.tolerance_dp > 0")
	}
	if c.Render.TempStep <= 0 || c.Render.FanStep <= 0 {
		return fmt.Errorf("render.temp_step and render.fan_step must be > 0")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric: %w", err)
	}
	if c.PresetsPath == "" {
		return fmt.Errorf("presets_path is required")
	}
	return nil
}

// envString returns an env override when present, otherwise a default
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s must be an integer: %w", envPrefix, key, err)
	}
	return value, nil
}

// envBool returns a bool env override when present, otherwise a default
func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
