package fan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordRunner struct {
	commands []string
	err      error
}

func (r *recordRunner) Run(ctx context.Context, command string) (string, error) {
	r.commands = append(r.commands, command)
	return "", r.err
}

type fixedTemps int

func (t fixedTemps) ReadMilliCelsius(ctx context.Context) (int, error) {
	return int(t), nil
}

func newModule(t *testing.T) (*ModuleChannel, ModuleConfig, *recordRunner) {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultModuleConfig()
	cfg.ConfigFile = filepath.Join(dir, "fan_config")
	cfg.StateFile = filepath.Join(dir, "fan_state")
	cfg.DutyPath = filepath.Join(dir, "duty")

	require.NoError(t, os.WriteFile(cfg.ConfigFile, []byte("# fan module\nFAN_CURVE=20:0\nINTERVAL=2\n"), 0o644))
	require.NoError(t, os.WriteFile(cfg.StateFile, []byte("ENABLED=0\nCURRENT_PRESET=Default\nCURRENT_PRESET_UUID=\n"), 0o644))
	require.NoError(t, os.WriteFile(cfg.DutyPath, []byte("7500\n"), 0o644))

	runner := &recordRunner{}
	return NewModuleChannel(cfg, runner, fixedTemps(52000), NewSysfsDuty(cfg.DutyPath)), cfg, runner
}

func TestFormatParseCurve(t *testing.T) {
	points := []curve.TempPoint{{Temperature: 20, Fan: 0}, {Temperature: 50, Fan: 10}, {Temperature: 70, Fan: 15}}
	assert.Equal(t, "20:0,50:10,70:15", FormatCurve(points))

	parsed, err := ParseCurve(" 20:0, 50:10,70:15 ")
	require.NoError(t, err)
	assert.Equal(t, points, parsed)

	_, err = ParseCurve("20-0")
	assert.Error(t, err)
	_, err = ParseCurve("a:1")
	assert.Error(t, err)

	empty, err := ParseCurve("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// TestModuleChannel_ApplyCurve verifies only the FAN_CURVE line is rewritten.
func TestModuleChannel_ApplyCurve(t *testing.T) {
	ctx := context.Background()
	m, cfg, _ := newModule(t)

	points := []curve.TempPoint{{Temperature: 20, Fan: 0}, {Temperature: 50, Fan: 10}}
	require.NoError(t, m.ApplyCurve(ctx, points))

	data, err := os.ReadFile(cfg.ConfigFile)
	require.NoError(t, err)
	assert.Equal(t, "# fan module\nFAN_CURVE=20:0,50:10\nINTERVAL=2\n", string(data))

	applied, err := m.AppliedCurve(ctx)
	require.NoError(t, err)
	assert.Equal(t, points, applied)

	assert.ErrorIs(t, m.ApplyCurve(ctx, nil), curve.ErrInvalidCurve)
}

// TestModuleChannel_SetEnabled verifies the state flag and hook commands.
func TestModuleChannel_SetEnabled(t *testing.T) {
	ctx := context.Background()
	m, _, runner := newModule(t)

	require.NoError(t, m.SetEnabled(ctx, true))
	on, err := m.IsEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"settings put system fan_mode 6"}, runner.commands)

	runner.commands = nil
	require.NoError(t, m.SetEnabled(ctx, false))
	on, err = m.IsEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []string{"settings put system performance_mode 1", "settings put system fan_mode 4"}, runner.commands)
}

// TestModuleChannel_HookFailure verifies failed hooks surface as channel errors.
func TestModuleChannel_HookFailure(t *testing.T) {
	m, _, runner := newModule(t)
	runner.err = errors.Join(ErrChannelUnavailable, errors.New("su: permission denied"))

	err := m.SetEnabled(context.Background(), true)
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

// TestModuleChannel_ActivePreset verifies an empty id reads as not set.
func TestModuleChannel_ActivePreset(t *testing.T) {
	ctx := context.Background()
	m, cfg, _ := newModule(t)

	_, ok, err := m.ActivePresetID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SetActivePreset(ctx, "3f0c", "Quiet"))
	id, ok, err := m.ActivePresetID(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3f0c", id)

	name, err := m.ActivePresetName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Quiet", name)

	data, err := os.ReadFile(cfg.StateFile)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "CURRENT_PRESET="))
}

// TestModuleChannel_MissingModule verifies a missing state file is reported as unavailable.
func TestModuleChannel_MissingModule(t *testing.T) {
	cfg := DefaultModuleConfig()
	cfg.StateFile = filepath.Join(t.TempDir(), "absent", "fan_state")
	m := NewModuleChannel(cfg, nil, nil, nil)

	_, err := m.IsEnabled(context.Background())
	assert.ErrorIs(t, err, ErrChannelUnavailable)
	_, err = m.CurrentDuty(context.Background())
	assert.ErrorIs(t, err, ErrChannelUnavailable)
	_, err = m.CurrentTemperatureMilliCelsius(context.Background())
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestReadStatus(t *testing.T) {
	m, _, _ := newModule(t)

	st, err := ReadStatus(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, Status{
		Duty:               7500,
		Percent:            15,
		TemperatureMilliC:  52000,
		TemperatureCelsius: 52,
	}, st)
}

// TestSysfsDuty_Scaling verifies hwmon style 0-255 files are mapped to full scale duty.
func TestSysfsDuty_Scaling(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pwm1")
	require.NoError(t, os.WriteFile(path, []byte("255"), 0o644))

	d := &SysfsDuty{Path: path, Max: 255}
	duty, err := d.ReadDuty(ctx)
	require.NoError(t, err)
	assert.Equal(t, curve.FullScaleDuty, duty)

	require.NoError(t, d.WriteDuty(ctx, curve.PercentToDuty(50)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "127", string(data))

	require.NoError(t, d.WriteDuty(ctx, 90000))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "255", string(data))
}

// TestGovernor_Step verifies the governor follows the applied curve only when enabled.
func TestGovernor_Step(t *testing.T) {
	ctx := context.Background()
	m, cfg, _ := newModule(t)
	require.NoError(t, m.ApplyCurve(ctx, []curve.TempPoint{{Temperature: 20, Fan: 0}, {Temperature: 50, Fan: 10}, {Temperature: 70, Fan: 15}}))

	out := NewSysfsDuty(cfg.DutyPath)
	g := NewGovernor(m, m, out, 0)

	_, enabled, err := g.Step(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, m.SetEnabled(ctx, true))
	duty, enabled, err := g.Step(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, curve.PercentToDuty(10), duty)

	read, err := out.ReadDuty(ctx)
	require.NoError(t, err)
	assert.Equal(t, duty, read)
}

// TestGovernor_StartStop verifies start and stop are idempotent.
func TestGovernor_StartStop(t *testing.T) {
	m, cfg, _ := newModule(t)
	g := NewGovernor(m, m, NewSysfsDuty(cfg.DutyPath), 0)

	g.Start(context.Background())
	g.Start(context.Background())
	g.Stop()
	g.Stop()
}
