package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/CristiGvl/picoFanCtl/internal/control"
	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/fan/fantest"
	"github.com/CristiGvl/picoFanCtl/internal/preset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *fantest.Channel) {
	t.Helper()
	opts := curve.Options{EnforceMonotonicDuty: true}
	repo := preset.NewRepository(preset.NewStore(filepath.Join(t.TempDir(), "presets.json")), opts)
	ch := fantest.New()
	svc := control.NewService(repo, ch, opts)
	t.Cleanup(svc.Close)

	apiOpts := DefaultOptions()
	apiOpts.ImageWidth, apiOpts.ImageHeight = 320, 200
	s, err := NewServer(svc, apiOpts)
	require.NoError(t, err)
	return s, ch
}

func do(t *testing.T, s *Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

var quiet = []curve.TempPoint{
	{Temperature: 30, Fan: 0},
	{Temperature: 60, Fan: 25},
	{Temperature: 85, Fan: 60},
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	resp, body := do(t, s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]any](t, body)["status"])
}

func TestPresets_CRUD(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/api/presets", presetRequest{Name: "Quiet", Points: quiet})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[presetView](t, body)
	assert.Equal(t, 60, created.MaxFan)
	assert.Equal(t, "Quiet (max 60%)", created.Label)

	resp, body = do(t, s, http.MethodGet, "/api/presets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Presets   []presetView `json:"presets"`
		CurrentID string       `json:"current_id"`
	}](t, body)
	require.Len(t, list.Presets, 2)
	assert.True(t, list.Presets[0].Builtin)
	assert.Equal(t, preset.DefaultID, list.CurrentID)

	resp, body = do(t, s, http.MethodPut, "/api/presets/"+created.ID, presetRequest{Name: "Quieter", Points: quiet[:2]})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Quieter", decode[presetView](t, body).Name)

	resp, _ = do(t, s, http.MethodGet, "/api/presets/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, s, http.MethodDelete, "/api/presets/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, s, http.MethodGet, "/api/presets/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPresets_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	falling := []curve.TempPoint{{Temperature: 30, Fan: 50}, {Temperature: 60, Fan: 10}}
	resp, _ := do(t, s, http.MethodPost, "/api/presets", presetRequest{Name: "Bad", Points: falling})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, s, http.MethodPost, "/api/presets", presetRequest{Name: "Empty"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, s, http.MethodPut, "/api/presets/default", presetRequest{Name: "Mine", Points: quiet})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, s, http.MethodDelete, "/api/presets/default", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestApplyAndControl(t *testing.T) {
	s, ch := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/api/presets", presetRequest{Name: "Quiet", Points: quiet})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[presetView](t, body)

	resp, _ = do(t, s, http.MethodPost, "/api/presets/"+created.ID+"/apply", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, points := ch.Snapshot()
	assert.Equal(t, quiet, points)

	resp, _ = do(t, s, http.MethodPost, "/api/control/enable", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	enabled, _ := ch.Snapshot()
	assert.True(t, enabled)

	resp, body = do(t, s, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[fan.Status](t, body)
	assert.True(t, st.Enabled)
	assert.Equal(t, created.ID, st.ActivePresetID)

	resp, _ = do(t, s, http.MethodPost, "/api/control/disable", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	enabled, _ = ch.Snapshot()
	assert.False(t, enabled)

	ch.Fail(fan.ErrChannelUnavailable)
	resp, _ = do(t, s, http.MethodPost, "/api/presets/"+created.ID+"/apply", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = do(t, s, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestToggle(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := do(t, s, http.MethodGet, "/api/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Fan: off", decode[map[string]string](t, body)["label"])

	resp, body = do(t, s, http.MethodPost, "/api/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[control.ToggleResult](t, body)
	require.NotNil(t, res.Applied)
	assert.Equal(t, preset.DefaultID, res.Applied.ID)

	resp, body = do(t, s, http.MethodPost, "/api/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = decode[control.ToggleResult](t, body)
	assert.Nil(t, res.Applied)
	assert.Len(t, res.Presets, 1)

	resp, _ = do(t, s, http.MethodPost, "/api/toggle/select/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEvaluateDuty(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/api/duty", map[string]any{"millicelsius": 55000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, body)
	assert.Equal(t, float64(curve.PercentToDuty(10)), out["duty"])
	assert.Equal(t, float64(10), out["percent"])

	resp, body = do(t, s, http.MethodPost, "/api/duty", map[string]any{"millicelsius": 45000, "preset_id": "default"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), decode[map[string]any](t, body)["duty"])
}

func TestPresetImage(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := do(t, s, http.MethodGet, "/api/presets/default/curve.png?dark=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	resp, _ = do(t, s, http.MethodGet, "/api/presets/default/curve.png?w=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
