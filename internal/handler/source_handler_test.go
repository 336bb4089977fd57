// internal/handler/source_handler_test.go
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mw-source-service/internal/utils"
	"mw-source-service/pkg/microwave"
)

// stubSource is a canned microwave.Source for handler tests. err, when set,
// is returned by every operation.
type stubSource struct {
	err       error
	connected bool
	limits    microwave.Limits
	status    microwave.Status
	frequency float64
	power     float64
	settings  microwave.CWSettings

	lastTriggerEdge microwave.TriggerEdge
	listEntries     int
}

func (s *stubSource) Connect(ctx context.Context) error    { return s.err }
func (s *stubSource) Disconnect(ctx context.Context) error { return s.err }
func (s *stubSource) IsConnected() bool                    { return s.connected }
func (s *stubSource) Limits() microwave.Limits             { return s.limits }
func (s *stubSource) On(ctx context.Context) error         { return s.err }
func (s *stubSource) Off(ctx context.Context) error        { return s.err }

func (s *stubSource) Status(ctx context.Context) (microwave.Status, error) {
	return s.status, s.err
}

func (s *stubSource) Frequency(ctx context.Context) (float64, error) {
	return s.frequency, s.err
}

func (s *stubSource) SetFrequency(ctx context.Context, hz float64) error {
	s.frequency = hz
	return s.err
}

func (s *stubSource) Power(ctx context.Context) (float64, error) {
	return s.power, s.err
}

func (s *stubSource) SetPower(ctx context.Context, dbm float64) error {
	s.power = dbm
	return s.err
}

func (s *stubSource) CWOn(ctx context.Context) error { return s.err }

func (s *stubSource) SetCW(ctx context.Context, frequency, power *float64) (microwave.CWSettings, error) {
	return s.settings, s.err
}

func (s *stubSource) SetList(ctx context.Context, frequencies []float64, power float64) error {
	s.listEntries = len(frequencies)
	return s.err
}

func (s *stubSource) ListOn(ctx context.Context) error       { return s.err }
func (s *stubSource) ResetListPos(ctx context.Context) error { return s.err }

func (s *stubSource) SetSweep(ctx context.Context, start, stop, step, power float64) error {
	return s.err
}

func (s *stubSource) SweepOn(ctx context.Context) error       { return s.err }
func (s *stubSource) ResetSweepPos(ctx context.Context) error { return s.err }
func (s *stubSource) ResetSweep(ctx context.Context) error    { return s.err }

func (s *stubSource) SetExtTrigger(ctx context.Context, edge microwave.TriggerEdge) error {
	s.lastTriggerEdge = edge
	return s.err
}

func setupTestRouter(source microwave.Source) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewSourceHandler(source, zap.NewNop())

	router := gin.New()
	api := router.Group("/api/v1/source")
	{
		api.GET("/limits", h.GetLimits)
		api.GET("/status", h.GetStatus)
		api.POST("/on", h.TurnOn)
		api.POST("/off", h.TurnOff)
		api.GET("/frequency", h.GetFrequency)
		api.PUT("/frequency", h.SetFrequency)
		api.GET("/power", h.GetPower)
		api.PUT("/power", h.SetPower)
		api.POST("/cw", h.ConfigureCW)
		api.POST("/cw/start", h.StartCW)
		api.POST("/list", h.ConfigureList)
		api.POST("/sweep", h.ConfigureSweep)
		api.POST("/trigger", h.SetTrigger)
	}
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var response utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return rec, response
}

func TestGetLimits(t *testing.T) {
	source := &stubSource{
		limits: microwave.Limits{
			SupportedModes: []microwave.Mode{microwave.ModeCW},
			MinFrequency:   54e6,
			MaxFrequency:   13.6e9,
		},
	}
	router := setupTestRouter(source)

	rec, response := doRequest(t, router, http.MethodGet, "/api/v1/source/limits", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, response.Success)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 13.6e9, data["max_frequency"])
}

func TestGetStatus(t *testing.T) {
	source := &stubSource{
		status: microwave.Status{Mode: microwave.ModeSweep, Running: true},
	}
	router := setupTestRouter(source)

	rec, response := doRequest(t, router, http.MethodGet, "/api/v1/source/status", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sweep", data["mode"])
	assert.Equal(t, true, data["running"])
}

func TestSetFrequency(t *testing.T) {
	source := &stubSource{}
	router := setupTestRouter(source)

	rec, response := doRequest(t, router, http.MethodPut, "/api/v1/source/frequency",
		`{"frequency": 2.87e9}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, response.Success)
	assert.Equal(t, 2.87e9, source.frequency)
}

func TestSetFrequencyOutOfRangeMapsTo400(t *testing.T) {
	source := &stubSource{
		err: fmt.Errorf("%w: frequency out of range", microwave.ErrOutOfRange),
	}
	router := setupTestRouter(source)

	rec, response := doRequest(t, router, http.MethodPut, "/api/v1/source/frequency",
		`{"frequency": 20e9}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, "BAD_REQUEST", response.Error.Code)
}

func TestSetFrequencyRejectsMalformedBody(t *testing.T) {
	router := setupTestRouter(&stubSource{})

	rec, response := doRequest(t, router, http.MethodPut, "/api/v1/source/frequency",
		`{"frequency": "not a number"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, response.Success)
}

func TestStartCWTimeoutMapsTo504(t *testing.T) {
	source := &stubSource{
		err: fmt.Errorf("%w: device did not report running", microwave.ErrDeviceTimeout),
	}
	router := setupTestRouter(source)

	rec, response := doRequest(t, router, http.MethodPost, "/api/v1/source/cw/start", "")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.NotNil(t, response.Error)
	assert.Equal(t, "DEVICE_TIMEOUT", response.Error.Code)
}

func TestStatusTransportUnavailableMapsTo503(t *testing.T) {
	source := &stubSource{
		err: fmt.Errorf("%w: serial port not open", microwave.ErrTransportUnavailable),
	}
	router := setupTestRouter(source)

	rec, response := doRequest(t, router, http.MethodGet, "/api/v1/source/status", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, response.Error)
	assert.Equal(t, "SERVICE_UNAVAILABLE", response.Error.Code)
}

func TestConfigureCWReturnsReadBackSettings(t *testing.T) {
	source := &stubSource{
		settings: microwave.CWSettings{
			Frequency: 2.5e9,
			Power:     -5,
			Mode:      microwave.ModeCW,
		},
	}
	router := setupTestRouter(source)

	rec, response := doRequest(t, router, http.MethodPost, "/api/v1/source/cw",
		`{"frequency": 2.5e9, "power": -5}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2.5e9, data["frequency"])
	assert.Equal(t, -5.0, data["power"])
	assert.Equal(t, "cw", data["mode"])
}

func TestConfigureList(t *testing.T) {
	source := &stubSource{}
	router := setupTestRouter(source)

	rec, response := doRequest(t, router, http.MethodPost, "/api/v1/source/list",
		`{"frequencies": [1e9, 1.5e9, 2e9], "power": -10}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, response.Success)
	assert.Equal(t, 3, source.listEntries)
}

func TestConfigureListRequiresFrequencies(t *testing.T) {
	router := setupTestRouter(&stubSource{})

	rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/source/list",
		`{"power": -10}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigureSweepInvalidArgumentMapsTo400(t *testing.T) {
	source := &stubSource{
		err: fmt.Errorf("%w: sweep start must be below stop", microwave.ErrInvalidArgument),
	}
	router := setupTestRouter(source)

	rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/source/sweep",
		`{"start": 2e9, "stop": 1e9, "step": 1e6, "power": 0}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetTriggerForwardsEdge(t *testing.T) {
	source := &stubSource{}
	router := setupTestRouter(source)

	rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/source/trigger",
		`{"edge": "falling"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, microwave.TriggerFalling, source.lastTriggerEdge)
}

func TestSetTriggerUnknownEdgeMapsTo400(t *testing.T) {
	source := &stubSource{
		err: fmt.Errorf("%w: unsupported trigger edge", microwave.ErrInvalidArgument),
	}
	router := setupTestRouter(source)

	rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/source/trigger",
		`{"edge": "both"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
