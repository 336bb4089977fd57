// internal/handler/source_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mw-source-service/internal/utils"
	"mw-source-service/pkg/microwave"
)

// SourceHandler exposes the microwave source operations over HTTP
type SourceHandler struct {
	source microwave.Source
	logger *zap.Logger
}

// NewSourceHandler creates a new source handler
func NewSourceHandler(source microwave.Source, logger *zap.Logger) *SourceHandler {
	return &SourceHandler{
		source: source,
		logger: logger,
	}
}

// Request bodies

// FrequencyRequest sets the CW frequency in Hz
type FrequencyRequest struct {
	Frequency float64 `json:"frequency" binding:"required"`
}

// PowerRequest sets the output power in dBm
type PowerRequest struct {
	Power float64 `json:"power"`
}

// CWRequest configures CW mode; omitted fields keep the device values
type CWRequest struct {
	Frequency *float64 `json:"frequency"`
	Power     *float64 `json:"power"`
}

// ListRequest configures list mode
type ListRequest struct {
	Frequencies []float64 `json:"frequencies" binding:"required"`
	Power       float64   `json:"power"`
}

// SweepRequest configures sweep mode
type SweepRequest struct {
	Start float64 `json:"start" binding:"required"`
	Stop  float64 `json:"stop" binding:"required"`
	Step  float64 `json:"step" binding:"required"`
	Power float64 `json:"power"`
}

// TriggerRequest selects the external trigger edge
type TriggerRequest struct {
	Edge string `json:"edge" binding:"required"`
}

// GetLimits returns the static capability descriptor
func (h *SourceHandler) GetLimits(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Limits retrieved", h.source.Limits())
}

// GetStatus returns the current mode and running flag
func (h *SourceHandler) GetStatus(c *gin.Context) {
	status, err := h.source.Status(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to query status", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Status retrieved", status)
}

// TurnOn switches on the preconfigured output
func (h *SourceHandler) TurnOn(c *gin.Context) {
	if err := h.source.On(c.Request.Context()); err != nil {
		h.fail(c, "Failed to enable output", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Output enabled", nil)
}

// TurnOff switches off any output
func (h *SourceHandler) TurnOff(c *gin.Context) {
	if err := h.source.Off(c.Request.Context()); err != nil {
		h.fail(c, "Failed to disable output", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Output disabled", nil)
}

// GetFrequency returns the CW frequency in Hz
func (h *SourceHandler) GetFrequency(c *gin.Context) {
	frequency, err := h.source.Frequency(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to query frequency", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Frequency retrieved", gin.H{"frequency": frequency})
}

// SetFrequency sets the CW frequency in Hz
func (h *SourceHandler) SetFrequency(c *gin.Context) {
	var req FrequencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.source.SetFrequency(c.Request.Context(), req.Frequency); err != nil {
		h.fail(c, "Failed to set frequency", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Frequency set", gin.H{"frequency": req.Frequency})
}

// GetPower returns the output power in dBm
func (h *SourceHandler) GetPower(c *gin.Context) {
	power, err := h.source.Power(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to query power", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Power retrieved", gin.H{"power": power})
}

// SetPower sets the output power in dBm
func (h *SourceHandler) SetPower(c *gin.Context) {
	var req PowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.source.SetPower(c.Request.Context(), req.Power); err != nil {
		h.fail(c, "Failed to set power", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Power set", gin.H{"power": req.Power})
}

// ConfigureCW configures CW mode and returns the device's actual values
func (h *SourceHandler) ConfigureCW(c *gin.Context) {
	var req CWRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings, err := h.source.SetCW(c.Request.Context(), req.Frequency, req.Power)
	if err != nil {
		h.fail(c, "Failed to configure CW mode", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "CW mode configured", settings)
}

// StartCW enables CW output, waiting for the device to confirm
func (h *SourceHandler) StartCW(c *gin.Context) {
	if err := h.source.CWOn(c.Request.Context()); err != nil {
		h.fail(c, "Failed to start CW output", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "CW output running", nil)
}

// ConfigureList configures list mode
func (h *SourceHandler) ConfigureList(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.source.SetList(c.Request.Context(), req.Frequencies, req.Power); err != nil {
		h.fail(c, "Failed to configure list mode", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "List mode configured", gin.H{
		"entries": len(req.Frequencies),
		"power":   req.Power,
	})
}

// StartList enables list output
func (h *SourceHandler) StartList(c *gin.Context) {
	if err := h.source.ListOn(c.Request.Context()); err != nil {
		h.fail(c, "Failed to start list output", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "List output running", nil)
}

// ResetListPosition rewinds the list to its first entry
func (h *SourceHandler) ResetListPosition(c *gin.Context) {
	if err := h.source.ResetListPos(c.Request.Context()); err != nil {
		h.fail(c, "Failed to reset list position", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "List position reset", nil)
}

// ConfigureSweep configures sweep mode
func (h *SourceHandler) ConfigureSweep(c *gin.Context) {
	var req SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.source.SetSweep(c.Request.Context(), req.Start, req.Stop, req.Step, req.Power); err != nil {
		h.fail(c, "Failed to configure sweep mode", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Sweep mode configured", gin.H{
		"start": req.Start,
		"stop":  req.Stop,
		"step":  req.Step,
		"power": req.Power,
	})
}

// StartSweep enables sweep output
func (h *SourceHandler) StartSweep(c *gin.Context) {
	if err := h.source.SweepOn(c.Request.Context()); err != nil {
		h.fail(c, "Failed to start sweep output", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Sweep output running", nil)
}

// ResetSweepPosition rewinds the sweep to its start frequency
func (h *SourceHandler) ResetSweepPosition(c *gin.Context) {
	if err := h.source.ResetSweepPos(c.Request.Context()); err != nil {
		h.fail(c, "Failed to reset sweep position", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Sweep position reset", nil)
}

// RestartSweep cycles the run flag to restart the sweep
func (h *SourceHandler) RestartSweep(c *gin.Context) {
	if err := h.source.ResetSweep(c.Request.Context()); err != nil {
		h.fail(c, "Failed to restart sweep", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Sweep restarted", nil)
}

// SetTrigger selects the external trigger edge
func (h *SourceHandler) SetTrigger(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	edge := microwave.TriggerEdge(req.Edge)
	if err := h.source.SetExtTrigger(c.Request.Context(), edge); err != nil {
		h.fail(c, "Failed to set external trigger", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "External trigger set", gin.H{"edge": req.Edge})
}

// fail maps driver error kinds onto HTTP status codes
func (h *SourceHandler) fail(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, microwave.ErrOutOfRange), errors.Is(err, microwave.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, microwave.ErrDeviceTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, microwave.ErrTransportUnavailable):
		status = http.StatusServiceUnavailable
	}

	h.logger.Error(message,
		zap.Error(err),
		zap.String("request_id", c.GetString("request_id")),
	)
	utils.ErrorResponse(c, status, message, err)
}
