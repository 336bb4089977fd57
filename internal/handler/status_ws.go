// internal/handler/status_ws.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mw-source-service/pkg/microwave"
)

// StatusStreamHandler pushes the source status over a WebSocket so
// frontends can track mode and running state without polling the REST API.
type StatusStreamHandler struct {
	source   microwave.Source
	logger   *zap.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// StatusFrame is one update on the stream
type StatusFrame struct {
	Mode      microwave.Mode `json:"mode"`
	Running   bool           `json:"running"`
	Connected bool           `json:"connected"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
}

// NewStatusStreamHandler creates a new status stream handler
func NewStatusStreamHandler(source microwave.Source, interval time.Duration, logger *zap.Logger) *StatusStreamHandler {
	if interval <= 0 {
		interval = time.Second
	}

	return &StatusStreamHandler{
		source:   source,
		logger:   logger,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Stream upgrades the connection and pushes status frames until the client
// goes away.
func (h *StatusStreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("Status stream client connected",
		zap.String("client_ip", c.ClientIP()),
	)

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		frame := StatusFrame{
			Connected: h.source.IsConnected(),
			Timestamp: time.Now(),
		}

		status, err := h.source.Status(ctx)
		if err != nil {
			frame.Error = err.Error()
		} else {
			frame.Mode = status.Mode
			frame.Running = status.Running
		}

		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Info("Status stream client disconnected", zap.Error(err))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
