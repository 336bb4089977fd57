// internal/transport/factory.go
package transport

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mw-source-service/internal/config"
)

// New creates a transport from the configured device address. Addresses of
// the form tcp://host:port select the TCP transport; anything else is
// treated as a serial device path.
func New(cfg *config.DeviceConfig, logger *zap.Logger) (Transport, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("device address is required")
	}

	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if strings.HasPrefix(cfg.Address, "tcp://") {
		return newTCPFromAddress(cfg.Address, timeout, logger)
	}

	serialConfig := &SerialConfig{
		Port:     cfg.Address,
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		StopBits: cfg.Serial.StopBits,
		Parity:   cfg.Serial.Parity,
		Timeout:  timeout,
	}
	if serialConfig.BaudRate == 0 {
		serialConfig.BaudRate = 115200
	}
	if serialConfig.DataBits == 0 {
		serialConfig.DataBits = 8
	}
	if serialConfig.StopBits == 0 {
		serialConfig.StopBits = 1
	}
	if serialConfig.Parity == "" {
		serialConfig.Parity = "none"
	}

	logger.Info("Creating serial transport",
		zap.String("port", serialConfig.Port),
		zap.Int("baud_rate", serialConfig.BaudRate),
	)

	return NewSerialTransport(serialConfig, logger), nil
}

func newTCPFromAddress(address string, timeout time.Duration, logger *zap.Logger) (Transport, error) {
	hostPort := strings.TrimPrefix(address, "tcp://")

	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return nil, fmt.Errorf("invalid tcp address %q: %w", address, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid tcp port %q", portStr)
	}

	tcpConfig := &TCPConfig{
		Host:    host,
		Port:    port,
		Timeout: timeout,
	}

	logger.Info("Creating TCP transport",
		zap.String("host", host),
		zap.Int("port", port),
	)

	return NewTCPTransport(tcpConfig, logger), nil
}
