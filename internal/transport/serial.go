// internal/transport/serial.go
package transport

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialConfig holds the parameters for a serial transport.
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
}

// SerialTransport implements Transport for serial (and USB CDC) attached
// instruments.
type SerialTransport struct {
	config *SerialConfig
	port   serial.Port
	reader *bufio.Reader
	logger *zap.Logger
	mutex  sync.Mutex
	isOpen bool
	stats  *Stats
}

// NewSerialTransport creates a new serial transport
func NewSerialTransport(config *SerialConfig, logger *zap.Logger) Transport {
	return &SerialTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "serial"),
			zap.String("port", config.Port),
		),
		stats: &Stats{
			IsConnected: false,
		},
	}
}

// Open opens the serial port
func (st *SerialTransport) Open(ctx context.Context) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.isOpen {
		return nil
	}

	st.logger.Info("Opening serial port",
		zap.String("port", st.config.Port),
		zap.Int("baud_rate", st.config.BaudRate),
	)

	mode := &serial.Mode{
		BaudRate: st.config.BaudRate,
		DataBits: st.config.DataBits,
		StopBits: serial.StopBits(st.config.StopBits),
	}

	switch st.config.Parity {
	case "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	port, err := serial.Open(st.config.Port, mode)
	if err != nil {
		st.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(st.config.Timeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	st.port = port
	st.reader = bufio.NewReader(port)
	st.isOpen = true
	st.stats.IsConnected = true
	st.stats.LastActivity = time.Now()

	st.logger.Info("Serial port opened successfully")
	return nil
}

// Close closes the serial port
func (st *SerialTransport) Close() error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if !st.isOpen || st.port == nil {
		return nil
	}

	if err := st.port.Close(); err != nil {
		st.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	st.port = nil
	st.reader = nil
	st.isOpen = false
	st.stats.IsConnected = false

	st.logger.Info("Serial port closed")
	return nil
}

// IsOpen returns whether the port is open
func (st *SerialTransport) IsOpen() bool {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return st.isOpen && st.port != nil
}

// Write writes data to the serial port
func (st *SerialTransport) Write(ctx context.Context, data []byte) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return st.writeLocked(ctx, data)
}

func (st *SerialTransport) writeLocked(ctx context.Context, data []byte) error {
	if !st.isOpen || st.port == nil {
		return fmt.Errorf("serial port not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	n, err := st.port.Write(data)
	if err != nil {
		st.stats.ErrorCount++
		st.logger.Error("Serial write failed", zap.Error(err))
		return fmt.Errorf("failed to write to serial port: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	st.stats.BytesWritten += int64(len(data))
	st.stats.OperationCount++
	st.stats.LastActivity = time.Now()
	st.stats.updateAverageLatency(time.Since(startTime))

	st.logger.Debug("Serial write completed", zap.Int("bytes", len(data)))
	return nil
}

// ReadLine reads one LF-terminated reply line
func (st *SerialTransport) ReadLine(ctx context.Context) (string, error) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return st.readLineLocked(ctx)
}

func (st *SerialTransport) readLineLocked(ctx context.Context) (string, error) {
	if !st.isOpen || st.reader == nil {
		return "", fmt.Errorf("serial port not open")
	}

	done := make(chan struct {
		line string
		err  error
	}, 1)

	reader := st.reader
	go func() {
		line, err := reader.ReadString('\n')
		result := struct {
			line string
			err  error
		}{}

		if err != nil {
			result.err = fmt.Errorf("failed to read from serial port: %w", err)
		} else {
			result.line = strings.TrimRight(line, "\r\n")
		}
		done <- result
	}()

	select {
	case result := <-done:
		if result.err != nil {
			st.stats.ErrorCount++
			return "", result.err
		}

		st.stats.BytesRead += int64(len(result.line))
		st.stats.OperationCount++
		st.stats.LastActivity = time.Now()
		return result.line, nil

	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Query writes a command and reads one reply line under a single lock so
// command/reply pairs from different callers cannot interleave.
func (st *SerialTransport) Query(ctx context.Context, cmd string) (string, error) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if err := st.writeLocked(ctx, []byte(cmd)); err != nil {
		return "", err
	}
	return st.readLineLocked(ctx)
}

// Kind returns the transport kind
func (st *SerialTransport) Kind() Kind {
	return KindSerial
}
