// internal/transport/tcp.go
package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TCPConfig holds the parameters for a TCP transport.
type TCPConfig struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// TCPTransport implements Transport for instruments reached through a
// serial-to-Ethernet bridge.
type TCPTransport struct {
	config *TCPConfig
	conn   net.Conn
	reader *bufio.Reader
	logger *zap.Logger
	mutex  sync.Mutex
	isOpen bool
	stats  *Stats
}

// NewTCPTransport creates a new TCP transport
func NewTCPTransport(config *TCPConfig, logger *zap.Logger) Transport {
	return &TCPTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
		stats: &Stats{
			IsConnected: false,
		},
	}
}

// Open opens the TCP connection
func (tt *TCPTransport) Open(ctx context.Context) error {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()

	if tt.isOpen {
		return nil
	}

	tt.logger.Info("Opening TCP connection",
		zap.String("host", tt.config.Host),
		zap.Int("port", tt.config.Port),
	)

	dialer := &net.Dialer{
		Timeout:   tt.config.Timeout,
		KeepAlive: 30 * time.Second,
	}

	address := fmt.Sprintf("%s:%d", tt.config.Host, tt.config.Port)
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		tt.logger.Error("Failed to open TCP connection", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	tt.conn = conn
	tt.reader = bufio.NewReader(conn)
	tt.isOpen = true
	tt.stats.IsConnected = true
	tt.stats.LastActivity = time.Now()

	tt.logger.Info("TCP connection opened successfully")
	return nil
}

// Close closes the TCP connection
func (tt *TCPTransport) Close() error {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()

	if !tt.isOpen || tt.conn == nil {
		return nil
	}

	if err := tt.conn.Close(); err != nil {
		tt.logger.Error("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tt.conn = nil
	tt.reader = nil
	tt.isOpen = false
	tt.stats.IsConnected = false

	tt.logger.Info("TCP connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (tt *TCPTransport) IsOpen() bool {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()
	return tt.isOpen && tt.conn != nil
}

// Write writes data to the TCP connection
func (tt *TCPTransport) Write(ctx context.Context, data []byte) error {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()
	return tt.writeLocked(ctx, data)
}

func (tt *TCPTransport) writeLocked(ctx context.Context, data []byte) error {
	if !tt.isOpen || tt.conn == nil {
		return fmt.Errorf("TCP connection not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if tt.config.Timeout > 0 {
		tt.conn.SetWriteDeadline(time.Now().Add(tt.config.Timeout))
	}

	startTime := time.Now()
	n, err := tt.conn.Write(data)
	if err != nil {
		tt.stats.ErrorCount++
		tt.logger.Error("TCP write failed", zap.Error(err))
		return fmt.Errorf("failed to write to TCP connection: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	tt.stats.BytesWritten += int64(len(data))
	tt.stats.OperationCount++
	tt.stats.LastActivity = time.Now()
	tt.stats.updateAverageLatency(time.Since(startTime))

	tt.logger.Debug("TCP write completed", zap.Int("bytes", len(data)))
	return nil
}

// ReadLine reads one LF-terminated reply line
func (tt *TCPTransport) ReadLine(ctx context.Context) (string, error) {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()
	return tt.readLineLocked(ctx)
}

func (tt *TCPTransport) readLineLocked(ctx context.Context) (string, error) {
	if !tt.isOpen || tt.reader == nil {
		return "", fmt.Errorf("TCP connection not open")
	}

	if tt.config.Timeout > 0 {
		tt.conn.SetReadDeadline(time.Now().Add(tt.config.Timeout))
	}

	done := make(chan struct {
		line string
		err  error
	}, 1)

	reader := tt.reader
	go func() {
		line, err := reader.ReadString('\n')
		result := struct {
			line string
			err  error
		}{}

		if err != nil {
			result.err = fmt.Errorf("failed to read from TCP connection: %w", err)
		} else {
			result.line = strings.TrimRight(line, "\r\n")
		}
		done <- result
	}()

	select {
	case result := <-done:
		if result.err != nil {
			tt.stats.ErrorCount++
			return "", result.err
		}

		tt.stats.BytesRead += int64(len(result.line))
		tt.stats.OperationCount++
		tt.stats.LastActivity = time.Now()
		return result.line, nil

	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Query writes a command and reads one reply line under a single lock so
// command/reply pairs from different callers cannot interleave.
func (tt *TCPTransport) Query(ctx context.Context, cmd string) (string, error) {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()

	if err := tt.writeLocked(ctx, []byte(cmd)); err != nil {
		return "", err
	}
	return tt.readLineLocked(ctx)
}

// Kind returns the transport kind
func (tt *TCPTransport) Kind() Kind {
	return KindTCP
}
