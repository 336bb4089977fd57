// internal/transport/transport.go
package transport

import (
	"context"
	"time"
)

// Kind identifies the underlying transport.
type Kind string

const (
	KindSerial Kind = "serial"
	KindTCP    Kind = "tcp"
)

// Transport is an exclusively-owned byte pipe to the instrument. The
// SynthHD protocol is line-oriented on the reply side only: commands are
// written verbatim with no terminator, replies are ASCII numbers ended by
// a line feed.
type Transport interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) error
	ReadLine(ctx context.Context) (string, error)

	// Query writes a command and reads one reply line.
	Query(ctx context.Context, cmd string) (string, error)

	// Transport information
	Kind() Kind
}

// Stats provides transport-level statistics
type Stats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

func (s *Stats) updateAverageLatency(newLatency time.Duration) {
	if s.AverageLatency == 0 {
		s.AverageLatency = newLatency
	} else {
		s.AverageLatency = (s.AverageLatency + newLatency) / 2
	}
}
