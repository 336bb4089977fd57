// internal/transport/factory_test.go
package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mw-source-service/internal/config"
)

func TestNewSerialTransportFromAddress(t *testing.T) {
	cfg := &config.DeviceConfig{
		Address:        "/dev/ttyACM0",
		TimeoutSeconds: 5,
		Serial: config.SerialPortConfig{
			BaudRate: 9600,
			DataBits: 8,
			StopBits: 1,
			Parity:   "none",
		},
	}

	tr, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, KindSerial, tr.Kind())
	assert.False(t, tr.IsOpen())

	st, ok := tr.(*SerialTransport)
	require.True(t, ok)
	assert.Equal(t, "/dev/ttyACM0", st.config.Port)
	assert.Equal(t, 9600, st.config.BaudRate)
	assert.Equal(t, 5*time.Second, st.config.Timeout)
}

func TestNewSerialTransportFillsDefaults(t *testing.T) {
	cfg := &config.DeviceConfig{
		Address: "/dev/ttyUSB3",
	}

	tr, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	st, ok := tr.(*SerialTransport)
	require.True(t, ok)
	assert.Equal(t, 115200, st.config.BaudRate)
	assert.Equal(t, 8, st.config.DataBits)
	assert.Equal(t, 1, st.config.StopBits)
	assert.Equal(t, "none", st.config.Parity)
	assert.Equal(t, 10*time.Second, st.config.Timeout)
}

func TestNewTCPTransportFromAddress(t *testing.T) {
	cfg := &config.DeviceConfig{
		Address:        "tcp://192.168.1.50:5025",
		TimeoutSeconds: 3,
	}

	tr, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, KindTCP, tr.Kind())

	tt, ok := tr.(*TCPTransport)
	require.True(t, ok)
	assert.Equal(t, "192.168.1.50", tt.config.Host)
	assert.Equal(t, 5025, tt.config.Port)
	assert.Equal(t, 3*time.Second, tt.config.Timeout)
}

func TestNewRejectsBadAddresses(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"tcp missing port", "tcp://192.168.1.50"},
		{"tcp bad port", "tcp://192.168.1.50:notaport"},
		{"tcp port out of range", "tcp://192.168.1.50:70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&config.DeviceConfig{Address: tt.address}, zap.NewNop())
			assert.Error(t, err)
		})
	}
}
