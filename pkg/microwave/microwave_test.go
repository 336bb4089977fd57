// pkg/microwave/microwave_test.go
package microwave

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsFrequencyInRange(t *testing.T) {
	limits := Limits{MinFrequency: 54e6, MaxFrequency: 13.6e9}

	tests := []struct {
		frequency float64
		want      bool
	}{
		{54e6, true},
		{13.6e9, true},
		{2.87e9, true},
		{54e6 - 1, false},
		{13.6e9 + 1, false},
		{0, false},
		{-1e9, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, limits.FrequencyInRange(tt.frequency), "frequency %g", tt.frequency)
	}
}

func TestLimitsPowerInRange(t *testing.T) {
	limits := Limits{MinPower: -50, MaxPower: 20}

	tests := []struct {
		power float64
		want  bool
	}{
		{-50, true},
		{20, true},
		{0, true},
		{-50.1, false},
		{20.1, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, limits.PowerInRange(tt.power), "power %g", tt.power)
	}
}

func TestErrorKindsAreDistinguishable(t *testing.T) {
	wrapped := fmt.Errorf("%w: frequency 1 Hz outside [54000000, 13600000000]", ErrOutOfRange)

	assert.True(t, errors.Is(wrapped, ErrOutOfRange))
	assert.False(t, errors.Is(wrapped, ErrInvalidArgument))
	assert.False(t, errors.Is(wrapped, ErrDeviceTimeout))
	assert.False(t, errors.Is(wrapped, ErrTransportUnavailable))
}
