// internal/driver/registry_test.go
package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mw-source-service/internal/config"
)

func TestRegistryCreatesRegisteredDriver(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	RegisterAll(registry)

	cfg := &config.DeviceConfig{
		Model:   "synthhd",
		Address: "/dev/ttyACM0",
	}

	source, err := registry.CreateDriver(cfg)
	require.NoError(t, err)
	assert.NotNil(t, source)
	assert.False(t, source.IsConnected())
}

func TestRegistryFallsBackToWildcard(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	RegisterAll(registry)

	cfg := &config.DeviceConfig{
		Model:   "some-future-model",
		Address: "/dev/ttyACM1",
	}

	source, err := registry.CreateDriver(cfg)
	require.NoError(t, err)
	assert.NotNil(t, source)
}

func TestRegistryWithoutDrivers(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	_, err := registry.CreateDriver(&config.DeviceConfig{Model: "synthhd"})
	assert.Error(t, err)
	assert.False(t, registry.IsSupported("synthhd"))
}

func TestRegistryModels(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	RegisterAll(registry)

	assert.ElementsMatch(t, []string{"synthhd", "*"}, registry.Models())
	assert.True(t, registry.IsSupported("synthhd"))
	assert.True(t, registry.IsSupported("anything-else"))
}
