// internal/driver/registry.go
package driver

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mw-source-service/internal/config"
	"mw-source-service/pkg/microwave"
)

// Factory creates microwave source drivers
type Factory func(cfg *config.DeviceConfig, logger *zap.Logger) (microwave.Source, error)

// Registry manages driver registration and creation
type Registry struct {
	drivers map[string]Factory
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates a new driver registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		drivers: make(map[string]Factory),
		logger:  logger,
	}
}

// Register registers a driver factory for a model name. "*" registers the
// generic fallback.
func (r *Registry) Register(model string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers[model] = factory
	r.logger.Info("Driver registered", zap.String("model", model))
}

// CreateDriver creates a driver instance for the configured model
func (r *Registry) CreateDriver(cfg *config.DeviceConfig) (microwave.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Try exact match first
	if factory, exists := r.drivers[cfg.Model]; exists {
		return factory(cfg, r.logger)
	}

	// Fall back to the generic driver
	if factory, exists := r.drivers["*"]; exists {
		return factory(cfg, r.logger)
	}

	return nil, fmt.Errorf("no driver found for model=%s", cfg.Model)
}

// Models returns all registered model names
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.drivers))
	for model := range r.drivers {
		models = append(models, model)
	}
	return models
}

// IsSupported checks if a model is supported
func (r *Registry) IsSupported(model string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.drivers[model]; exists {
		return true
	}
	_, exists := r.drivers["*"]
	return exists
}
