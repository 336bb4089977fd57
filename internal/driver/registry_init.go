// internal/driver/registry_init.go
package driver

import (
	"mw-source-service/internal/driver/windfreak"
)

// RegisterAll registers all available source drivers
func RegisterAll(registry *Registry) {
	registry.Register("synthhd", windfreak.New)

	// Generic fallback: the SynthHD protocol is the only one spoken here.
	registry.Register("*", windfreak.New)
}
