package config

import "sync"

// RuntimeSettings holds values toggled while the demo runs
type RuntimeSettings struct {
	mu        sync.RWMutex
	wireframe bool
	fpsLimit  int
}

var globalRuntimeSettings = &RuntimeSettings{}

// GetWireframe reports whether colour passes rasterise in line mode
func GetWireframe() bool {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.wireframe
}

// SetWireframe sets the wireframe toggle
func SetWireframe(enabled bool) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()
	globalRuntimeSettings.wireframe = enabled
}

// GetFPSLimit returns the frame cap, 0 meaning uncapped
func GetFPSLimit() int {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.fpsLimit
}

// SetFPSLimit sets the frame cap
func SetFPSLimit(limit int) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()

	// Clamp to reasonable values
	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}

	globalRuntimeSettings.fpsLimit = limit
}
