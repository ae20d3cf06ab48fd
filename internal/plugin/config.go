package plugin

import "github.com/gantry-dev/gantry/internal/signal"

// RegistryConfig configures registration and dependency policies for one
// registry instance.
type RegistryConfig struct {
	// AllowDuplicates permits re-registering an already present name; the
	// new registration replaces the old entry.
	AllowDuplicates bool
	// AutoEnable enables plugins at registration when their dependencies are
	// satisfied. When off, a plugin whose dependencies are missing is
	// rejected outright instead of registered disabled.
	AutoEnable bool
	// ValidateDependencies checks declared dependency names against the
	// registry at registration and enable time.
	ValidateDependencies bool
	// SignalHistorySize bounds the signal manager's emission history.
	SignalHistorySize int
}

// DefaultConfig returns the standard policy set: unique names, auto-enable,
// dependency validation, and the default signal history bound.
func DefaultConfig() *RegistryConfig {
	return &RegistryConfig{
		AllowDuplicates:      false,
		AutoEnable:           true,
		ValidateDependencies: true,
		SignalHistorySize:    signal.DefaultHistorySize,
	}
}
