package domain

import "sync/atomic"

type AppState int32

const (
	StateInitializing AppState = iota
	StateRunning
	StateShuttingDown
	StateMaintenance
	StateError
)

func (s AppState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateMaintenance:
		return "maintenance"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StateHolder is a goroutine-safe AppState cell. The zero value reports
// StateInitializing.
type StateHolder struct {
	v atomic.Int32
}

func (h *StateHolder) Load() AppState   { return AppState(h.v.Load()) }
func (h *StateHolder) Store(s AppState) { h.v.Store(int32(s)) }

// Feature names accepted by FeatureFlags.Enabled.
const (
	FeatureAdvancedSearch = "advanced_search"
	FeatureCaching        = "caching"
	FeatureMetrics        = "metrics"
	FeatureRateLimiting   = "rate_limiting"
	FeatureExperimental   = "experimental"
)

type FeatureFlags struct {
	AdvancedSearch bool
	Caching        bool
	Metrics        bool
	RateLimiting   bool
	Experimental   bool
}

func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		AdvancedSearch: true,
		Caching:        true,
		Metrics:        true,
		RateLimiting:   true,
		Experimental:   false,
	}
}

// Enabled reports the flag for a feature name. Unknown names are disabled.
func (f FeatureFlags) Enabled(name string) bool {
	switch name {
	case FeatureAdvancedSearch:
		return f.AdvancedSearch
	case FeatureCaching:
		return f.Caching
	case FeatureMetrics:
		return f.Metrics
	case FeatureRateLimiting:
		return f.RateLimiting
	case FeatureExperimental:
		return f.Experimental
	default:
		return false
	}
}

// Names lists every known feature in a stable order.
func (FeatureFlags) Names() []string {
	return []string{
		FeatureAdvancedSearch,
		FeatureCaching,
		FeatureMetrics,
		FeatureRateLimiting,
		FeatureExperimental,
	}
}
