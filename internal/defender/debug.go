package defender

import "sync/atomic"

// debugLoggingEnabled controls debug logging for the defender
// subsystem. Package-level flag so hot tick paths skip log-level
// checks.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables defender debug logging.
// Called during initialization after parsing config.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if debug logging is enabled.
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
