package lifecycle

import "sync/atomic"

// Health statuses reported by /health.
const (
	StatusHealthy      = "healthy"
	StatusDegraded     = "degraded"
	StatusShuttingDown = "shutting-down"
)

var shuttingDown atomic.Bool

// SetShuttingDown sets the drain flag. Call when SIGTERM/SIGINT is received.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Status resolves the health status. Draining wins over degraded.
func Status(degraded bool) string {
	switch {
	case IsShuttingDown():
		return StatusShuttingDown
	case degraded:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
