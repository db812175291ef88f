package ports

import "context"

// HealthChecker abstracts a dependency health probe.
// Implementations should return error if unhealthy.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// AdvisoryHealthChecker is a HealthChecker whose failures are reported as warnings
// and never mark the service as degraded.
type AdvisoryHealthChecker interface {
	HealthChecker
	Advisory() bool
}
