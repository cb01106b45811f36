package timeout

import (
	"context"
	"fmt"
	"time"

	"movie-recommend-engine/pkg/errors"
	"movie-recommend-engine/pkg/logging"
)

// TimeoutConfig holds timeout configuration for the pipeline's suspension
// points.
type TimeoutConfig struct {
	// EmbeddingTimeout bounds the external embedding provider call.
	// Expiry surfaces to the caller as EmbeddingUnavailable, never a retry.
	EmbeddingTimeout time.Duration
	// CatalogLoadTimeout bounds the startup bulk read of the movie catalog
	// and its embedding table.
	CatalogLoadTimeout time.Duration
	// ShutdownTimeout is the maximum time allowed for graceful shutdown
	ShutdownTimeout time.Duration
	// HealthCheckTimeout is the maximum time allowed for health checks
	HealthCheckTimeout time.Duration
}

// DefaultTimeoutConfig returns default timeout configuration
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		EmbeddingTimeout:   5 * time.Second,
		CatalogLoadTimeout: 30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		HealthCheckTimeout: 5 * time.Second,
	}
}

// Manager manages timeouts for various operations
type Manager struct {
	config *TimeoutConfig
	logger *logging.Logger
}

// NewManager creates a new timeout manager
func NewManager(config *TimeoutConfig, logger *logging.Logger) *Manager {
	if config == nil {
		config = DefaultTimeoutConfig()
	}
	return &Manager{
		config: config,
		logger: logger,
	}
}

// WithEmbeddingTimeout creates a context bounding a provider embed()/search
// call.
func (m *Manager) WithEmbeddingTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return m.withTimeout(parent, m.config.EmbeddingTimeout, "embedding")
}

// WithCatalogLoadTimeout creates a context bounding the startup catalog load.
func (m *Manager) WithCatalogLoadTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return m.withTimeout(parent, m.config.CatalogLoadTimeout, "catalog_load")
}

// WithHealthCheckTimeout creates a context with health check timeout
func (m *Manager) WithHealthCheckTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return m.withTimeout(parent, m.config.HealthCheckTimeout, "health_check")
}

// WithShutdownTimeout creates a context with shutdown timeout
func (m *Manager) WithShutdownTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return m.withTimeout(parent, m.config.ShutdownTimeout, "shutdown")
}

// WithCustomTimeout creates a context with custom timeout
func (m *Manager) WithCustomTimeout(parent context.Context, timeout time.Duration, operation string) (context.Context, context.CancelFunc) {
	return m.withTimeout(parent, timeout, operation)
}

// withTimeout is the internal method to create timeouts
func (m *Manager) withTimeout(parent context.Context, timeout time.Duration, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)

	if m.logger != nil {
		m.logger.Debug("timeout_created",
			"operation", operation,
			"timeout_ms", timeout.Milliseconds(),
		)
	}

	return ctx, cancel
}

// HandleTimeout handles context timeout errors and creates appropriate
// application errors. For the embedding operation, deadline expiry is
// translated into EmbeddingUnavailable per the pipeline's error contract;
// every other operation gets a generic timeout error.
func (m *Manager) HandleTimeout(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		timeout := m.getTimeoutForOperation(operation)

		if m.logger != nil {
			m.logger.Warn("operation_timeout",
				"operation", operation,
				"timeout_ms", timeout.Milliseconds(),
			)
		}

		if operation == "embedding" {
			return errors.NewEmbeddingUnavailable(
				fmt.Sprintf("embedding provider call exceeded %s", timeout), err,
			)
		}

		return errors.NewTimeoutError(operation, timeout).
			WithSeverity(errors.SeverityHigh).
			WithComponent("timeout_manager")
	}

	if ctx.Err() == context.Canceled {
		if m.logger != nil {
			m.logger.Debug("operation_cancelled", "operation", operation)
		}
		return errors.NewApplicationError(errors.InternalError, "Operation cancelled").
			WithSeverity(errors.SeverityMedium).
			WithComponent("timeout_manager").
			WithDetails(map[string]interface{}{
				"operation": operation,
				"reason":    "cancelled",
			})
	}

	return err
}

// getTimeoutForOperation returns the appropriate timeout for an operation
func (m *Manager) getTimeoutForOperation(operation string) time.Duration {
	switch operation {
	case "embedding":
		return m.config.EmbeddingTimeout
	case "catalog_load":
		return m.config.CatalogLoadTimeout
	case "health_check":
		return m.config.HealthCheckTimeout
	case "shutdown":
		return m.config.ShutdownTimeout
	default:
		return m.config.EmbeddingTimeout // Default fallback
	}
}

// EmbeddingTimeoutWrapper wraps a call to the embedding provider with a
// deadline and translates expiry into EmbeddingUnavailable.
type EmbeddingTimeoutWrapper struct {
	manager *Manager
}

// NewEmbeddingTimeoutWrapper creates a new embedding timeout wrapper
func NewEmbeddingTimeoutWrapper(manager *Manager) *EmbeddingTimeoutWrapper {
	return &EmbeddingTimeoutWrapper{manager: manager}
}

// WrapEmbeddingCall wraps the provider call with timeout handling. The
// operation runs in its own goroutine so a hung HTTP client cannot block the
// caller past the deadline.
func (etw *EmbeddingTimeoutWrapper) WrapEmbeddingCall(operation func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		timeoutCtx, cancel := etw.manager.WithEmbeddingTimeout(ctx)
		defer cancel()

		resultChan := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					resultChan <- fmt.Errorf("embedding call panicked: %v", r)
				}
			}()
			resultChan <- operation(timeoutCtx)
		}()

		select {
		case err := <-resultChan:
			return etw.manager.HandleTimeout(timeoutCtx, "embedding", err)
		case <-timeoutCtx.Done():
			return etw.manager.HandleTimeout(timeoutCtx, "embedding", timeoutCtx.Err())
		}
	}
}

// GracefulShutdown handles graceful shutdown with timeout
type GracefulShutdown struct {
	manager       *Manager
	shutdownFuncs []func(ctx context.Context) error
}

// NewGracefulShutdown creates a new graceful shutdown manager
func NewGracefulShutdown(manager *Manager) *GracefulShutdown {
	return &GracefulShutdown{
		manager:       manager,
		shutdownFuncs: make([]func(ctx context.Context) error, 0),
	}
}

// AddShutdownFunc adds a function to be called during shutdown
func (gs *GracefulShutdown) AddShutdownFunc(fn func(ctx context.Context) error) {
	gs.shutdownFuncs = append(gs.shutdownFuncs, fn)
}

// Shutdown performs graceful shutdown with timeout
func (gs *GracefulShutdown) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := gs.manager.WithShutdownTimeout(ctx)
	defer cancel()

	if gs.manager.logger != nil {
		gs.manager.logger.Info("graceful_shutdown_started",
			"timeout_ms", gs.manager.config.ShutdownTimeout.Milliseconds(),
			"shutdown_funcs_count", len(gs.shutdownFuncs),
		)
	}

	for i, fn := range gs.shutdownFuncs {
		select {
		case <-shutdownCtx.Done():
			if gs.manager.logger != nil {
				gs.manager.logger.Warn("shutdown_timeout",
					"completed_funcs", i,
					"total_funcs", len(gs.shutdownFuncs),
				)
			}
			return gs.manager.HandleTimeout(shutdownCtx, "shutdown", shutdownCtx.Err())
		default:
		}

		if err := fn(shutdownCtx); err != nil {
			if gs.manager.logger != nil {
				gs.manager.logger.Error("shutdown_func_failed",
					"func_index", i,
					"error", err.Error(),
				)
			}
		}

		select {
		case <-shutdownCtx.Done():
			if gs.manager.logger != nil {
				gs.manager.logger.Warn("shutdown_timeout",
					"completed_funcs", i+1,
					"total_funcs", len(gs.shutdownFuncs),
				)
			}
			return gs.manager.HandleTimeout(shutdownCtx, "shutdown", shutdownCtx.Err())
		default:
		}
	}

	if gs.manager.logger != nil {
		gs.manager.logger.Info("graceful_shutdown_completed")
	}

	return nil
}

// CircuitBreaker provides circuit breaker functionality guarding the
// embedding provider client against a flapping or overloaded backend.
type CircuitBreaker struct {
	manager         *Manager
	failureCount    int
	maxFailures     int
	timeout         time.Duration
	lastFailureTime time.Time
	state           CircuitState
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of circuit state
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(manager *Manager, maxFailures int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		manager:     manager,
		maxFailures: maxFailures,
		timeout:     timeout,
		state:       StateClosed,
	}
}

// Execute executes an operation with circuit breaker protection
func (cb *CircuitBreaker) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	if cb.state == StateOpen {
		if time.Since(cb.lastFailureTime) > cb.timeout {
			cb.state = StateHalfOpen
			if cb.manager.logger != nil {
				cb.manager.logger.Info("circuit_breaker_half_open")
			}
		} else {
			return errors.NewApplicationError(errors.ServiceUnavailable, "Circuit breaker is open").
				WithSeverity(errors.SeverityHigh).
				WithComponent("circuit_breaker").
				WithDetails(map[string]interface{}{
					"state":            cb.state.String(),
					"failure_count":    cb.failureCount,
					"max_failures":     cb.maxFailures,
					"last_failure_ago": time.Since(cb.lastFailureTime).String(),
				})
		}
	}

	err := operation(ctx)

	if err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

// recordFailure records a failure and potentially opens the circuit
func (cb *CircuitBreaker) recordFailure() {
	cb.failureCount++
	cb.lastFailureTime = time.Now()

	if cb.failureCount >= cb.maxFailures {
		cb.state = StateOpen
		if cb.manager.logger != nil {
			cb.manager.logger.Warn("circuit_breaker_opened",
				"failure_count", cb.failureCount,
				"max_failures", cb.maxFailures,
			)
		}
	}
}

// recordSuccess records a success and potentially closes the circuit
func (cb *CircuitBreaker) recordSuccess() {
	cb.failureCount = 0
	if cb.state == StateHalfOpen {
		cb.state = StateClosed
		if cb.manager.logger != nil {
			cb.manager.logger.Info("circuit_breaker_closed")
		}
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitState {
	return cb.state
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"state":            cb.state.String(),
		"failure_count":    cb.failureCount,
		"max_failures":     cb.maxFailures,
		"last_failure_ago": time.Since(cb.lastFailureTime).String(),
		"timeout_ms":       cb.timeout.Milliseconds(),
	}
}
