// Package breaker guards the MTConnect Request Drivers: a persistently
// failing agent stops being hit on every retry_interval_ms tick and
// instead fails fast until the breaker's timeout elapses. This composes
// with, rather than replaces, the Session Loop's own Backoff state.
package breaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mtconnect-go/client/logging"
	"github.com/mtconnect-go/client/metrics"
)

// State represents the current state of a circuit breaker.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if it can close.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains the configuration for a circuit breaker.
type Config struct {
	FailureThreshold int           // consecutive failures before opening
	Timeout          time.Duration // how long to wait in OPEN before HALF-OPEN
	HalfOpenRequests int           // test requests allowed in HALF-OPEN
	Logger           *logging.Logger
	Endpoint         string // e.g. "probe", "current", "sample", "assets" — logging context
}

// CircuitBreaker defines the interface for circuit breaker functionality.
type CircuitBreaker interface {
	Execute(func() error) error
	State() State
	Reset()
}

var (
	// ErrOpen is returned when the circuit breaker is in OPEN state.
	ErrOpen = errors.New("breaker: circuit is open")
	// ErrHalfOpenLimitReached is returned when too many requests are made in HALF-OPEN state.
	ErrHalfOpenLimitReached = errors.New("breaker: half-open request limit reached")
)

type breakerImpl struct {
	config Config
	mu     sync.RWMutex

	state             State
	failureCount      int
	halfOpenRequests  int
	halfOpenSuccesses int
	openedAt          time.Time
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}

	return &breakerImpl{
		config: cfg,
		state:  StateClosed,
	}
}

// Execute runs fn if the circuit allows it.
func (b *breakerImpl) Execute(fn func() error) error {
	b.mu.Lock()

	if b.state == StateOpen && time.Since(b.openedAt) >= b.config.Timeout {
		b.transitionTo(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		b.mu.Unlock()
		return ErrOpen

	case StateHalfOpen:
		if b.halfOpenRequests >= b.config.HalfOpenRequests {
			b.mu.Unlock()
			return ErrHalfOpenLimitReached
		}
		b.halfOpenRequests++
		b.mu.Unlock()

		err := fn()

		b.mu.Lock()
		defer b.mu.Unlock()
		if err != nil {
			b.transitionTo(StateOpen)
			return err
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.config.HalfOpenRequests {
			b.transitionTo(StateClosed)
		}
		return nil

	case StateClosed:
		b.mu.Unlock()

		err := fn()

		b.mu.Lock()
		defer b.mu.Unlock()
		if err != nil {
			b.failureCount++
			if b.failureCount >= b.config.FailureThreshold {
				b.transitionTo(StateOpen)
			}
			return err
		}
		b.failureCount = 0
		return nil

	default:
		b.mu.Unlock()
		return fmt.Errorf("breaker: unknown state %d", b.state)
	}
}

// State returns the current state of the circuit breaker.
func (b *breakerImpl) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Reset resets the circuit breaker to CLOSED state.
func (b *breakerImpl) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}

// transitionTo changes state. Must be called with the lock held.
func (b *breakerImpl) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState

	if b.config.Logger != nil {
		b.config.Logger.LogCircuitBreakerChange(oldState.String(), newState.String(), b.config.Endpoint)
	}
	if b.config.Endpoint != "" {
		metrics.SetCircuitBreakerState(b.config.Endpoint, newState.String())
	}

	switch newState {
	case StateClosed:
		b.failureCount = 0
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
		b.openedAt = time.Time{}
	case StateOpen:
		b.openedAt = time.Now()
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
		if b.config.Endpoint != "" {
			metrics.RecordCircuitBreakerTrip(b.config.Endpoint)
		}
	case StateHalfOpen:
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
	}
}
