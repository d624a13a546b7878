package breaker

import (
	"errors"
	"testing"
	"time"
)

var errTestFailure = errors.New("test failure")

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		config         Config
		expectedConfig Config
	}{
		{
			name:           "valid config",
			config:         Config{FailureThreshold: 3, Timeout: 10 * time.Second, HalfOpenRequests: 2},
			expectedConfig: Config{FailureThreshold: 3, Timeout: 10 * time.Second, HalfOpenRequests: 2},
		},
		{
			name:           "zero values use defaults",
			config:         Config{},
			expectedConfig: Config{FailureThreshold: 5, Timeout: 30 * time.Second, HalfOpenRequests: 1},
		},
		{
			name:           "partial defaults",
			config:         Config{FailureThreshold: 10},
			expectedConfig: Config{FailureThreshold: 10, Timeout: 30 * time.Second, HalfOpenRequests: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := New(tt.config)
			if cb.State() != StateClosed {
				t.Fatalf("expected initial state CLOSED, got %s", cb.State())
			}

			br := cb.(*breakerImpl)
			if br.config.FailureThreshold != tt.expectedConfig.FailureThreshold {
				t.Errorf("FailureThreshold = %d, want %d", br.config.FailureThreshold, tt.expectedConfig.FailureThreshold)
			}
			if br.config.Timeout != tt.expectedConfig.Timeout {
				t.Errorf("Timeout = %v, want %v", br.config.Timeout, tt.expectedConfig.Timeout)
			}
			if br.config.HalfOpenRequests != tt.expectedConfig.HalfOpenRequests {
				t.Errorf("HalfOpenRequests = %d, want %d", br.config.HalfOpenRequests, tt.expectedConfig.HalfOpenRequests)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "CLOSED"},
		{StateOpen, "OPEN"},
		{StateHalfOpen, "HALF-OPEN"},
		{State(999), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestClosedToOpen(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, Timeout: 100 * time.Millisecond, HalfOpenRequests: 1})

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return errTestFailure }); err != errTestFailure {
			t.Errorf("failure %d: got %v, want errTestFailure", i+1, err)
		}
		if cb.State() != StateClosed {
			t.Errorf("after %d failures: state = %s, want CLOSED", i+1, cb.State())
		}
	}

	if err := cb.Execute(func() error { return errTestFailure }); err != errTestFailure {
		t.Errorf("got %v, want errTestFailure", err)
	}
	if cb.State() != StateOpen {
		t.Errorf("after threshold failures: state = %s, want OPEN", cb.State())
	}
}

func TestOpenBlocksRequests(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, Timeout: time.Second, HalfOpenRequests: 1})
	_ = cb.Execute(func() error { return errTestFailure })
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want OPEN", cb.State())
	}

	err := cb.Execute(func() error {
		t.Error("fn should not run while circuit is OPEN")
		return nil
	})
	if err != ErrOpen {
		t.Errorf("got %v, want ErrOpen", err)
	}
}

func TestOpenToHalfOpenToClosed(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, Timeout: 100 * time.Millisecond, HalfOpenRequests: 1})
	_ = cb.Execute(func() error { return errTestFailure })

	time.Sleep(150 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("got %v, want nil", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want CLOSED after lone half-open success", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, Timeout: 50 * time.Millisecond, HalfOpenRequests: 2})
	_ = cb.Execute(func() error { return errTestFailure })
	time.Sleep(100 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("got %v, want nil", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %s, want HALF-OPEN", cb.State())
	}

	if err := cb.Execute(func() error { return errTestFailure }); err != errTestFailure {
		t.Errorf("got %v, want errTestFailure", err)
	}
	if cb.State() != StateOpen {
		t.Errorf("state = %s, want OPEN after half-open failure", cb.State())
	}
}

func TestHalfOpenRequestLimitExceeded(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, Timeout: 50 * time.Millisecond, HalfOpenRequests: 1})
	_ = cb.Execute(func() error { return errTestFailure })
	time.Sleep(100 * time.Millisecond)

	// While the single allowed half-open trial is still running, a second
	// request must be rejected without running its fn.
	if err := cb.Execute(func() error {
		inner := cb.Execute(func() error {
			t.Error("fn should not run beyond the half-open request limit")
			return nil
		})
		if inner != ErrHalfOpenLimitReached {
			t.Errorf("second half-open request: got %v, want ErrHalfOpenLimitReached", inner)
		}
		return nil
	}); err != nil {
		t.Errorf("got %v, want nil", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want CLOSED", cb.State())
	}
}

func TestClosedSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, Timeout: 100 * time.Millisecond, HalfOpenRequests: 1})

	_ = cb.Execute(func() error { return errTestFailure })
	_ = cb.Execute(func() error { return errTestFailure })
	if cb.State() != StateClosed {
		t.Fatalf("state = %s, want CLOSED after 2 failures", cb.State())
	}

	_ = cb.Execute(func() error { return nil })

	_ = cb.Execute(func() error { return errTestFailure })
	_ = cb.Execute(func() error { return errTestFailure })
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want still CLOSED (count should have reset)", cb.State())
	}

	_ = cb.Execute(func() error { return errTestFailure })
	if cb.State() != StateOpen {
		t.Errorf("state = %s, want OPEN after 3rd fresh failure", cb.State())
	}
}

func TestReset(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, Timeout: time.Second, HalfOpenRequests: 1})
	_ = cb.Execute(func() error { return errTestFailure })
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want OPEN", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want CLOSED after Reset", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("got %v, want nil after reset", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	cb := New(Config{FailureThreshold: 5, Timeout: 50 * time.Millisecond, HalfOpenRequests: 2})

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = cb.Execute(func() error {
					if j%3 == 0 {
						return errTestFailure
					}
					return nil
				})
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	_ = cb.State()
}
