package mtcerr

import (
	"errors"
	"testing"

	"github.com/mtconnect-go/client/agent"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Connection, "connection"},
		{Protocol, "protocol"},
		{Transport, "transport"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestNewConnectionFailureUnwrapsToSentinel(t *testing.T) {
	f := NewConnectionFailure(errors.New("dial tcp: refused"), false)
	if !errors.Is(f, ErrConnection) {
		t.Error("expected errors.Is(f, ErrConnection) to be true")
	}
	if errors.Is(f, ErrProtocol) || errors.Is(f, ErrTransport) {
		t.Error("connection failure must not match the other sentinels")
	}
}

func TestNewProtocolFailureUnwrapsToSentinel(t *testing.T) {
	doc := &agent.ErrorDocument{Errors: []agent.ErrorDetail{{ErrorCode: "INVALID_REQUEST", Message: "boom"}}}
	f := NewProtocolFailure(doc)
	if !errors.Is(f, ErrProtocol) {
		t.Error("expected errors.Is(f, ErrProtocol) to be true")
	}
	if want := "mtconnect protocol error: INVALID_REQUEST: boom"; f.Error() != want {
		t.Errorf("Error() = %q, want %q", f.Error(), want)
	}
}

func TestNewTransportFailureUnwrapsToSentinel(t *testing.T) {
	f := NewTransportFailure([]byte("garbage"), errors.New("unexpected root element"))
	if !errors.Is(f, ErrTransport) {
		t.Error("expected errors.Is(f, ErrTransport) to be true")
	}
}

func TestIsCancelled(t *testing.T) {
	cancelled := NewConnectionFailure(errors.New("context canceled"), true)
	if !IsCancelled(cancelled) {
		t.Error("expected IsCancelled to be true for a cancelled failure")
	}

	notCancelled := NewConnectionFailure(errors.New("dial tcp: refused"), false)
	if IsCancelled(notCancelled) {
		t.Error("expected IsCancelled to be false for a genuine connection failure")
	}

	if IsCancelled(errors.New("plain error")) {
		t.Error("expected IsCancelled to be false for a non-Failure error")
	}
}
