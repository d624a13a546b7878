// Package mtcerr classifies the three failure domains a Request Driver can
// return, so the Error Router (see session package) can be total instead of
// relying on sentinel nulls.
package mtcerr

import (
	"errors"
	"fmt"

	"github.com/mtconnect-go/client/agent"
)

// Kind identifies which of the three failure domains a Failure belongs to.
type Kind int

const (
	// Connection covers I/O errors, DNS, TCP, TLS, non-2xx status and timeouts.
	Connection Kind = iota
	// Protocol covers a body that parsed as an MTConnectError document.
	Protocol
	// Transport covers a non-empty body that parsed as none of the expected shapes.
	Transport
)

func (k Kind) String() string {
	switch k {
	case Connection:
		return "connection"
	case Protocol:
		return "protocol"
	case Transport:
		return "transport"
	default:
		return "unknown"
	}
}

// Sentinel markers so callers can classify a Failure with errors.Is without
// reaching into the struct.
var (
	ErrConnection = errors.New("mtconnect: connection failure")
	ErrProtocol   = errors.New("mtconnect: protocol error")
	ErrTransport  = errors.New("mtconnect: transport error")
)

// Failure is the error type every Request Driver returns on a non-success
// result. Exactly one of Err or Doc is meaningful, depending on Kind.
type Failure struct {
	Kind      Kind
	Err       error
	Doc       *agent.ErrorDocument
	Payload   []byte
	Cancelled bool
}

func (f *Failure) Error() string {
	switch f.Kind {
	case Protocol:
		if f.Doc != nil && len(f.Doc.Errors) > 0 {
			return fmt.Sprintf("mtconnect protocol error: %s: %s", f.Doc.Errors[0].ErrorCode, f.Doc.Errors[0].Message)
		}
		return "mtconnect protocol error"
	case Transport:
		return fmt.Sprintf("mtconnect transport error: unparseable body (%d bytes): %v", len(f.Payload), f.Err)
	default:
		if f.Cancelled {
			return "mtconnect connection failure: cancelled"
		}
		return fmt.Sprintf("mtconnect connection failure: %v", f.Err)
	}
}

func (f *Failure) Unwrap() error {
	switch f.Kind {
	case Protocol:
		return ErrProtocol
	case Transport:
		return ErrTransport
	default:
		return ErrConnection
	}
}

// NewConnectionFailure wraps a transport-level error (I/O, timeout, non-2xx).
func NewConnectionFailure(err error, cancelled bool) *Failure {
	return &Failure{Kind: Connection, Err: err, Cancelled: cancelled}
}

// NewProtocolFailure wraps an MTConnectError document returned in place of
// the expected document.
func NewProtocolFailure(doc *agent.ErrorDocument) *Failure {
	return &Failure{Kind: Protocol, Doc: doc}
}

// NewTransportFailure wraps a body that parsed as neither the expected
// document nor an MTConnectError document.
func NewTransportFailure(payload []byte, err error) *Failure {
	return &Failure{Kind: Transport, Payload: payload, Err: err}
}

// IsCancelled reports whether a Failure represents a cooperative cancellation
// rather than a genuine connection problem.
func IsCancelled(err error) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Cancelled
	}
	return false
}
