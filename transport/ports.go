// Package transport implements the Request Drivers: the one-shot Probe,
// Current and Assets calls and the long-poll Sample stream. Each driver
// orchestrates a set of external collaborators (HTTP execution, XML
// parsing, URL composition, multipart decoding) that are intentionally
// kept behind narrow interfaces so the orchestration logic here stays
// the thing under test, not the wire format.
package transport

import (
	"context"

	"github.com/mtconnect-go/client/agent"
)

// HTTPGetter executes a single GET and returns the response body.
// Executing the HTTP request is an external collaborator's job; the
// driver only needs the bytes back.
type HTTPGetter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// StreamOpener opens a long-poll chunked response and invokes onChunk once
// per boundary-delimited payload until the body closes, ctx is done, or
// onChunk returns an error. Identifying chunk boundaries in a streamed
// multipart body is an external collaborator's job.
type StreamOpener interface {
	OpenStream(ctx context.Context, url string, onChunk func(payload []byte) error) error
}

// ParseOutcome is the closed sum type a parse can produce, replacing a
// nullable document pointer with an explicit three-way result.
type ParseOutcome int

const (
	// ParsedDocument means the expected document type parsed cleanly.
	ParsedDocument ParseOutcome = iota
	// ParsedProtocolError means the body parsed as an MTConnectError document.
	ParsedProtocolError
	// Unparseable means the body was neither of the above.
	Unparseable
)

// DocumentParser turns raw response bytes into one of the agent document
// shapes. Parsing XML is an external collaborator's job; the driver only
// needs to know which of the three outcomes resulted.
type DocumentParser interface {
	ParseDevices(body []byte) (*agent.DevicesDocument, *agent.ErrorDocument, ParseOutcome)
	ParseStreams(body []byte) (*agent.StreamsDocument, *agent.ErrorDocument, ParseOutcome)
	ParseAssets(body []byte) (*agent.AssetsDocument, *agent.ErrorDocument, ParseOutcome)
}

// URLBuilder composes request URLs from a base URL and endpoint-specific
// parameters. Namespace/version resolution and URL composition are an
// external collaborator's job.
type URLBuilder interface {
	Probe(baseURL, deviceName string) string
	Current(baseURL, deviceName string) string
	Sample(baseURL, deviceName string, from, count int64, intervalMS int) string
	Assets(baseURL string) string
}
