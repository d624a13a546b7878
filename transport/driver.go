package transport

import (
	"context"
	"errors"
	"time"

	"github.com/mtconnect-go/client/agent"
	"github.com/mtconnect-go/client/breaker"
	"github.com/mtconnect-go/client/metrics"
	"github.com/mtconnect-go/client/mtcerr"
)

// Breakers holds one circuit breaker per endpoint. A persistently failing
// agent trips the relevant breaker independently, so e.g. a broken Assets
// endpoint never blocks Probe/Current/Sample traffic.
type Breakers struct {
	Probe   breaker.CircuitBreaker
	Current breaker.CircuitBreaker
	Assets  breaker.CircuitBreaker
	Sample  breaker.CircuitBreaker
}

// Drivers implements the Probe, Current, Assets and Sample Request Drivers
// against a set of injected external collaborators. It is the only thing
// in this package under direct test; HTTPGetter/StreamOpener/DocumentParser/
// URLBuilder implementations live in sibling adapter packages.
type Drivers struct {
	BaseURL    string
	DeviceName string
	Timeout    time.Duration

	HTTP         HTTPGetter
	StreamOpener StreamOpener
	Parser       DocumentParser
	URLs         URLBuilder
	Breakers     Breakers
}

// fetchAndParse is the shared one-shot request/parse/classify shape behind
// Probe, Current and Assets: execute a breaker-guarded GET, then hand the
// body to the matching parser and translate the result into a Failure.
func fetchAndParse[T any](ctx context.Context, d *Drivers, cb breaker.CircuitBreaker, endpoint, url string, parse func([]byte) (*T, *agent.ErrorDocument, ParseOutcome)) (*T, *mtcerr.Failure) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if d.Timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	start := time.Now()
	var body []byte
	err := cb.Execute(func() error {
		b, getErr := d.HTTP.Get(reqCtx, url)
		if getErr != nil {
			return getErr
		}
		body = b
		return nil
	})
	metrics.RequestDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, breaker.ErrOpen) || errors.Is(err, breaker.ErrHalfOpenLimitReached) {
			metrics.RecordRequest(endpoint, "circuit_open")
			return nil, mtcerr.NewConnectionFailure(err, false)
		}
		metrics.RecordRequest(endpoint, "connection_failure")
		return nil, mtcerr.NewConnectionFailure(err, reqCtx.Err() != nil)
	}

	doc, errDoc, outcome := parse(body)
	switch outcome {
	case ParsedDocument:
		metrics.RecordRequest(endpoint, "success")
		return doc, nil
	case ParsedProtocolError:
		metrics.RecordRequest(endpoint, "protocol_error")
		return nil, mtcerr.NewProtocolFailure(errDoc)
	default:
		metrics.RecordRequest(endpoint, "transport_error")
		return nil, mtcerr.NewTransportFailure(body, nil)
	}
}

// Probe fetches the MTConnectDevices document.
func (d *Drivers) Probe(ctx context.Context) (*agent.DevicesDocument, *mtcerr.Failure) {
	url := d.URLs.Probe(d.BaseURL, d.DeviceName)
	return fetchAndParse(ctx, d, d.Breakers.Probe, "probe", url, d.Parser.ParseDevices)
}

// Current fetches the most recent sample of every data item.
func (d *Drivers) Current(ctx context.Context) (*agent.StreamsDocument, *mtcerr.Failure) {
	url := d.URLs.Current(d.BaseURL, d.DeviceName)
	return fetchAndParse(ctx, d, d.Breakers.Current, "current", url, d.Parser.ParseStreams)
}

// Assets fetches the current MTConnectAssets document.
func (d *Drivers) Assets(ctx context.Context) (*agent.AssetsDocument, *mtcerr.Failure) {
	url := d.URLs.Assets(d.BaseURL)
	return fetchAndParse(ctx, d, d.Breakers.Assets, "assets", url, d.Parser.ParseAssets)
}

// ParseStreamsChunk parses one raw Sample-stream chunk. Exposed separately
// from Stream because the Session Loop needs the parse outcome per chunk,
// not just the terminal stream result.
func (d *Drivers) ParseStreamsChunk(payload []byte) (*agent.StreamsDocument, *agent.ErrorDocument, ParseOutcome) {
	return d.Parser.ParseStreams(payload)
}

// errStreamClosed marks a Sample stream that ended because the agent closed
// the connection normally rather than erroring or being cancelled.
var errStreamClosed = errors.New("transport: sample stream closed by agent")

// Stream opens a long-poll Sample request and invokes onChunk once per
// payload received, until the agent closes the connection, ctx is
// cancelled, or onChunk itself returns an error. Stream always returns a
// non-nil Failure: a clean agent-side close is reported as a
// ConnectionFailure wrapping errStreamClosed, matching the Session Loop's
// Streaming state, which treats any stream termination identically and
// re-enters Backoff.
func (d *Drivers) Stream(ctx context.Context, from, count int64, intervalMS int, onChunk func(payload []byte) error) *mtcerr.Failure {
	url := d.URLs.Sample(d.BaseURL, d.DeviceName, from, count, intervalMS)

	start := time.Now()
	err := d.Breakers.Sample.Execute(func() error {
		return d.StreamOpener.OpenStream(ctx, url, onChunk)
	})
	metrics.RequestDurationSeconds.WithLabelValues("sample").Observe(time.Since(start).Seconds())

	cancelled := ctx.Err() != nil

	if err != nil {
		if errors.Is(err, breaker.ErrOpen) || errors.Is(err, breaker.ErrHalfOpenLimitReached) {
			metrics.RecordRequest("sample", "circuit_open")
			return mtcerr.NewConnectionFailure(err, false)
		}
		metrics.RecordRequest("sample", "connection_failure")
		return mtcerr.NewConnectionFailure(err, cancelled)
	}

	metrics.RecordRequest("sample", "success")
	return mtcerr.NewConnectionFailure(errStreamClosed, cancelled)
}
