// Package mtconnect wires the Session Loop, Request Drivers, circuit
// breakers and Subscription Surface into the single public entry point
// for this library, in the style of aceproxy.Client's Config/NewClient/
// Start/Stop shape.
package mtconnect

import (
	"context"

	"github.com/mtconnect-go/client/agent"
	"github.com/mtconnect-go/client/breaker"
	"github.com/mtconnect-go/client/config"
	"github.com/mtconnect-go/client/events"
	"github.com/mtconnect-go/client/logging"
	"github.com/mtconnect-go/client/mtcerr"
	"github.com/mtconnect-go/client/session"
	"github.com/mtconnect-go/client/transport"
	"github.com/mtconnect-go/client/transport/httpxml"
)

// Client is a long-running MTConnect client: construct with New, attach
// subscribers with the On* methods (before or after Start), then Start it
// in the background and Stop it when done.
type Client struct {
	cfg    *config.Config
	logger *logging.Logger
	events *events.Registry
	loop   *session.Loop
}

// New constructs an inert Client from cfg. cfg is validated; a validation
// failure is returned rather than deferred to Start.
func New(cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(logging.ParseLogLevel(cfg.Resilience.LogLevel), "mtconnect")

	httpClient := httpxml.NewClient()
	drivers := &transport.Drivers{
		BaseURL:      cfg.BaseURL,
		DeviceName:   cfg.DeviceName,
		Timeout:      cfg.Timeout(),
		HTTP:         httpClient,
		StreamOpener: httpClient,
		Parser:       httpxml.Parser{},
		URLs:         httpxml.URLBuilder{},
		Breakers: transport.Breakers{
			Probe:   newBreaker(cfg, logger, "probe"),
			Current: newBreaker(cfg, logger, "current"),
			Assets:  newBreaker(cfg, logger, "assets"),
			Sample:  newBreaker(cfg, logger, "sample"),
		},
	}

	ev := events.New()
	loop := session.New(cfg, drivers, ev, logger)

	return &Client{cfg: cfg, logger: logger, events: ev, loop: loop}, nil
}

func newBreaker(cfg *config.Config, logger *logging.Logger, endpoint string) breaker.CircuitBreaker {
	return breaker.New(breaker.Config{
		FailureThreshold: cfg.Resilience.CBFailureThreshold,
		Timeout:          cfg.Resilience.CBTimeout,
		HalfOpenRequests: cfg.Resilience.CBHalfOpenRequests,
		Logger:           logger,
		Endpoint:         endpoint,
	})
}

// Start launches the Session Loop in the background. It returns
// immediately; the loop runs until ctx is cancelled or Stop is called.
func (c *Client) Start(ctx context.Context) {
	go c.loop.Run(ctx)
}

// Stop requests cooperative cancellation of the Session Loop and blocks
// until it has fully exited.
func (c *Client) Stop() {
	c.loop.Stop()
	<-c.loop.Done()
}

// Done returns a channel closed once the Session Loop has fully exited.
func (c *Client) Done() <-chan struct{} {
	return c.loop.Done()
}

// The On* methods below expose the Subscription Surface, delegating
// directly to the underlying events.Registry.

func (c *Client) OnProbeReceived(fn func(*agent.DevicesDocument))       { c.events.OnProbeReceived(fn) }
func (c *Client) OnCurrentReceived(fn func(*agent.StreamsDocument))     { c.events.OnCurrentReceived(fn) }
func (c *Client) OnSampleReceived(fn func(*agent.StreamsDocument))      { c.events.OnSampleReceived(fn) }
func (c *Client) OnAssetsReceived(fn func(*agent.AssetsDocument))       { c.events.OnAssetsReceived(fn) }
func (c *Client) OnError(fn func(*agent.ErrorDocument))                 { c.events.OnError(fn) }
func (c *Client) OnConnectionError(fn func(*mtcerr.Failure))            { c.events.OnConnectionError(fn) }
func (c *Client) OnXMLError(fn func([]byte))                           { c.events.OnXMLError(fn) }
func (c *Client) OnStarted(fn func())                                  { c.events.OnStarted(fn) }
func (c *Client) OnStopped(fn func())                                  { c.events.OnStopped(fn) }
