// Package httpxml is the default adapter for transport.HTTPGetter,
// transport.StreamOpener and transport.URLBuilder: plain net/http GETs
// and query-string composition, in the style of aceproxy.Client's
// context-aware request construction.
package httpxml

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client is the default net/http-backed HTTPGetter and StreamOpener.
type Client struct {
	HTTP *http.Client
}

// NewClient returns a Client with no fixed http.Client timeout: per-request
// deadlines come from the context passed to Get/OpenStream, since a
// long-poll Sample request can legitimately outlive a short Probe timeout.
func NewClient() *Client {
	return &Client{HTTP: &http.Client{}}
}

// Get performs a single GET and returns the full response body.
func (c *Client) Get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpxml: build request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpxml: get %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpxml: read body from %s: %w", reqURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("httpxml: %s returned status %d: %s", reqURL, resp.StatusCode, string(body))
	}
	return body, nil
}

// URLBuilder is the default transport.URLBuilder: it composes MTConnect
// endpoint URLs by appending the standard endpoint names and query
// parameters to the configured base URL, optionally scoped to one device.
type URLBuilder struct{}

func (URLBuilder) Probe(baseURL, deviceName string) string {
	return join(baseURL, deviceName, "probe", nil)
}

func (URLBuilder) Current(baseURL, deviceName string) string {
	return join(baseURL, deviceName, "current", nil)
}

func (URLBuilder) Sample(baseURL, deviceName string, from, count int64, intervalMS int) string {
	q := url.Values{}
	q.Set("from", fmt.Sprintf("%d", from))
	q.Set("count", fmt.Sprintf("%d", count))
	q.Set("interval", fmt.Sprintf("%d", intervalMS))
	return join(baseURL, deviceName, "sample", q)
}

func (URLBuilder) Assets(baseURL string) string {
	return join(baseURL, "", "assets", nil)
}

func join(baseURL, deviceName, endpoint string, q url.Values) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		// An invalid base URL is a configuration error the caller should
		// have caught at startup (config.Config.Validate); fall back to
		// string concatenation so the driver still gets a URL to fail on.
		if deviceName != "" {
			return fmt.Sprintf("%s/%s/%s", baseURL, deviceName, endpoint)
		}
		return fmt.Sprintf("%s/%s", baseURL, endpoint)
	}
	base := strings.TrimSuffix(u.Path, "/")
	if deviceName != "" {
		u.Path = fmt.Sprintf("%s/%s/%s", base, deviceName, endpoint)
	} else {
		u.Path = fmt.Sprintf("%s/%s", base, endpoint)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
