package httpxml

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OpenStream issues the long-poll Sample GET and reads the
// multipart/x-mixed-replace response, handing one XML payload to onChunk
// per boundary part. It keeps reading until the body closes, ctx is done,
// or onChunk returns an error.
func (c *Client) OpenStream(ctx context.Context, reqURL string, onChunk func([]byte) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("httpxml: build stream request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("httpxml: open stream %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("httpxml: stream %s returned status %d", reqURL, resp.StatusCode)
	}

	boundary := boundaryFromContentType(resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	scanner.Split(makeBoundarySplit(boundary))

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		payload := stripPartHeaders(scanner.Bytes())
		if len(payload) == 0 {
			continue
		}
		if err := onChunk(payload); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("httpxml: read stream %s: %w", reqURL, err)
	}
	return nil
}

func boundaryFromContentType(contentType string) string {
	const marker = "boundary="
	idx := strings.Index(contentType, marker)
	if idx < 0 {
		return "--MTCONNECT-BOUNDARY"
	}
	b := contentType[idx+len(marker):]
	if semi := strings.IndexByte(b, ';'); semi >= 0 {
		b = b[:semi]
	}
	return "--" + strings.Trim(b, `"`)
}

// makeBoundarySplit returns a bufio.SplitFunc that delimits on occurrences
// of the given MIME boundary line, yielding one part per token.
func makeBoundarySplit(boundary string) bufio.SplitFunc {
	sep := []byte(boundary)
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if idx := bytes.Index(data, sep); idx >= 0 {
			if idx == 0 {
				// Leading boundary with nothing before it: skip past it.
				return len(sep), nil, nil
			}
			return idx + len(sep), data[:idx], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

// stripPartHeaders removes the MIME part headers (Content-type,
// Content-length) that precede the XML body within a boundary part,
// returning just the XML payload.
func stripPartHeaders(part []byte) []byte {
	sep := []byte("\r\n\r\n")
	if idx := bytes.Index(part, sep); idx >= 0 {
		return bytes.TrimSpace(part[idx+len(sep):])
	}
	sep2 := []byte("\n\n")
	if idx := bytes.Index(part, sep2); idx >= 0 {
		return bytes.TrimSpace(part[idx+len(sep2):])
	}
	return bytes.TrimSpace(part)
}
