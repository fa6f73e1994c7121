// Package probe checks over HTTP whether a playback server would load.
// It stands in for the load and error events a browser iframe fires:
// a nil error from Probe is a load, anything else an error.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"mirrorplay/internal/httputil"
	"mirrorplay/internal/media"
)

// ErrFramingDenied is returned for embed pages that refuse to be framed.
var ErrFramingDenied = errors.New("embed refuses framing")

// ErrNotMedia is returned when a direct file URL does not serve media.
var ErrNotMedia = errors.New("not a media response")

// HTTP probes servers with an HTTP client.
type HTTP struct {
	client *http.Client
}

// New returns an HTTP prober. A nil client gets the hardened default.
func New(client *http.Client) *HTTP {
	if client == nil {
		client = httputil.NewClient()
	}
	return &HTTP{client: client}
}

// Probe fetches enough of the server to classify it.
func (p *HTTP) Probe(ctx context.Context, s media.Server) error {
	switch s.Kind {
	case media.DirectFile:
		return p.probeFile(ctx, s.URL)
	default:
		return p.probeEmbed(ctx, s.URL)
	}
}

func (p *HTTP) probeEmbed(ctx context.Context, url string) error {
	resp, err := httputil.Get(ctx, p.client, url)
	if err != nil {
		return fmt.Errorf("loading embed: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httputil.StatusError{Code: resp.StatusCode, URL: url}
	}
	if reason := framingDenied(resp.Header); reason != "" {
		return fmt.Errorf("%w: %s", ErrFramingDenied, reason)
	}
	return nil
}

func (p *HTTP) probeFile(ctx context.Context, url string) error {
	req, err := httputil.NewRequest(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("checking file: %w", err)
	}
	drain(resp)

	if resp.StatusCode == http.StatusMethodNotAllowed {
		// Some CDNs only answer GET; ask for the first byte.
		req, err = httputil.NewRequest(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Range", "bytes=0-0")
		resp, err = p.client.Do(req)
		if err != nil {
			return fmt.Errorf("checking file: %w", err)
		}
		drain(resp)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return &httputil.StatusError{Code: resp.StatusCode, URL: url}
	}
	if !isMedia(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("%w: content type %q", ErrNotMedia, resp.Header.Get("Content-Type"))
	}
	return nil
}

// framingDenied returns a reason when headers forbid embedding on another origin.
func framingDenied(h http.Header) string {
	switch strings.ToUpper(strings.TrimSpace(h.Get("X-Frame-Options"))) {
	case "DENY":
		return "X-Frame-Options: DENY"
	case "SAMEORIGIN":
		return "X-Frame-Options: SAMEORIGIN"
	}

	for _, directive := range strings.Split(h.Get("Content-Security-Policy"), ";") {
		fields := strings.Fields(directive)
		if len(fields) == 0 || !strings.EqualFold(fields[0], "frame-ancestors") {
			continue
		}
		sources := fields[1:]
		if len(sources) == 1 && (sources[0] == "'none'" || sources[0] == "'self'") {
			return "CSP frame-ancestors " + sources[0]
		}
	}
	return ""
}

func isMedia(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mt, "video/"), strings.HasPrefix(mt, "audio/"):
		return true
	case mt == "application/octet-stream",
		mt == "application/vnd.apple.mpegurl",
		mt == "application/x-mpegurl",
		mt == "application/dash+xml":
		return true
	}
	return false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}
