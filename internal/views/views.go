// Package views reports content views to the site's counter endpoint.
package views

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mirrorplay/internal/httputil"
	"mirrorplay/internal/log"
	"mirrorplay/internal/media"
)

// trackTimeout bounds a fire-and-forget increment.
const trackTimeout = 10 * time.Second

// Tracker increments view counters keyed by content type and ID.
type Tracker struct {
	base   string
	client *http.Client
}

// NewTracker creates a tracker for the given site.
func NewTracker(base string, client *http.Client) *Tracker {
	if client == nil {
		client = httputil.NewClient()
	}
	return &Tracker{base: httputil.BaseURL(base), client: client}
}

type trackRequest struct {
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId"`
}

type trackResponse struct {
	Views *int64 `json:"views"`
}

// Track posts one view. The returned count is valid only when ok is true;
// the endpoint is not required to report it.
func (t *Tracker) Track(ctx context.Context, ct media.ContentType, id string) (count int64, ok bool, err error) {
	if err := httputil.ValidateSlug(id); err != nil {
		return 0, false, fmt.Errorf("invalid content ID: %w", err)
	}

	var resp trackResponse
	url := httputil.BuildURL(t.base, "api", "views")
	if err := httputil.PostJSON(ctx, t.client, url, trackRequest{ContentType: ct.String(), ContentID: id}, &resp); err != nil {
		return 0, false, fmt.Errorf("tracking %s %s: %w", ct, id, err)
	}
	if resp.Views == nil {
		return 0, false, nil
	}
	return *resp.Views, true, nil
}

// TrackAsync fires Track in the background. onCount runs only when the
// endpoint succeeded and reported a count. Failures are logged and dropped.
func (t *Tracker) TrackAsync(ct media.ContentType, id string, onCount func(int64)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()

		n, ok, err := t.Track(ctx, ct, id)
		if err != nil {
			l := log.WithComponent("views")
			l.Warn().Err(err).Str("type", ct.String()).Str("id", id).Msg("view not counted")
			return
		}
		if ok && onCount != nil {
			onCount(n)
		}
	}()
}
