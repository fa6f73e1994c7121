// Package catalog fetches video metadata from the content site.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mirrorplay/internal/httputil"
	"mirrorplay/internal/media"
)

// ErrNotFound is returned when the site has no video with the given slug.
var ErrNotFound = errors.New("video not found")

// Provider is the interface content sources must implement.
type Provider interface {
	// Video returns the video with its primary embed, alternate servers and
	// optional premium file URL.
	Video(ctx context.Context, slug string) (*media.Video, error)
}

// New returns the provider for a source name: "api" or "html".
func New(source, base string, client *http.Client) (Provider, error) {
	switch strings.ToLower(source) {
	case "api", "":
		return NewAPI(base, client), nil
	case "html":
		return NewPage(base, client), nil
	default:
		return nil, fmt.Errorf("unknown content source %q (valid: api, html)", source)
	}
}

// API reads videos from the site's JSON endpoint.
type API struct {
	base   string // origin, e.g. "https://example.com"
	client *http.Client
}

// NewAPI creates a JSON API provider.
func NewAPI(base string, client *http.Client) *API {
	if client == nil {
		client = httputil.NewClient()
	}
	return &API{base: httputil.BaseURL(base), client: client}
}

// Video fetches GET {base}/api/videos/{slug}.
func (a *API) Video(ctx context.Context, slug string) (*media.Video, error) {
	if err := httputil.ValidateSlug(slug); err != nil {
		return nil, fmt.Errorf("invalid slug: %w", err)
	}

	url := httputil.BuildURL(a.base, "api", "videos", slug)
	var v media.Video
	if err := httputil.GetJSON(ctx, a.client, url, &v); err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("getting video %s: %w", slug, err)
	}

	if v.Slug == "" {
		v.Slug = slug
	}
	v.EmbedURL = httputil.Resolve(url, v.EmbedURL)
	v.PremiumURL = httputil.Resolve(url, v.PremiumURL)
	for i := range v.Servers {
		v.Servers[i].URL = httputil.Resolve(url, v.Servers[i].URL)
	}
	return &v, nil
}
