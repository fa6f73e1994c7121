package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mirrorplay/internal/httputil"
	"mirrorplay/internal/media"
)

// Page scrapes the public video page when the JSON API is unavailable.
type Page struct {
	base   string
	client *http.Client
}

// NewPage creates an HTML page provider.
func NewPage(base string, client *http.Client) *Page {
	if client == nil {
		client = httputil.NewClient()
	}
	return &Page{base: httputil.BaseURL(base), client: client}
}

// Video fetches and parses GET {base}/video/{slug}.
func (p *Page) Video(ctx context.Context, slug string) (*media.Video, error) {
	if err := httputil.ValidateSlug(slug); err != nil {
		return nil, fmt.Errorf("invalid slug: %w", err)
	}

	url := httputil.BuildURL(p.base, "video", slug)
	doc, err := p.fetchDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("getting video %s: %w", slug, err)
	}

	v := parseVideoPage(doc, url)
	v.Slug = slug
	if v.EmbedURL == "" && len(v.Servers) == 0 {
		return nil, fmt.Errorf("%s: no player on page: %w", slug, ErrNotFound)
	}
	return v, nil
}

func (p *Page) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := httputil.Get(ctx, p.client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httputil.StatusError{Code: resp.StatusCode, URL: url}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// parseVideoPage extracts the player and server switcher from a video page.
// The primary embed is the player iframe; alternates come from server
// buttons carrying data-server-url.
func parseVideoPage(doc *goquery.Document, pageURL string) *media.Video {
	v := &media.Video{}

	root := doc.Find("[data-video-id]").First()
	v.ID = strings.TrimSpace(root.AttrOr("data-video-id", ""))
	v.Title = strings.TrimSpace(doc.Find("h1").First().Text())

	iframe := doc.Find("iframe#player, iframe[data-player]").First()
	if iframe.Length() == 0 {
		iframe = doc.Find("iframe").First()
	}
	v.EmbedURL = httputil.Resolve(pageURL, iframe.AttrOr("src", ""))

	doc.Find("[data-server-url]").Each(func(_ int, s *goquery.Selection) {
		u := httputil.Resolve(pageURL, s.AttrOr("data-server-url", ""))
		if u == "" {
			return
		}
		name := strings.TrimSpace(s.Text())
		if name == "" {
			name = strings.TrimSpace(s.AttrOr("title", ""))
		}
		v.Servers = append(v.Servers, media.ServerRef{Name: name, URL: u})
	})

	v.PremiumURL = httputil.Resolve(pageURL, doc.Find("[data-premium-url]").First().AttrOr("data-premium-url", ""))

	if n, err := strconv.ParseInt(strings.TrimSpace(doc.Find("[data-views]").First().AttrOr("data-views", "")), 10, 64); err == nil {
		v.Views = n
	}

	return v
}
