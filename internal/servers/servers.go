// Package servers builds the ordered list of playback candidates for a video.
// The order of the list is the order automatic failover walks it in. The gated
// premium source is kept apart and is only reachable through PremiumIndex.
package servers

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/samber/lo"

	"mirrorplay/internal/media"
)

// PremiumIndex addresses the gated premium candidate.
const PremiumIndex = -1

// PremiumName is the display label of the gated candidate.
const PremiumName = "No Ads"

// ErrNoServers is returned when a video has no usable playback URL.
var ErrNoServers = errors.New("no playable servers")

var directFileExts = []string{".mp4", ".m3u8", ".webm", ".mkv", ".mov"}

// List is an immutable, ordered set of candidates for one video.
type List struct {
	candidates []media.Server
	premium    *media.Server
}

// FromVideo builds a List from a content item: the primary embed first, then
// the operator-configured alternates in the order the API returned them.
func FromVideo(v media.Video) (*List, error) {
	refs := make([]media.ServerRef, 0, len(v.Servers)+1)
	if v.EmbedURL != "" {
		refs = append(refs, media.ServerRef{URL: v.EmbedURL})
	}
	refs = append(refs, v.Servers...)

	refs = lo.Filter(refs, func(r media.ServerRef, _ int) bool {
		return strings.TrimSpace(r.URL) != ""
	})
	refs = lo.UniqBy(refs, func(r media.ServerRef) string {
		return strings.TrimSpace(r.URL)
	})

	candidates := lo.Map(refs, func(r media.ServerRef, i int) media.Server {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = fmt.Sprintf("Server %d", i+1)
		}
		u := strings.TrimSpace(r.URL)
		return media.Server{Name: name, URL: u, Kind: KindOf(u)}
	})

	var premium *media.Server
	if u := strings.TrimSpace(v.PremiumURL); u != "" {
		premium = &media.Server{Name: PremiumName, URL: u, Kind: media.DirectFile, Gated: true}
	}

	return New(candidates, premium)
}

// New builds a List from explicit candidates. The first candidate is the
// primary and must not be gated; gated entries are not allowed in the
// failover sequence at all.
func New(candidates []media.Server, premium *media.Server) (*List, error) {
	if len(candidates) == 0 {
		return nil, ErrNoServers
	}
	for i, c := range candidates {
		if c.Gated {
			return nil, fmt.Errorf("candidate %d (%s) is gated; gated sources belong in the premium slot", i, c.Name)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("candidate %d has no name", i)
		}
	}

	l := &List{candidates: append([]media.Server(nil), candidates...)}
	if premium != nil {
		p := *premium
		p.Gated = true
		l.premium = &p
	}
	return l, nil
}

// Len returns the number of candidates in the failover sequence. The premium
// candidate is not counted.
func (l *List) Len() int {
	return len(l.candidates)
}

// At returns the candidate at index i. PremiumIndex returns the premium
// candidate when one exists.
func (l *List) At(i int) (media.Server, bool) {
	if i == PremiumIndex {
		return l.Premium()
	}
	if i < 0 || i >= len(l.candidates) {
		return media.Server{}, false
	}
	return l.candidates[i], true
}

// Premium returns the gated premium candidate, if the video has one.
func (l *List) Premium() (media.Server, bool) {
	if l.premium == nil {
		return media.Server{}, false
	}
	return *l.premium, true
}

// All returns a copy of the failover sequence.
func (l *List) All() []media.Server {
	return append([]media.Server(nil), l.candidates...)
}

// IsSelectable reports whether a viewer may pick the candidate.
func IsSelectable(s media.Server, entitled bool) bool {
	return !s.Gated || entitled
}

// KindOf classifies a URL as a direct media file or an embed page by the
// extension of its path.
func KindOf(rawURL string) media.Kind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return media.Embed
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if lo.Contains(directFileExts, ext) {
		return media.DirectFile
	}
	return media.Embed
}
