// Package media defines shared types for the mirrorplay application.
package media

import "time"

// ContentType identifies the kind of catalog item a view is counted against.
type ContentType int

const (
	ContentVideo ContentType = iota
	ContentPicture
)

func (c ContentType) String() string {
	switch c {
	case ContentVideo:
		return "video"
	case ContentPicture:
		return "picture"
	default:
		return "unknown"
	}
}

// ParseContentType maps "video"/"picture" (and plurals) to a ContentType.
func ParseContentType(s string) (ContentType, bool) {
	switch s {
	case "video", "videos":
		return ContentVideo, true
	case "picture", "pictures", "pic":
		return ContentPicture, true
	default:
		return ContentVideo, false
	}
}

// Kind selects how a server is probed and played.
type Kind int

const (
	Embed      Kind = iota // iframe-embeddable player page
	DirectFile             // media file or HLS playlist the player can open itself
)

func (k Kind) String() string {
	switch k {
	case Embed:
		return "embed"
	case DirectFile:
		return "file"
	default:
		return "unknown"
	}
}

// Server is one playback candidate for a video.
type Server struct {
	Name  string // e.g., "Server 1", "Streamtape"
	URL   string
	Kind  Kind
	Gated bool // premium no-ads source, entitled viewers only
}

// ServerRef is a server descriptor as the content API returns it.
type ServerRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Video is a catalog video with everything needed to build its server list.
type Video struct {
	ID         string      `json:"_id"`
	Slug       string      `json:"slug"`
	Title      string      `json:"title"`
	EmbedURL   string      `json:"embedUrl"`
	Servers    []ServerRef `json:"servers"`
	PremiumURL string      `json:"premiumUrl"`
	Views      int64       `json:"views"`
}

// HistoryEntry represents a single entry in the watch history.
type HistoryEntry struct {
	Slug      string
	Title     string
	Server    string // name of the server that played
	ServerURL string
	WatchedAt time.Time
}
