package httputil

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// validSlugPattern matches catalog slugs and document IDs.
	validSlugPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ValidateURL checks that a URL is well-formed and uses HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// ValidateSlug checks that a slug or content ID contains only safe characters.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if len(slug) > 256 {
		return fmt.Errorf("slug too long: %d characters", len(slug))
	}
	if !validSlugPattern.MatchString(slug) {
		return fmt.Errorf("slug contains invalid characters: %q", slug)
	}
	if strings.Contains(slug, "..") {
		return fmt.Errorf("slug contains path traversal: %q", slug)
	}
	return nil
}

// BaseURL turns a configured host ("example.com") into an HTTPS origin.
// Values that already carry a scheme are returned without a trailing slash.
func BaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.Contains(base, "://") {
		return base
	}
	return "https://" + base
}

// BuildURL constructs a URL from base and path components, encoding each path segment.
func BuildURL(base string, pathSegments ...string) string {
	u := strings.TrimRight(base, "/")
	for _, seg := range pathSegments {
		u += "/" + url.PathEscape(seg)
	}
	return u
}

// Resolve makes ref absolute against base. Protocol-relative embeds
// ("//player.example.com/e/1") get HTTPS.
func Resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
