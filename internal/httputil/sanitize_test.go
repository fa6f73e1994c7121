package httputil

import (
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid HTTPS", "https://example.com/path", false},
		{"HTTP rejected", "http://example.com/path", true},
		{"javascript scheme rejected", "javascript:alert(1)", true},
		{"data scheme rejected", "data:text/html,<h1>Hi</h1>", true},
		{"FTP rejected", "ftp://example.com/file", true},
		{"empty string", "", true},
		{"no host", "https://", true},
		{"valid with port", "https://example.com:8080/path", false},
		{"valid with query", "https://example.com/path?q=test&a=b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"valid slug", "sunset-over-the-bay", false},
		{"valid document id", "a1b2c3d4", false},
		{"dotted", "clip.v2", false},
		{"empty", "", true},
		{"path traversal dots", "..", true},
		{"slash", "video/other", true},
		{"shell injection semicolon", "abc; rm -rf /", true},
		{"shell injection backtick", "abc`whoami`", true},
		{"newline injection", "abc\ndef", true},
		{"too long", string(make([]byte, 300)), true},
		{"spaces", "slug with spaces", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlug(%q) error = %v, wantErr %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"example.com", "https://example.com"},
		{"example.com/", "https://example.com"},
		{" example.com ", "https://example.com"},
		{"https://127.0.0.1:8443/", "https://127.0.0.1:8443"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := BaseURL(tt.input); got != tt.expected {
				t.Errorf("BaseURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildURL(t *testing.T) {
	got := BuildURL("https://example.com/", "api", "videos", "a b")
	if got != "https://example.com/api/videos/a%20b" {
		t.Errorf("BuildURL = %q", got)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, ref, expected string
	}{
		{"https://example.com/video/x", "/embed/1", "https://example.com/embed/1"},
		{"https://example.com/video/x", "//player.example.net/e/1", "https://player.example.net/e/1"},
		{"https://example.com/video/x", "https://other.example/e/2", "https://other.example/e/2"},
		{"https://example.com/video/x", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := Resolve(tt.base, tt.ref); got != tt.expected {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.expected)
			}
		})
	}
}
