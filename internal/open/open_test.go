package open

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos string
		bin  string
	}{
		{"linux", "xdg-open"},
		{"darwin", "open"},
		{"android", "termux-open"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, ok := command(tt.goos, "https://streamtape.example/e/1")
			require.True(t, ok)
			assert.Equal(t, tt.bin, cmd.Args[0])
			assert.Equal(t, "https://streamtape.example/e/1", cmd.Args[len(cmd.Args)-1])
		})
	}

	_, ok := command("plan9", "https://example.com")
	assert.False(t, ok)
}

func TestStartRejectsInsecureURL(t *testing.T) {
	assert.Error(t, Start("http://example.com/e/1"))
	assert.Error(t, Start("javascript:alert(1)"))
}
