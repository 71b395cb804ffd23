package track_test

import (
	"testing"

	"github.com/soundtrail/soundtrail/internal/track"
)

func TestRecognize(t *testing.T) {
	tests := []struct {
		line   string
		wantID string
		wantOK bool
	}{
		{"spotify:track:abc123", "abc123", true},
		{"  spotify:track:4uLU6hMCjMI75M1A2tKUQC  ", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=xyz", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"check this out: spotify:track:abc123 (so good)", "abc123", true},
		{"spotify:track:", "", false},
		{"spotify:album:abc123", "", false},
		{"37.7749,-122.4194", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		id, ok := track.Recognize(tt.line)
		if ok != tt.wantOK || id != tt.wantID {
			t.Errorf("Recognize(%q) = (%q, %v), want (%q, %v)", tt.line, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestContains(t *testing.T) {
	if !track.Contains("spotify:track:abc123") {
		t.Error("expected URI line to be recognized")
	}
	if track.Contains("just some words") {
		t.Error("plain text should not be recognized")
	}
}
