// Package track recognizes Spotify track references in free text.
package track

import "strings"

// Reference markers understood by the recognizer. The legacy placelist dialect
// pairs a coordinate line with the next line containing one of these.
const (
	URIPrefix = "spotify:track:"
	URLMarker = "open.spotify.com/track/"
)

// Recognize extracts a track ID from a line of text. It accepts spotify:track:
// URIs and open.spotify.com track URLs anywhere in the line. The second return
// is false when the line carries no recognizable reference.
func Recognize(line string) (string, bool) {
	if i := strings.Index(line, URIPrefix); i >= 0 {
		if id := readID(line[i+len(URIPrefix):]); id != "" {
			return id, true
		}
	}
	if i := strings.Index(line, URLMarker); i >= 0 {
		if id := readID(line[i+len(URLMarker):]); id != "" {
			return id, true
		}
	}
	return "", false
}

// Contains reports whether the line carries a track reference, without
// extracting it.
func Contains(line string) bool {
	_, ok := Recognize(line)
	return ok
}

// readID consumes the leading base62 run of s.
func readID(s string) string {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return s[:i]
		}
	}
	return s
}
