package spotify

// Metadata is the slice of the Spotify track object the service cares about.
type Metadata struct {
	ID         string
	Name       string
	Artists    []string
	DurationMs int
}

type trackResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

type tracksResponse struct {
	Tracks []*trackResponse `json:"tracks"`
}

type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
