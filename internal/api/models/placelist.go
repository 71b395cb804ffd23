package models

// Waypoint is one placelist entry as exposed over the API.
type Waypoint struct {
	Location       LatLng  `json:"location"`
	TrackReference string  `json:"trackReference"`
	OnlyDuring     *string `json:"onlyDuring,omitempty"`
}

// Placelist is a named, ordered sequence of waypoints.
type Placelist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Waypoints   []Waypoint `json:"waypoints"`
	CreatedAt   Timestamp  `json:"createdAt"`
	UpdatedAt   Timestamp  `json:"updatedAt"`
}

// PagedPlacelists is a paginated list of placelists.
type PagedPlacelists struct {
	Items []Placelist       `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// PlacelistCreateRequest creates a placelist. Waypoints may be given
// structurally or as raw text in either placelist dialect; when both are
// present the structural form wins.
type PlacelistCreateRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Waypoints   []Waypoint `json:"waypoints,omitempty"`
	Text        *string    `json:"text,omitempty"`
}

// PlacelistUpdateRequest updates a placelist. Nil fields are left unchanged.
type PlacelistUpdateRequest struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Waypoints   *[]Waypoint `json:"waypoints,omitempty"`
	Text        *string     `json:"text,omitempty"`
}

// PlacelistReorderRequest permutes a placelist's waypoints. Order lists the
// current zero-based positions in their new sequence and must be a
// permutation of 0..n-1.
type PlacelistReorderRequest struct {
	Order []int `json:"order"`
}

// PlacelistText is the textual form of a placelist, in the structured dialect.
type PlacelistText struct {
	Text string `json:"text"`
}
