package models

// PlayStartRequest starts a play session over a placelist.
type PlayStartRequest struct {
	PlacelistID string `json:"placelistId"`
}

// PlaySession is the state of one traveler walking a placelist.
type PlaySession struct {
	ID             string    `json:"id"`
	PlacelistID    string    `json:"placelistId"`
	CurrentIndex   int       `json:"currentIndex"`
	UnlockedTracks []string  `json:"unlockedTracks"`
	Completed      bool      `json:"completed"`
	StartedAt      Timestamp `json:"startedAt"`
	UpdatedAt      Timestamp `json:"updatedAt"`
}

// PositionRequest reports the traveler's position.
type PositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ScheduleStatus describes a waypoint's availability at the evaluated instant.
type ScheduleStatus struct {
	Open              bool   `json:"open"`
	NextOpenInMinutes *int   `json:"nextOpenInMinutes"`
	TimeZone          string `json:"timeZone"`
}

// PlayProgress is the outcome of one position report.
type PlayProgress struct {
	Session        PlaySession    `json:"session"`
	DistanceMeters float64        `json:"distanceMeters"`
	BearingDegrees float64        `json:"bearingDegrees"`
	Schedule       ScheduleStatus `json:"schedule"`
	Unlocked       bool           `json:"unlocked"`
	TrackID        *string        `json:"trackId,omitempty"`
}
