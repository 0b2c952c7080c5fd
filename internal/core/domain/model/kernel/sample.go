package kernel

import "time"

// LocationSample is one validated position fix with the heading the partner is
// facing, in degrees clockwise from north within [0, 360).
type LocationSample struct {
	Point     GeoPoint  `json:"point"`
	Heading   float64   `json:"heading"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
