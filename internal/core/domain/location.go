package domain

import (
	"errors"
	"time"
)

var (
	ErrNoFix         = errors.New("no position fix available")
	ErrStaleFix      = errors.New("position fix is stale")
	ErrInvalidSample = errors.New("invalid location sample")
	ErrNotAffiliated = errors.New("driver is not affiliated")
)

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// LocationSample is a single position reading of a driver's device.
type LocationSample struct {
	Lat        float64   `json:"lat" bson:"lat"`
	Lng        float64   `json:"lng" bson:"lng"`
	Accuracy   *float64  `json:"accuracy,omitempty" bson:"accuracy,omitempty"` // meters
	Heading    *float64  `json:"heading,omitempty" bson:"heading,omitempty"`   // degrees, 0-360
	Speed      *float64  `json:"speed,omitempty" bson:"speed,omitempty"`       // m/s
	CapturedAt time.Time `json:"captured_at" bson:"captured_at"`
}

// Coordinates returns the point of the sample.
func (s LocationSample) Coordinates() Coordinates {
	return Coordinates{Lat: s.Lat, Lng: s.Lng}
}

// Validate checks the sample is a plausible point on Earth.
func (s LocationSample) Validate() error {
	if s.Lat < -90 || s.Lat > 90 || s.Lng < -180 || s.Lng > 180 {
		return ErrInvalidSample
	}
	return nil
}
