package track

import (
	"strconv"

	"nmeatrack/internal/nmea"
)

// Position is the fused view of one reconstructed timestamp. Sentences of
// different kinds sharing the same timestamp merge into a single record, so
// the optional fields are only set once a contributing kind has been seen.
type Position struct {
	Number    int     `json:"position"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Timestamp is the canonical "YYYY/MM/DD HH:MM:SS" key.
	Timestamp string `json:"timestamp,omitempty"`

	SpeedKnots *float64         `json:"speed_knots,omitempty"`
	Altitude   *float64         `json:"altitude,omitempty"`
	FixQuality *nmea.FixQuality `json:"fix_quality,omitempty"`
	Satellites *int             `json:"satellites,omitempty"`
}

// Row renders the position as a (latitude, longitude, timestamp) table row.
func (p Position) Row() []string {
	return []string{
		strconv.FormatFloat(p.Latitude, 'f', -1, 64),
		strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		p.Timestamp,
	}
}
