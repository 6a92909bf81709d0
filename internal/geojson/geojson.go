// Package geojson renders position logs as GeoJSON feature collections.
package geojson

import (
	"encoding/json"
	"errors"

	"nmeatrack/internal/track"
)

// ErrNoPositions reports an encode request against an empty position log.
var ErrNoPositions = errors.New("geojson: no suitable position")

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Point creates a single point feature. GeoJSON coordinate order is
// longitude first.
func Point(lon, lat float64, properties map[string]any) Feature {
	return Feature{
		Type:       "Feature",
		Geometry:   Geometry{Type: "Point", Coordinates: []float64{lon, lat}},
		Properties: properties,
	}
}

// LineString creates a line feature from [lon, lat] coordinate pairs.
func LineString(coords [][]float64, properties map[string]any) Feature {
	return Feature{
		Type:       "Feature",
		Geometry:   Geometry{Type: "LineString", Coordinates: coords},
		Properties: properties,
	}
}

// Encode builds a feature collection from the position log: the track line
// carrying the position count and trip duration, a point for the first
// record, optionally one per intermediate record, and a point for the last.
// Each point's properties are the full field set of its record.
func Encode(positions []track.Position, stats track.Stats, verbose bool) (*FeatureCollection, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	lineProps := map[string]any{"total_positions": stats.TotalPositions}
	if stats.Duration != nil {
		lineProps["duration"] = *stats.Duration
	}
	coords := make([][]float64, 0, len(positions))
	for _, p := range positions {
		coords = append(coords, []float64{p.Longitude, p.Latitude})
	}

	fc := &FeatureCollection{Type: "FeatureCollection"}
	fc.Features = append(fc.Features, LineString(coords, lineProps))
	fc.Features = append(fc.Features, positionPoint(positions[0]))
	if verbose && len(positions) > 2 {
		for _, p := range positions[1 : len(positions)-1] {
			fc.Features = append(fc.Features, positionPoint(p))
		}
	}
	if len(positions) > 1 {
		fc.Features = append(fc.Features, positionPoint(positions[len(positions)-1]))
	}
	return fc, nil
}

// Bytes serializes the collection as a JSON document.
func (fc *FeatureCollection) Bytes() ([]byte, error) {
	return json.Marshal(fc)
}

func positionPoint(p track.Position) Feature {
	props := map[string]any{
		"position":  p.Number,
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
	}
	if p.Timestamp != "" {
		props["timestamp"] = p.Timestamp
	}
	if p.SpeedKnots != nil {
		props["speed_knots"] = *p.SpeedKnots
	}
	if p.Altitude != nil {
		props["altitude"] = *p.Altitude
	}
	if p.FixQuality != nil {
		props["fix_quality"] = p.FixQuality.String()
	}
	if p.Satellites != nil {
		props["satellites"] = *p.Satellites
	}
	return Point(p.Longitude, p.Latitude, props)
}
