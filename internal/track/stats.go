package track

import (
	"math"
	"time"
)

// Duration is a trip duration decomposed into calendar-free components.
type Duration struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// SpeedAltitude summarises the speed- and altitude-bearing records. A nil
// pointer means no record exposed that field; that is not an error.
type SpeedAltitude struct {
	MaxSpeedKnots *float64 `json:"max_speed_knots,omitempty"`
	AvgSpeedKnots *float64 `json:"avg_speed_knots,omitempty"`

	MaxAltitude     *float64 `json:"max_altitude,omitempty"`
	MinAltitude     *float64 `json:"min_altitude,omitempty"`
	ClimbedAltitude *float64 `json:"climbed_altitude,omitempty"`
	AltitudeUnits   string   `json:"altitude_units,omitempty"`
}

// Stats is a point-in-time summary of a tracking session. Only the totals
// are always present; everything else appears once at least one position
// exists.
type Stats struct {
	TotalPositions int `json:"total_positions"`
	ChecksumErrors int `json:"checksum_errors"`

	UndatedFixesDiscarded int `json:"undated_fixes_discarded,omitempty"`
	BadTimeFixesDiscarded int `json:"bad_time_fixes_discarded,omitempty"`

	SentenceTypes      map[string]int `json:"sentence_types,omitempty"`
	StartPosition      *Position      `json:"start_position,omitempty"`
	EndPosition        *Position      `json:"end_position,omitempty"`
	Duration           *Duration      `json:"duration,omitempty"`
	SpeedsAndAltitudes *SpeedAltitude `json:"speeds_and_altitudes,omitempty"`
}

// Stats computes a consistent statistics snapshot of the session so far.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statsLocked()
}

// Snapshot returns the position log and its statistics as one consistent
// view, for readers that need both to agree.
func (t *Tracker) Snapshot() ([]Position, Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positionsLocked(), t.statsLocked()
}

func (t *Tracker) statsLocked() Stats {
	stats := Stats{
		TotalPositions:        len(t.order),
		ChecksumErrors:        t.checksumErrors,
		UndatedFixesDiscarded: t.undatedDrops,
		BadTimeFixesDiscarded: t.badTimeDrops,
	}
	if len(t.order) == 0 {
		return stats
	}

	stats.SentenceTypes = make(map[string]int, len(t.kinds))
	for tag, n := range t.kinds {
		stats.SentenceTypes[tag] = n
	}
	first := *t.positions[t.order[0]]
	last := *t.positions[t.order[len(t.order)-1]]
	stats.StartPosition = &first
	stats.EndPosition = &last

	if len(t.datetimes) > 0 {
		d := calculateDuration(t.datetimes[0], t.datetimes[len(t.datetimes)-1])
		stats.Duration = &d
	}
	stats.SpeedsAndAltitudes = summarise(t.positionsLocked(), t.altitudeUnits)
	return stats
}

// calculateDuration decomposes end-start into whole days, hours, minutes and
// seconds by successive floor division.
func calculateDuration(start, end time.Time) Duration {
	total := int(end.Sub(start).Seconds())
	d := Duration{Days: total / 86400}
	total %= 86400
	d.Hours = total / 3600
	total %= 3600
	d.Minutes = total / 60
	d.Seconds = total % 60
	return d
}

// summarise is a pure aggregation over the accumulated records. Records
// without a speed or altitude simply do not contribute to that part.
func summarise(positions []Position, altitudeUnits string) *SpeedAltitude {
	var out SpeedAltitude
	var speedSum float64
	var speedCount int
	for _, p := range positions {
		if p.SpeedKnots != nil {
			v := *p.SpeedKnots
			speedSum += v
			speedCount++
			if out.MaxSpeedKnots == nil || v > *out.MaxSpeedKnots {
				max := v
				out.MaxSpeedKnots = &max
			}
		}
		if p.Altitude != nil {
			v := *p.Altitude
			if out.MaxAltitude == nil || v > *out.MaxAltitude {
				max := v
				out.MaxAltitude = &max
			}
			if out.MinAltitude == nil || v < *out.MinAltitude {
				min := v
				out.MinAltitude = &min
			}
		}
	}
	if speedCount > 0 {
		avg := round3(speedSum / float64(speedCount))
		out.AvgSpeedKnots = &avg
		max := round3(*out.MaxSpeedKnots)
		out.MaxSpeedKnots = &max
	}
	if out.MaxAltitude != nil {
		climbed := round3(*out.MaxAltitude - *out.MinAltitude)
		out.ClimbedAltitude = &climbed
		out.AltitudeUnits = altitudeUnits
	}
	if speedCount == 0 && out.MaxAltitude == nil {
		return nil
	}
	return &out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
