// Package track fuses decoded NMEA sentences into an ordered position log.
//
// A Tracker consumes raw sentence lines one at a time. Sentences of different
// kinds that reconstruct the same absolute timestamp are merged into a single
// enriched Position; insertion order is preserved and never re-sorted.
package track

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"nmeatrack/internal/nmea"
)

// ErrNoSuitablePosition reports a query that arrived before any valid
// position exists. Callers skip or warn; it is never fatal.
var ErrNoSuitablePosition = errors.New("track: no suitable position")

const timestampLayout = "2006/01/02 15:04:05"

// Tracker is the stateful fusion engine for one decoding session. All
// exported methods take the internal mutex, so a single ingest goroutine and
// any number of readers observe consistent snapshots.
type Tracker struct {
	mu sync.Mutex

	positions map[string]*Position
	order     []string

	kinds          map[string]int
	datetimes      []time.Time
	lastDate       string // "YYYY/MM/DD", empty until an RMC arrives
	checksumErrors int
	undatedDrops   int
	badTimeDrops   int
	positionCount  int
	altitudeUnits  string // fixed from the first GGA seen
}

func New() *Tracker {
	return &Tracker{
		positions: make(map[string]*Position),
		kinds:     make(map[string]int),
	}
}

// Process advances the tracker by one raw sentence line and returns the
// created or updated position, or nil when the line did not touch a record
// (unsupported kind, checksum or field failure, invalid fix, undated fix).
//
// A failed line never aborts the stream: checksum failures are counted,
// malformed fields are dropped, and processing resumes with the next line.
func (t *Tracker) Process(line string) *Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := nmea.Decode(line)
	if err != nil {
		var ckErr *nmea.ChecksumError
		var fieldErr *nmea.FieldError
		switch {
		case errors.Is(err, nmea.ErrUnsupported):
		case errors.As(err, &ckErr):
			t.checksumErrors++
		case errors.As(err, &fieldErr):
			// Checksum was fine, so the kind still tallies.
			t.kinds[fieldErr.Tag]++
		}
		return nil
	}
	t.kinds[s.Tag]++

	if s.Kind == nmea.KindText {
		return nil
	}

	invalid := (s.Kind == nmea.KindRMC || s.Kind == nmea.KindGLL) && !s.Valid

	var key string
	switch s.Kind {
	case nmea.KindRMC:
		t.lastDate = s.When.Format("2006/01/02")
		t.datetimes = append(t.datetimes, s.When)
		key = s.When.Format(timestampLayout)
	case nmea.KindGGA, nmea.KindGLL:
		if t.lastDate == "" {
			t.undatedDrops++
			return nil
		}
		hms, err := clockString(s.Time)
		if err != nil {
			t.badTimeDrops++
			return nil
		}
		key = t.lastDate + " " + hms
	}

	if invalid {
		return nil
	}

	pos, ok := t.positions[key]
	if !ok {
		t.positionCount++
		pos = &Position{Number: t.positionCount}
		t.positions[key] = pos
		t.order = append(t.order, key)
	}
	pos.Latitude = s.Latitude
	pos.Longitude = s.Longitude
	pos.Timestamp = key
	switch s.Kind {
	case nmea.KindRMC:
		if v, err := strconv.ParseFloat(strings.TrimSpace(s.SpeedKnots), 64); err == nil {
			pos.SpeedKnots = &v
		}
	case nmea.KindGGA:
		alt := s.Altitude
		quality := s.Quality
		sats := s.Satellites
		pos.Altitude = &alt
		pos.FixQuality = &quality
		pos.Satellites = &sats
		if t.altitudeUnits == "" {
			t.altitudeUnits = s.AltitudeUnits
		}
	}

	out := *pos
	return &out
}

// StartPosition returns the first recorded position.
func (t *Tracker) StartPosition() (Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.order) == 0 {
		return Position{}, ErrNoSuitablePosition
	}
	return *t.positions[t.order[0]], nil
}

// LatestPosition returns the most recently inserted position.
func (t *Tracker) LatestPosition() (Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.order) == 0 {
		return Position{}, ErrNoSuitablePosition
	}
	return *t.positions[t.order[len(t.order)-1]], nil
}

// Positions returns a snapshot of all records in insertion order.
func (t *Tracker) Positions() []Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positionsLocked()
}

func (t *Tracker) positionsLocked() []Position {
	out := make([]Position, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, *t.positions[key])
	}
	return out
}

// Table renders the positions as rows of (latitude, longitude, timestamp)
// with a header row, ready for a delimiter-separated-values writer.
func (t *Tracker) Table() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := [][]string{{"latitude", "longitude", "time"}}
	for _, key := range t.order {
		rows = append(rows, t.positions[key].Row())
	}
	return rows
}

// AltitudeUnits reports the altitude unit symbol observed on the first GGA,
// or empty when no GGA has contributed yet.
func (t *Tracker) AltitudeUnits() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.altitudeUnits
}

// Clear atomically resets the whole session. There is no partial reset.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions = make(map[string]*Position)
	t.order = nil
	t.kinds = make(map[string]int)
	t.datetimes = nil
	t.lastDate = ""
	t.checksumErrors = 0
	t.undatedDrops = 0
	t.badTimeDrops = 0
	t.positionCount = 0
	t.altitudeUnits = ""
}

// clockString reformats an NMEA hhmmss[.sss] time of day as "HH:MM:SS".
func clockString(tod string) (string, error) {
	tod = strings.TrimSpace(tod)
	if i := strings.IndexByte(tod, '.'); i != -1 {
		tod = tod[:i]
	}
	if len(tod) != 6 {
		return "", fmt.Errorf("track: bad time of day %q", tod)
	}
	if _, err := time.Parse("150405", tod); err != nil {
		return "", fmt.Errorf("track: bad time of day %q", tod)
	}
	return tod[0:2] + ":" + tod[2:4] + ":" + tod[4:6], nil
}
