package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a supported sentence kind. The set is closed: unsupported
// NMEA traffic is skipped by callers, not modelled here.
type Kind int

const (
	KindRMC Kind = iota
	KindGGA
	KindGLL
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindRMC:
		return "RMC"
	case KindGGA:
		return "GGA"
	case KindGLL:
		return "GLL"
	case KindText:
		return "TXT"
	}
	return "unknown"
}

// FixQuality is the GGA fix quality indicator.
type FixQuality int

const (
	QualityInvalid FixQuality = iota
	QualityGPS
	QualityDGPS
	QualityPPS
	QualityRTK
	QualityFloatRTK
	QualityDeadReckoning
	QualityManual
	QualitySimulation
)

func (q FixQuality) String() string {
	switch q {
	case QualityInvalid:
		return "invalid"
	case QualityGPS:
		return "gps"
	case QualityDGPS:
		return "differential gps"
	case QualityPPS:
		return "pps"
	case QualityRTK:
		return "rtk"
	case QualityFloatRTK:
		return "float rtk"
	case QualityDeadReckoning:
		return "dead reckoning"
	case QualityManual:
		return "manual input"
	case QualitySimulation:
		return "simulation"
	}
	return "unknown"
}

// ErrUnsupported reports a sentence tag outside the supported set. Callers
// skip these lines so unrelated NMEA traffic does not abort processing.
var ErrUnsupported = errors.New("nmea: unsupported sentence")

// ChecksumError reports a sentence whose transmitted checksum does not match
// the computed one, or that lacks a checksum field entirely.
type ChecksumError struct {
	Line string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("nmea: checksum failed: %s", e.Line)
}

// FieldError reports a required field that failed numeric or format parsing.
type FieldError struct {
	Tag   string
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("nmea: %s: bad %s field: %v", e.Tag, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Sentence is a decoded NMEA sentence. Kind selects which of the optional
// field groups are populated.
type Sentence struct {
	Kind       Kind
	Tag        string   // full talker+type tag, e.g. "$GNRMC"
	Fields     []string // comma-split fields, checksum tail stripped
	ChecksumOK bool

	// RMC, GGA, GLL
	Latitude  float64
	Longitude float64
	Time      string // time of day, HHMMSS[.sss]

	// RMC, GLL
	Valid bool

	// RMC
	SpeedKnots string
	Course     string
	Date       string // DDMMYY
	When       time.Time

	// GGA
	Quality       FixQuality
	Satellites    int
	Altitude      float64
	AltitudeUnits string

	// Text
	Text string
}

// Tags supported across the GPS, GLONASS and combined-constellation talkers.
var kinds = map[string]Kind{
	"$GPRMC": KindRMC,
	"$GNRMC": KindRMC,
	"$GLRMC": KindRMC,
	"$GPGGA": KindGGA,
	"$GNGGA": KindGGA,
	"$GLGGA": KindGGA,
	"$GPGLL": KindGLL,
	"$GNGLL": KindGLL,
	"$GLGLL": KindGLL,
	"$GPTXT": KindText,
	"$GNTXT": KindText,
}

// Decode splits a raw line into fields and extracts the typed view for its
// sentence kind.
//
// Unsupported tags return ErrUnsupported. A bad checksum returns
// *ChecksumError before any field extraction. Malformed numeric fields return
// *FieldError carrying the tag so callers can still tally the sentence kind.
func Decode(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	fields := strings.Split(line, ",")
	tag := strings.ToUpper(fields[0])
	kind, ok := kinds[tag]
	if !ok {
		return Sentence{}, ErrUnsupported
	}
	if !Checksum(line) {
		return Sentence{}, &ChecksumError{Line: line}
	}
	last := fields[len(fields)-1]
	if i := strings.IndexByte(last, '*'); i != -1 {
		fields[len(fields)-1] = last[:i]
	}

	s := Sentence{Kind: kind, Tag: tag, Fields: fields, ChecksumOK: true}
	var err error
	switch kind {
	case KindRMC:
		err = s.extractRMC()
	case KindGGA:
		err = s.extractGGA()
	case KindGLL:
		err = s.extractGLL()
	case KindText:
		s.Text = strings.Join(fields[1:], ",")
	}
	if err != nil {
		return Sentence{}, err
	}
	return s, nil
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
func (s *Sentence) extractRMC() error {
	f := s.Fields
	if len(f) < 10 {
		return &FieldError{Tag: s.Tag, Field: "count", Err: fmt.Errorf("want 10 fields, got %d", len(f))}
	}
	lat, lon, err := LatLonDegrees(f[3], f[4], f[5], f[6])
	if err != nil {
		return &FieldError{Tag: s.Tag, Field: "position", Err: err}
	}
	when, err := parseDateTime(f[9], f[1])
	if err != nil {
		return &FieldError{Tag: s.Tag, Field: "datetime", Err: err}
	}
	s.Latitude = lat
	s.Longitude = lon
	s.Time = f[1]
	s.Valid = f[2] == "A"
	s.SpeedKnots = f[7]
	s.Course = f[8]
	s.Date = f[9]
	s.When = when
	return nil
}

// GGA: Global Positioning System Fix Data
//
//	0: talker+type
//	1: time
//	2: latitude
//	3: N/S
//	4: longitude
//	5: E/W
//	6: fix quality (0=invalid)
//	7: satellites tracked
//	8: HDOP
//	9: altitude
//	10: altitude units (M for metres)
func (s *Sentence) extractGGA() error {
	f := s.Fields
	if len(f) < 11 {
		return &FieldError{Tag: s.Tag, Field: "count", Err: fmt.Errorf("want 11 fields, got %d", len(f))}
	}
	lat, lon, err := LatLonDegrees(f[2], f[3], f[4], f[5])
	if err != nil {
		return &FieldError{Tag: s.Tag, Field: "position", Err: err}
	}
	quality, err := strconv.Atoi(strings.TrimSpace(f[6]))
	if err != nil {
		return &FieldError{Tag: s.Tag, Field: "fix quality", Err: err}
	}
	sats, err := strconv.Atoi(strings.TrimSpace(f[7]))
	if err != nil {
		return &FieldError{Tag: s.Tag, Field: "satellites", Err: err}
	}
	alt, err := strconv.ParseFloat(strings.TrimSpace(f[9]), 64)
	if err != nil {
		return &FieldError{Tag: s.Tag, Field: "altitude", Err: err}
	}
	s.Latitude = lat
	s.Longitude = lon
	s.Time = f[1]
	s.Quality = FixQuality(quality)
	s.Satellites = sats
	s.Altitude = alt
	s.AltitudeUnits = f[10]
	return nil
}

// GLL: Geographic Position, Latitude/Longitude
//
//	0: talker+type
//	1: latitude
//	2: N/S
//	3: longitude
//	4: E/W
//	5: time
//	6: status (A=valid, V=invalid)
func (s *Sentence) extractGLL() error {
	f := s.Fields
	if len(f) < 7 {
		return &FieldError{Tag: s.Tag, Field: "count", Err: fmt.Errorf("want 7 fields, got %d", len(f))}
	}
	lat, lon, err := LatLonDegrees(f[1], f[2], f[3], f[4])
	if err != nil {
		return &FieldError{Tag: s.Tag, Field: "position", Err: err}
	}
	s.Latitude = lat
	s.Longitude = lon
	s.Time = f[5]
	s.Valid = f[6] == "A"
	return nil
}

// parseDateTime combines an RMC ddmmyy date and hhmmss[.sss] time of day into
// an absolute UTC datetime. Fractional seconds are truncated.
func parseDateTime(date, tod string) (time.Time, error) {
	if i := strings.IndexByte(tod, '.'); i != -1 {
		tod = tod[:i]
	}
	return time.Parse("020106 150405", strings.TrimSpace(date)+" "+strings.TrimSpace(tod))
}
