// Package kml renders position logs as Keyhole Markup Language documents
// for Google Earth and compatible map viewers.
package kml

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nmeatrack/internal/track"
)

// ErrNoPositions reports an encode request against an empty position log.
// An empty or partial document is never emitted.
var ErrNoPositions = errors.New("kml: no suitable position")

// InvalidTimestampError reports a timestamp that does not match the
// canonical "YYYY/MM/DD HH:MM:SS" shape.
type InvalidTimestampError struct {
	Value string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("kml: timestamp %q must be YYYY/MM/DD HH:MM:SS", e.Value)
}

var timestampRe = regexp.MustCompile(
	`^\d{4}/(0[1-9]|1[0-2])/(0[1-9]|[12][0-9]|3[01]) ` +
		`([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)

const estimatedSuffix = " (estimated)"

// ConvertTimestamp converts a canonical "YYYY/MM/DD HH:MM:SS" timestamp,
// optionally suffixed with " (estimated)", to the "YYYY-MM-DDTHH:MM:SSZ"
// form KML expects. Any other shape is a hard failure, never a silent
// pass-through.
func ConvertTimestamp(ts string) (string, error) {
	trimmed := strings.TrimSuffix(ts, estimatedSuffix)
	if !timestampRe.MatchString(trimmed) {
		return "", &InvalidTimestampError{Value: ts}
	}
	when, err := time.Parse("2006/01/02 15:04:05", trimmed)
	if err != nil {
		return "", &InvalidTimestampError{Value: ts}
	}
	return when.Format("2006-01-02T15:04:05Z"), nil
}

// Sanitize replaces XML-unsafe characters in placemark text. Ampersands are
// escaped first so already-inserted entities are not double-escaped.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "\t", "    ")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

const header = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
<name>%s</name>
<open>1</open>`

const placemark = `
<Placemark>
<name>%s</name>
<description>%s</description>
<TimeStamp>
<when>%s</when>
</TimeStamp>
<LookAt>
<longitude>%s</longitude>
<latitude>%s</latitude>
<altitude>%s</altitude>
<heading>-0</heading>
<tilt>0</tilt>
<range>500</range>
</LookAt>
<Point>
<coordinates>%s</coordinates>
</Point>
</Placemark>`

const linePlacemark = `
<Placemark>
<name>%s</name>
<LineString>
<coordinates>%s</coordinates>
</LineString>
</Placemark>`

// Builder accumulates a KML document part by part.
type Builder struct {
	parts []string
}

func NewBuilder(name string) *Builder {
	b := &Builder{}
	b.parts = append(b.parts, fmt.Sprintf(header, Sanitize(name)))
	return b
}

// AddPlacemark appends a point placemark (a pin on the map). The description
// is inserted as-is, so callers embedding free text must sanitize it or wrap
// it with Describe.
func (b *Builder) AddPlacemark(name, description, lon, lat, altitude, timestamp string) {
	b.parts = append(b.parts, fmt.Sprintf(placemark,
		Sanitize(name), description, timestamp, lon, lat, altitude,
		lon+","+lat+","+altitude))
}

// AddLineString appends a line placemark joining the given positions in
// order.
func (b *Builder) AddLineString(name string, positions []track.Position) {
	coords := make([]string, 0, len(positions))
	for _, p := range positions {
		coords = append(coords, coordinates(p))
	}
	b.parts = append(b.parts, fmt.Sprintf(linePlacemark,
		Sanitize(name), strings.Join(coords, "\n")))
}

func (b *Builder) OpenFolder(name string) {
	b.parts = append(b.parts, "<Folder>\n<name>"+Sanitize(name)+"</name>")
}

func (b *Builder) CloseFolder() {
	b.parts = append(b.parts, "</Folder>")
}

// Document closes the open tags and returns the assembled file contents.
func (b *Builder) Document() []byte {
	return []byte(strings.Join(b.parts, "") + "\n</Document></kml>")
}

// Describe formats ordered field/value pairs as an HTML description block
// for a placemark.
func Describe(fields [][2]string) string {
	var sb strings.Builder
	sb.WriteString("<![CDATA[")
	for _, f := range fields {
		sb.WriteString(strings.ToUpper(f[0]))
		sb.WriteString(" - ")
		sb.WriteString(Sanitize(f[1]))
		sb.WriteString("<br  />\n")
	}
	sb.WriteString("]]>")
	return sb.String()
}

// Options control track encoding.
type Options struct {
	// IntermediatePoints adds one placemark per record between start and end,
	// grouped in a folder.
	IntermediatePoints bool

	// AltitudeUnits labels altitude values in placemark descriptions.
	AltitudeUnits string
}

// EncodeTrack renders the whole position log: the track linestring, start
// and end placemarks, and optionally one placemark per intermediate record.
// It fails with ErrNoPositions on an empty log and with
// *InvalidTimestampError on a record whose timestamp cannot be converted.
func EncodeTrack(name string, positions []track.Position, opts Options) ([]byte, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	b := NewBuilder(name)
	b.AddLineString("track", positions)

	first := positions[0]
	last := positions[len(positions)-1]
	if err := addPositionPlacemark(b, "start", first, opts); err != nil {
		return nil, err
	}
	if opts.IntermediatePoints && len(positions) > 2 {
		b.OpenFolder("points")
		for _, p := range positions[1 : len(positions)-1] {
			if err := addPositionPlacemark(b, strconv.Itoa(p.Number), p, opts); err != nil {
				return nil, err
			}
		}
		b.CloseFolder()
	}
	if len(positions) > 1 {
		if err := addPositionPlacemark(b, "end", last, opts); err != nil {
			return nil, err
		}
	}
	return b.Document(), nil
}

func addPositionPlacemark(b *Builder, name string, p track.Position, opts Options) error {
	ts, err := ConvertTimestamp(p.Timestamp)
	if err != nil {
		return err
	}
	alt := "0"
	if p.Altitude != nil {
		alt = strconv.FormatFloat(*p.Altitude, 'f', -1, 64)
	}
	b.AddPlacemark(name, Describe(describePosition(p, opts.AltitudeUnits)),
		strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		strconv.FormatFloat(p.Latitude, 'f', -1, 64),
		alt, ts)
	return nil
}

func describePosition(p track.Position, altitudeUnits string) [][2]string {
	fields := [][2]string{
		{"position no", strconv.Itoa(p.Number)},
		{"latitude", strconv.FormatFloat(p.Latitude, 'f', -1, 64)},
		{"longitude", strconv.FormatFloat(p.Longitude, 'f', -1, 64)},
		{"time", p.Timestamp},
	}
	if p.SpeedKnots != nil {
		fields = append(fields, [2]string{"speed (knots)", strconv.FormatFloat(*p.SpeedKnots, 'f', -1, 64)})
	}
	if p.Altitude != nil {
		label := "altitude"
		if altitudeUnits != "" {
			label = "altitude (" + altitudeUnits + ")"
		}
		fields = append(fields, [2]string{label, strconv.FormatFloat(*p.Altitude, 'f', -1, 64)})
	}
	if p.FixQuality != nil {
		fields = append(fields, [2]string{"fix quality", p.FixQuality.String()})
	}
	if p.Satellites != nil {
		fields = append(fields, [2]string{"satellites tracked", strconv.Itoa(*p.Satellites)})
	}
	return fields
}

func coordinates(p track.Position) string {
	alt := "0"
	if p.Altitude != nil {
		alt = strconv.FormatFloat(*p.Altitude, 'f', -1, 64)
	}
	return strconv.FormatFloat(p.Longitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + alt
}

const networkLink = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
    <NetworkLink>
      <name>Live GPS Position</name>
      <description>current GPS position</description>
      <Link>
        <href>%s</href>
        <refreshVisibility>1</refreshVisibility>
        <refreshMode>onInterval</refreshMode>
        <refreshInterval>%d</refreshInterval>
      </Link>
    </NetworkLink>
</kml>`

// WriteNetworkLink writes an "open this" pointer document that tells a map
// viewer to poll target every refreshSeconds without re-opening the file.
func WriteNetworkLink(path, target string, refreshSeconds int) error {
	if refreshSeconds <= 0 {
		refreshSeconds = 1
	}
	doc := fmt.Sprintf(networkLink, Sanitize(target), refreshSeconds)
	return os.WriteFile(path, []byte(doc), 0o644)
}
