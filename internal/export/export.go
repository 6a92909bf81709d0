// Package export writes accumulated track data to files: delimiter-separated
// position tables, a plain-text statistics summary, and a SQLite track log.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"nmeatrack/internal/track"
)

// WriteCSV writes the rows to path as comma-separated values in a single
// flush-on-close write.
func WriteCSV(path string, rows [][]string) error {
	return writeSeparated(path, rows, ',')
}

// WriteTSV writes the rows to path as tab-separated values.
func WriteTSV(path string, rows [][]string) error {
	return writeSeparated(path, rows, '\t')
}

func writeSeparated(path string, rows [][]string, comma rune) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	w.Comma = comma
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return f.Close()
}

// SummaryText formats a statistics snapshot for printing to the screen or a
// plain text file. Sections absent from the snapshot are left out.
func SummaryText(stats track.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "total positions: %d\n", stats.TotalPositions)
	fmt.Fprintf(&sb, "checksum errors: %d\n", stats.ChecksumErrors)
	if stats.UndatedFixesDiscarded > 0 {
		fmt.Fprintf(&sb, "undated fixes discarded: %d\n", stats.UndatedFixesDiscarded)
	}
	if stats.BadTimeFixesDiscarded > 0 {
		fmt.Fprintf(&sb, "bad time fixes discarded: %d\n", stats.BadTimeFixesDiscarded)
	}
	if len(stats.SentenceTypes) > 0 {
		sb.WriteString("sentence types:\n")
		tags := make([]string, 0, len(stats.SentenceTypes))
		for tag := range stats.SentenceTypes {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			fmt.Fprintf(&sb, "   %s: %d\n", tag, stats.SentenceTypes[tag])
		}
	}
	if stats.StartPosition != nil {
		writePosition(&sb, "start position", *stats.StartPosition)
	}
	if stats.EndPosition != nil {
		writePosition(&sb, "end position", *stats.EndPosition)
	}
	if stats.Duration != nil {
		d := stats.Duration
		fmt.Fprintf(&sb, "duration: %d days %d hours %d minutes %d seconds\n",
			d.Days, d.Hours, d.Minutes, d.Seconds)
	}
	if sa := stats.SpeedsAndAltitudes; sa != nil {
		sb.WriteString("speeds and altitudes:\n")
		if sa.MaxSpeedKnots != nil {
			fmt.Fprintf(&sb, "   maximum speed (knots): %v\n", *sa.MaxSpeedKnots)
			fmt.Fprintf(&sb, "   average speed (knots): %v\n", *sa.AvgSpeedKnots)
		}
		if sa.MaxAltitude != nil {
			units := sa.AltitudeUnits
			fmt.Fprintf(&sb, "   maximum altitude (%s): %v\n", units, *sa.MaxAltitude)
			fmt.Fprintf(&sb, "   minimum altitude (%s): %v\n", units, *sa.MinAltitude)
			fmt.Fprintf(&sb, "   climbed altitude (%s): %v\n", units, *sa.ClimbedAltitude)
		}
	}
	return sb.String()
}

func writePosition(sb *strings.Builder, label string, p track.Position) {
	fmt.Fprintf(sb, "%s:\n", label)
	fmt.Fprintf(sb, "   position no: %d\n", p.Number)
	fmt.Fprintf(sb, "   latitude: %v\n", p.Latitude)
	fmt.Fprintf(sb, "   longitude: %v\n", p.Longitude)
	if p.Timestamp != "" {
		fmt.Fprintf(sb, "   time: %s\n", p.Timestamp)
	}
	if p.SpeedKnots != nil {
		fmt.Fprintf(sb, "   speed (knots): %v\n", *p.SpeedKnots)
	}
	if p.Altitude != nil {
		fmt.Fprintf(sb, "   altitude: %v\n", *p.Altitude)
	}
}

// WriteText writes already-formatted text to a file.
func WriteText(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}
