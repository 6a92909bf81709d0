package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nmeatrack/internal/track"
)

var tableRows = [][]string{
	{"latitude", "longitude", "time"},
	{"51.87371903", "-2.17126863", "2021/02/10 13:57:34"},
	{"51.87045137", "-2.17220062", "2021/02/10 14:07:21"},
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.csv")
	if err := WriteCSV(path, tableRows); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := "latitude,longitude,time\n" +
		"51.87371903,-2.17126863,2021/02/10 13:57:34\n" +
		"51.87045137,-2.17220062,2021/02/10 14:07:21\n"
	if string(b) != want {
		t.Fatalf("unexpected csv:\n%s", b)
	}
}

func TestWriteTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.tsv")
	if err := WriteTSV(path, tableRows); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(string(b), "latitude\tlongitude\ttime\n") {
		t.Fatalf("expected tab-separated header, got:\n%s", b)
	}
}

func TestSummaryText_Empty(t *testing.T) {
	got := SummaryText(track.Stats{})
	want := "total positions: 0\nchecksum errors: 0\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func f(v float64) *float64 { return &v }

func TestSummaryText(t *testing.T) {
	start := track.Position{Number: 1, Latitude: 51.8737, Longitude: -2.1713, Timestamp: "2021/02/10 13:57:34", SpeedKnots: f(0.0)}
	end := track.Position{Number: 12, Latitude: 51.8705, Longitude: -2.1722, Timestamp: "2021/02/10 14:07:21", SpeedKnots: f(0.0)}
	stats := track.Stats{
		TotalPositions: 12,
		SentenceTypes:  map[string]int{"$GNRMC": 12},
		StartPosition:  &start,
		EndPosition:    &end,
		Duration:       &track.Duration{Minutes: 9, Seconds: 47},
		SpeedsAndAltitudes: &track.SpeedAltitude{
			MaxSpeedKnots: f(2.8),
			AvgSpeedKnots: f(1.708),
		},
	}
	got := SummaryText(stats)
	for _, want := range []string{
		"total positions: 12",
		"checksum errors: 0",
		"$GNRMC: 12",
		"start position:",
		"end position:",
		"duration: 0 days 0 hours 9 minutes 47 seconds",
		"maximum speed (knots): 2.8",
		"average speed (knots): 1.708",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected summary to contain %q, got:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"maximum altitude", "minimum altitude", "climbed altitude"} {
		if strings.Contains(got, unwanted) {
			t.Fatalf("expected no altitude lines, got:\n%s", got)
		}
	}
}

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	if err := WriteText(path, "total positions: 0\n"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(b) != "total positions: 0\n" {
		t.Fatalf("unexpected contents %q", b)
	}
}
