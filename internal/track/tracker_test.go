package track

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
)

// Twelve fixes from a short walk, used across the fusion tests.
var walkSentences = []string{
	"$GNRMC,135734.00,A,5152.423142,N,00210.276118,W,0.0,,100221,4.2,W,A*0D",
	"$GNRMC,135903.00,A,5152.386269,N,00210.303457,W,1.9,188.3,100221,4.2,W,A*2C",
	"$GNRMC,135916.00,A,5152.379876,N,00210.312674,W,2.4,270.4,100221,4.2,W,A*22",
	"$GNRMC,140004.00,A,5152.341964,N,00210.322560,W,2.0,195.8,100221,4.2,W,A*26",
	"$GNRMC,140044.00,A,5152.312863,N,00210.319179,W,1.4,130.8,100221,4.2,W,A*2E",
	"$GNRMC,140118.00,A,5152.299668,N,00210.288279,W,2.2,137.6,100221,4.2,W,A*27",
	"$GNRMC,140244.00,A,5152.252641,N,00210.212289,W,1.8,160.6,100221,4.2,W,A*26",
	"$GNRMC,140326.00,A,5152.216883,N,00210.211729,W,1.0,170.5,100221,4.2,W,A*25",
	"$GNRMC,140447.00,A,5152.186537,N,00210.276817,W,2.8,238.9,100221,4.2,W,A*26",
	"$GNRMC,140616.00,A,5152.192250,N,00210.341328,W,2.8,4.8,100221,4.2,W,A*2D",
	"$GNRMC,140620.00,A,5152.195351,N,00210.341639,W,2.2,21.0,100221,4.2,W,A*1F",
	"$GNRMC,140721.00,A,5152.227082,N,00210.332037,W,0.0,,100221,4.2,W,A*09",
}

func sentence(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

func feedWalk(t *Tracker) {
	for _, s := range walkSentences {
		t.Process(s)
	}
}

func TestTracker_EmptyQueries(t *testing.T) {
	tr := New()
	if _, err := tr.LatestPosition(); !errors.Is(err, ErrNoSuitablePosition) {
		t.Fatalf("expected ErrNoSuitablePosition, got %v", err)
	}
	if _, err := tr.StartPosition(); !errors.Is(err, ErrNoSuitablePosition) {
		t.Fatalf("expected ErrNoSuitablePosition, got %v", err)
	}
}

func TestTracker_EmptyStats(t *testing.T) {
	stats := New().Stats()
	if !reflect.DeepEqual(stats, Stats{}) {
		t.Fatalf("expected only zero totals on an empty tracker, got %+v", stats)
	}
}

func TestTracker_Walk(t *testing.T) {
	tr := New()
	feedWalk(tr)

	stats := tr.Stats()
	if stats.TotalPositions != 12 {
		t.Fatalf("expected 12 positions, got %d", stats.TotalPositions)
	}
	if stats.ChecksumErrors != 0 {
		t.Fatalf("expected 0 checksum errors, got %d", stats.ChecksumErrors)
	}
	if stats.SentenceTypes["$GNRMC"] != 12 {
		t.Fatalf("expected 12 $GNRMC sentences, got %v", stats.SentenceTypes)
	}

	start, err := tr.StartPosition()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if math.Abs(start.Latitude-51.87371903333333) > 1e-8 {
		t.Fatalf("unexpected start latitude %v", start.Latitude)
	}
	if start.Number != 1 || start.Timestamp != "2021/02/10 13:57:34" {
		t.Fatalf("unexpected start position %+v", start)
	}

	last, err := tr.LatestPosition()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if math.Abs(last.Latitude-51.87045136666667) > 1e-8 {
		t.Fatalf("unexpected end latitude %v", last.Latitude)
	}
	if last.Number != 12 || last.Timestamp != "2021/02/10 14:07:21" {
		t.Fatalf("unexpected end position %+v", last)
	}

	want := Duration{Days: 0, Hours: 0, Minutes: 9, Seconds: 47}
	if stats.Duration == nil || *stats.Duration != want {
		t.Fatalf("expected duration %+v, got %+v", want, stats.Duration)
	}

	sa := stats.SpeedsAndAltitudes
	if sa == nil || sa.MaxSpeedKnots == nil || sa.AvgSpeedKnots == nil {
		t.Fatalf("expected speed summary, got %+v", sa)
	}
	if *sa.MaxSpeedKnots != 2.8 {
		t.Fatalf("expected max speed 2.8, got %v", *sa.MaxSpeedKnots)
	}
	if *sa.AvgSpeedKnots != 1.708 {
		t.Fatalf("expected average speed 1.708, got %v", *sa.AvgSpeedKnots)
	}
	if sa.MaxAltitude != nil {
		t.Fatalf("expected no altitude summary without GGA, got %+v", sa)
	}
}

func TestTracker_Deterministic(t *testing.T) {
	a, b := New(), New()
	feedWalk(a)
	feedWalk(b)
	if !reflect.DeepEqual(a.Positions(), b.Positions()) {
		t.Fatalf("expected identical positions from identical input")
	}
	if !reflect.DeepEqual(a.Stats(), b.Stats()) {
		t.Fatalf("expected identical stats from identical input")
	}
}

func TestTracker_DuplicateSentenceUpdatesInPlace(t *testing.T) {
	tr := New()
	tr.Process(walkSentences[0])
	tr.Process(walkSentences[0])
	stats := tr.Stats()
	if stats.TotalPositions != 1 {
		t.Fatalf("expected duplicate input to merge, got %d positions", stats.TotalPositions)
	}
	if stats.SentenceTypes["$GNRMC"] != 2 {
		t.Fatalf("expected both sentences tallied, got %v", stats.SentenceTypes)
	}
}

func TestTracker_MergeRMCAndGGA(t *testing.T) {
	tr := New()
	rmc := sentence("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	gga := sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	if pos := tr.Process(rmc); pos == nil {
		t.Fatalf("expected RMC to create a position")
	}
	pos := tr.Process(gga)
	if pos == nil {
		t.Fatalf("expected GGA to update the position")
	}
	if pos.Number != 1 {
		t.Fatalf("expected sequence number assigned once, got %d", pos.Number)
	}
	if pos.SpeedKnots == nil || *pos.SpeedKnots != 22.4 {
		t.Fatalf("expected speed from the RMC, got %+v", pos.SpeedKnots)
	}
	if pos.Altitude == nil || *pos.Altitude != 545.4 {
		t.Fatalf("expected altitude from the GGA, got %+v", pos.Altitude)
	}
	if pos.Satellites == nil || *pos.Satellites != 8 {
		t.Fatalf("expected satellites from the GGA, got %+v", pos.Satellites)
	}
	if n := tr.Stats().TotalPositions; n != 1 {
		t.Fatalf("expected one fused position, got %d", n)
	}
	if tr.AltitudeUnits() != "M" {
		t.Fatalf("expected altitude units fixed from first GGA, got %q", tr.AltitudeUnits())
	}
}

func TestTracker_ChecksumErrorCounted(t *testing.T) {
	tr := New()
	good := walkSentences[0]
	bad := good[:len(good)-2] + "00"
	if pos := tr.Process(bad); pos != nil {
		t.Fatalf("expected no position from a bad checksum")
	}
	stats := tr.Stats()
	if stats.ChecksumErrors != 1 {
		t.Fatalf("expected 1 checksum error, got %d", stats.ChecksumErrors)
	}
	if stats.TotalPositions != 0 {
		t.Fatalf("expected no positions, got %d", stats.TotalPositions)
	}
}

func TestTracker_InvalidFixTalliedButNotRecorded(t *testing.T) {
	tr := New()
	tr.Process(walkSentences[0])
	void := sentence("GNRMC,135800.00,V,5152.423142,N,00210.276118,W,0.0,,100221,4.2,W,A")
	if pos := tr.Process(void); pos != nil {
		t.Fatalf("expected no record from a void fix")
	}
	stats := tr.Stats()
	if stats.TotalPositions != 1 {
		t.Fatalf("expected void fix to leave positions alone, got %d", stats.TotalPositions)
	}
	if stats.SentenceTypes["$GNRMC"] != 2 {
		t.Fatalf("expected void fix still tallied, got %v", stats.SentenceTypes)
	}
}

func TestTracker_UndatedFixDropped(t *testing.T) {
	tr := New()
	gga := sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	if pos := tr.Process(gga); pos != nil {
		t.Fatalf("expected undated GGA to be dropped")
	}
	stats := tr.Stats()
	if stats.TotalPositions != 0 {
		t.Fatalf("expected no positions, got %d", stats.TotalPositions)
	}
	if stats.UndatedFixesDiscarded != 1 {
		t.Fatalf("expected 1 undated fix discarded, got %d", stats.UndatedFixesDiscarded)
	}
}

func TestTracker_BadTimeFixDropped(t *testing.T) {
	tr := New()
	tr.Process(sentence("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"))
	short := sentence("GPGGA,1235,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	if pos := tr.Process(short); pos != nil {
		t.Fatalf("expected a fix with a truncated time of day to be dropped")
	}
	stats := tr.Stats()
	if stats.TotalPositions != 1 {
		t.Fatalf("expected only the dated position, got %d", stats.TotalPositions)
	}
	if stats.BadTimeFixesDiscarded != 1 {
		t.Fatalf("expected 1 bad time fix discarded, got %d", stats.BadTimeFixesDiscarded)
	}
}

func TestTracker_GLLMergesUnderLastDate(t *testing.T) {
	tr := New()
	rmc := sentence("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	gll := sentence("GPGLL,4807.040,N,01131.002,E,123520,A,A")
	tr.Process(rmc)
	pos := tr.Process(gll)
	if pos == nil {
		t.Fatalf("expected GLL to create a position once a date is known")
	}
	if pos.Number != 2 || pos.Timestamp != "1994/03/23 12:35:20" {
		t.Fatalf("unexpected position %+v", pos)
	}
}

func TestTracker_UnsupportedAndTextIgnored(t *testing.T) {
	tr := New()
	tr.Process(sentence("GPVTG,054.7,T,034.4,M,005.5,N,010.2,K"))
	tr.Process(sentence("GPTXT,01,01,02,u-blox ag - www.u-blox.com"))
	stats := tr.Stats()
	if stats.TotalPositions != 0 || stats.ChecksumErrors != 0 {
		t.Fatalf("expected nothing recorded, got %+v", stats)
	}
}

func TestTracker_Table(t *testing.T) {
	tr := New()
	feedWalk(tr)
	table := tr.Table()
	if len(table) != 13 {
		t.Fatalf("expected header plus 12 rows, got %d", len(table))
	}
	header := []string{"latitude", "longitude", "time"}
	if !reflect.DeepEqual(table[0], header) {
		t.Fatalf("unexpected header %v", table[0])
	}
	if table[1][2] != "2021/02/10 13:57:34" {
		t.Fatalf("unexpected first row %v", table[1])
	}
	if table[12][2] != "2021/02/10 14:07:21" {
		t.Fatalf("unexpected last row %v", table[12])
	}
}

func TestTracker_Clear(t *testing.T) {
	tr := New()
	feedWalk(tr)
	if n := tr.Stats().TotalPositions; n != 12 {
		t.Fatalf("expected 12 positions before clear, got %d", n)
	}
	tr.Clear()
	stats := tr.Stats()
	if !reflect.DeepEqual(stats, Stats{}) {
		t.Fatalf("expected clear to reset everything, got %+v", stats)
	}
	if _, err := tr.LatestPosition(); !errors.Is(err, ErrNoSuitablePosition) {
		t.Fatalf("expected ErrNoSuitablePosition after clear, got %v", err)
	}
}

func TestTracker_ProcessReturnsDelta(t *testing.T) {
	tr := New()
	pos := tr.Process(walkSentences[0])
	if pos == nil {
		t.Fatalf("expected the created position back")
	}
	if pos.Number != 1 {
		t.Fatalf("expected position 1, got %d", pos.Number)
	}
	// The returned record is a copy; mutating it must not corrupt state.
	pos.Latitude = 0
	start, _ := tr.StartPosition()
	if start.Latitude == 0 {
		t.Fatalf("expected returned position to be a copy")
	}
}
