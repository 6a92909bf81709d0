package nmea

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Checksum verifies the XOR checksum of a raw NMEA sentence.
//
// The checksum is computed over the characters strictly between '$' and '*'
// and compared against the two hex digits following '*'. A sentence without a
// '*'-delimited checksum field is malformed and reports false rather than an
// error.
func Checksum(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return false
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return false
	}
	ck := line[star+1:]
	if len(ck) < 2 {
		return false
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return false
	}
	payload := line[1:star]
	got := byte(0)
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	return got == want[0]
}

// LatLonDegrees converts an NMEA ddmm.mmmm latitude and dddmm.mmmm longitude
// pair into signed decimal degrees.
//
// The sign comes from the hemisphere letters, never from the numeric fields:
// south and west are negative, north and east positive.
func LatLonDegrees(lat, latHemi, lon, lonHemi string) (float64, float64, error) {
	latDeg, err := degrees(lat, latHemi)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	lonDeg, err := degrees(lon, lonHemi)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	return latDeg, lonDeg, nil
}

func degrees(v, hemi string) (float64, error) {
	raw, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, err
	}
	whole := math.Floor(raw / 100)
	dec := whole + (raw-whole*100)/60
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, nil
}
