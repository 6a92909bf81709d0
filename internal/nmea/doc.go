// Package nmea decodes NMEA 0183 GPS sentences.
//
// It covers the position-bearing subset:
// - Verify the XOR checksum on every sentence
// - Parse RMC, GGA and GLL for lat/lon/time/speed/altitude
// - Pass TXT sentences through as free text
package nmea
