package export

import (
	"database/sql"
	"fmt"

	"nmeatrack/internal/track"

	_ "github.com/mattn/go-sqlite3"
)

const trackSchema = `
CREATE TABLE IF NOT EXISTS positions (
	position INTEGER PRIMARY KEY,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	timestamp TEXT,
	speed_knots REAL,
	altitude REAL,
	fix_quality TEXT,
	satellites INTEGER
);

CREATE TABLE IF NOT EXISTS summary (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	total_positions INTEGER NOT NULL,
	checksum_errors INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_timestamp ON positions(timestamp);
`

// WriteTrackDB exports the position log and summary counters to a SQLite
// file. The file is recreated from scratch on every export; it is an output
// encoding, not session persistence.
func WriteTrackDB(path string, positions []track.Position, stats track.Stats) error {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("export: open %s: %w", path, err)
	}
	defer conn.Close()

	if _, err := conn.Exec("DROP TABLE IF EXISTS positions; DROP TABLE IF EXISTS summary;"); err != nil {
		return fmt.Errorf("export: reset tables: %w", err)
	}
	if _, err := conn.Exec(trackSchema); err != nil {
		return fmt.Errorf("export: create tables: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("export: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO positions
		(position, latitude, longitude, timestamp, speed_knots, altitude, fix_quality, satellites)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range positions {
		var speed, alt sql.NullFloat64
		var quality sql.NullString
		var sats sql.NullInt64
		if p.SpeedKnots != nil {
			speed = sql.NullFloat64{Float64: *p.SpeedKnots, Valid: true}
		}
		if p.Altitude != nil {
			alt = sql.NullFloat64{Float64: *p.Altitude, Valid: true}
		}
		if p.FixQuality != nil {
			quality = sql.NullString{String: p.FixQuality.String(), Valid: true}
		}
		if p.Satellites != nil {
			sats = sql.NullInt64{Int64: int64(*p.Satellites), Valid: true}
		}
		if _, err := stmt.Exec(p.Number, p.Latitude, p.Longitude, p.Timestamp,
			speed, alt, quality, sats); err != nil {
			return fmt.Errorf("export: insert position %d: %w", p.Number, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO summary (id, total_positions, checksum_errors) VALUES (1, ?, ?)`,
		stats.TotalPositions, stats.ChecksumErrors); err != nil {
		return fmt.Errorf("export: insert summary: %w", err)
	}
	return tx.Commit()
}
