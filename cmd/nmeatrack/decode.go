package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"nmeatrack/internal/config"
	"nmeatrack/internal/export"
	"nmeatrack/internal/feed"
	"nmeatrack/internal/geojson"
	"nmeatrack/internal/kml"
	"nmeatrack/internal/track"

	"github.com/spf13/cobra"
)

// decodeCmd runs a batch pass over a capture file.
func decodeCmd() *cobra.Command {
	var input string
	var kmlPath, geojsonPath, csvPath, tsvPath, dbPath string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a capture file and export the track",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			overridePath(&cfg.Outputs.KML, kmlPath)
			overridePath(&cfg.Outputs.GeoJSON, geojsonPath)
			overridePath(&cfg.Outputs.CSV, csvPath)
			overridePath(&cfg.Outputs.TSV, tsvPath)
			overridePath(&cfg.Outputs.DB, dbPath)

			tracker := track.New()
			if err := feed.ReplayFile(input, func(line string) {
				tracker.Process(line)
			}); err != nil {
				return err
			}

			fmt.Print(export.SummaryText(tracker.Stats()))
			return writeExports(cfg, tracker)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Capture file of NMEA sentences")
	_ = cmd.MarkFlagRequired("input")
	cmd.Flags().StringVar(&kmlPath, "kml", "", "Write a KML map to this path")
	cmd.Flags().StringVar(&geojsonPath, "geojson", "", "Write a GeoJSON map to this path")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write a CSV positions table to this path")
	cmd.Flags().StringVar(&tsvPath, "tsv", "", "Write a TSV positions table to this path")
	cmd.Flags().StringVar(&dbPath, "db", "", "Write a SQLite track log to this path")
	return cmd
}

func overridePath(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}

// writeExports writes every configured output. An empty track downgrades map
// exports to a warning; a request for data that cannot exist must not crash.
func writeExports(cfg config.Config, tracker *track.Tracker) error {
	positions := tracker.Positions()
	stats := tracker.Stats()

	if path := cfg.Outputs.KML; path != "" {
		doc, err := kml.EncodeTrack(cfg.KML.DocumentName, positions, kml.Options{
			IntermediatePoints: cfg.KML.IntermediatePoints,
			AltitudeUnits:      tracker.AltitudeUnits(),
		})
		switch {
		case errors.Is(err, kml.ErrNoPositions):
			log.Printf("kml export skipped: %v", err)
		case err != nil:
			return err
		default:
			if err := os.WriteFile(path, doc, 0o644); err != nil {
				return err
			}
			log.Printf("wrote kml %s", path)
		}
	}

	if path := cfg.Outputs.GeoJSON; path != "" {
		fc, err := geojson.Encode(positions, stats, cfg.GeoJSON.Verbose)
		switch {
		case errors.Is(err, geojson.ErrNoPositions):
			log.Printf("geojson export skipped: %v", err)
		case err != nil:
			return err
		default:
			b, err := fc.Bytes()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, b, 0o644); err != nil {
				return err
			}
			log.Printf("wrote geojson %s", path)
		}
	}

	if path := cfg.Outputs.CSV; path != "" {
		if err := export.WriteCSV(path, tracker.Table()); err != nil {
			return err
		}
		log.Printf("wrote csv %s", path)
	}
	if path := cfg.Outputs.TSV; path != "" {
		if err := export.WriteTSV(path, tracker.Table()); err != nil {
			return err
		}
		log.Printf("wrote tsv %s", path)
	}
	if path := cfg.Outputs.DB; path != "" {
		if err := export.WriteTrackDB(path, positions, stats); err != nil {
			return err
		}
		log.Printf("wrote sqlite %s", path)
	}
	if path := cfg.Outputs.Summary; path != "" {
		if err := export.WriteText(path, export.SummaryText(stats)); err != nil {
			return err
		}
		log.Printf("wrote summary %s", path)
	}
	return nil
}
