package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"nmeatrack/internal/config"
	"nmeatrack/internal/feed"
	"nmeatrack/internal/kml"
	"nmeatrack/internal/track"

	"github.com/spf13/cobra"
)

// liveCmd ingests from a serial receiver and keeps a live KML map fresh.
func liveCmd() *cobra.Command {
	var device string
	var baud int
	var kmlPath string

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Track a serial GPS receiver and plot positions live",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			overridePath(&cfg.Serial.Device, device)
			if baud != 0 {
				cfg.Serial.Baud = baud
			}
			overridePath(&cfg.Outputs.KML, kmlPath)
			if cfg.Outputs.KML == "" {
				cfg.Outputs.KML = "live.kml"
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runLive(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "Serial device path (auto-detect when empty)")
	cmd.Flags().IntVarP(&baud, "baud", "b", 0, "Serial baud rate")
	cmd.Flags().StringVar(&kmlPath, "kml", "", "Live KML file path")
	return cmd
}

func runLive(ctx context.Context, cfg config.Config) error {
	device := cfg.Serial.Device
	if device == "" {
		device = feed.AutoDetectDevice()
		if device == "" {
			return fmt.Errorf("serial auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
		}
	}

	port, err := feed.OpenSerial(device, cfg.Serial.Baud)
	if err != nil {
		return fmt.Errorf("serial open failed device=%s baud=%d: %w", device, cfg.Serial.Baud, err)
	}
	defer port.Close()
	log.Printf("tracking device=%s baud=%d", device, cfg.Serial.Baud)

	var capture *feed.Capture
	if cfg.Live.CapturePath != "" {
		capture, err = feed.NewCapture(cfg.Live.CapturePath)
		if err != nil {
			return err
		}
		defer capture.Close()
	}

	netlinkPath := filepath.Join(filepath.Dir(cfg.Outputs.KML), "open_this.kml")
	if err := kml.WriteNetworkLink(netlinkPath, cfg.Outputs.KML, cfg.Live.RefreshSeconds); err != nil {
		return err
	}
	log.Printf("open %s in a map viewer to follow the track", netlinkPath)

	tracker := track.New()
	lines := feed.Lines(ctx, port)
	ticker := time.NewTicker(time.Duration(cfg.Live.RefreshSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("stopping")
			return writeExports(cfg, tracker)

		case line, ok := <-lines:
			if !ok {
				log.Printf("serial read stopped")
				return writeExports(cfg, tracker)
			}
			if capture != nil {
				capture.WriteLine(line)
			}
			if pos := tracker.Process(line); pos != nil {
				log.Printf("position %d lat=%.8f lon=%.8f %s",
					pos.Number, pos.Latitude, pos.Longitude, pos.Timestamp)
			}

		case <-ticker.C:
			if err := writeLiveKML(cfg, tracker); err != nil {
				log.Printf("live kml write failed: %v", err)
			}
		}
	}
}

func writeLiveKML(cfg config.Config, tracker *track.Tracker) error {
	doc, err := kml.EncodeTrack(cfg.KML.DocumentName, tracker.Positions(), kml.Options{
		IntermediatePoints: cfg.KML.IntermediatePoints,
		AltitudeUnits:      tracker.AltitudeUnits(),
	})
	if errors.Is(err, kml.ErrNoPositions) {
		// Nothing to plot yet.
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.Outputs.KML, doc, 0o644)
}
