package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nmeatrack/internal/config"
	"nmeatrack/internal/feed"
	"nmeatrack/internal/track"
	"nmeatrack/internal/web"

	"github.com/spf13/cobra"
)

// serveCmd ingests sentences and exposes the session over HTTP.
func serveCmd() *cobra.Command {
	var input string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tracker statistics and maps over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			if addr != "" {
				cfg.Web.Addr = addr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			tracker := track.New()
			if input != "" {
				if err := feed.ReplayFile(input, func(line string) {
					tracker.Process(line)
				}); err != nil {
					return err
				}
				stats := tracker.Stats()
				log.Printf("loaded %s: %d positions, %d checksum errors",
					input, stats.TotalPositions, stats.ChecksumErrors)
			} else {
				if err := startSerialIngest(ctx, cfg, tracker); err != nil {
					return err
				}
			}

			server := &http.Server{
				Addr:    cfg.Web.Addr,
				Handler: web.NewServer(tracker, cfg.KML.DocumentName).Router(),
			}
			go func() {
				log.Printf("listening on %s", cfg.Web.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("http server stopped: %v", err)
					cancel()
				}
			}()

			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Capture file (serial ingest when empty)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "HTTP listen address")
	return cmd
}

// startSerialIngest runs the serial reader loop on its own goroutine. The
// reader only pushes lines; Process is the single writer into the tracker.
func startSerialIngest(ctx context.Context, cfg config.Config, tracker *track.Tracker) error {
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
	log.Printf("tracking device=%s baud=%d", device, cfg.Serial.Baud)

	lines := feed.Lines(ctx, port)
	go func() {
		defer port.Close()
		for line := range lines {
			tracker.Process(line)
		}
	}()
	return nil
}
