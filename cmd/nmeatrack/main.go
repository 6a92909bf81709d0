package main

import (
	"fmt"
	"os"

	"nmeatrack/internal/config"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "nmeatrack",
		Short: "Decode GPS NMEA 0183 sentences into tracks, statistics and maps",
		Long: `nmeatrack ingests NMEA 0183 GPS sentences from a capture file or a live
serial receiver, fuses them into time-correlated position records, and
exports trip statistics, KML and GeoJSON maps, and position tables.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (optional)")

	rootCmd.AddCommand(decodeCmd())
	rootCmd.AddCommand(liveCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
