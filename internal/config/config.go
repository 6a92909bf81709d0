package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Outputs OutputsConfig `yaml:"outputs"`
	KML     KMLConfig     `yaml:"kml"`
	GeoJSON GeoJSONConfig `yaml:"geojson"`
	Live    LiveConfig    `yaml:"live"`
	Web     WebConfig     `yaml:"web"`
}

type SerialConfig struct {
	// Device may be empty to auto-detect /dev/ttyACM* and /dev/ttyUSB*.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// OutputsConfig holds export file paths. An empty path disables that export.
type OutputsConfig struct {
	KML     string `yaml:"kml"`
	GeoJSON string `yaml:"geojson"`
	CSV     string `yaml:"csv"`
	TSV     string `yaml:"tsv"`
	DB      string `yaml:"db"`
	Summary string `yaml:"summary"`
}

type KMLConfig struct {
	DocumentName       string `yaml:"document_name"`
	IntermediatePoints bool   `yaml:"intermediate_points"`
}

type GeoJSONConfig struct {
	// Verbose adds one point feature per intermediate position.
	Verbose bool `yaml:"verbose"`
}

type LiveConfig struct {
	// RefreshSeconds is how often the live KML file is rewritten and how
	// often the NetworkLink tells the viewer to poll.
	RefreshSeconds int `yaml:"refresh_seconds"`

	// CapturePath appends every raw sentence to a replayable log.
	CapturePath string `yaml:"capture_path"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a YAML config file, filling defaults for
// anything unset.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()

	if cfg.Live.RefreshSeconds < 0 {
		return Config{}, fmt.Errorf("live.refresh_seconds must not be negative")
	}
	if cfg.Serial.Baud < 0 {
		return Config{}, fmt.Errorf("serial.baud must not be negative")
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 9600
	}
	if cfg.KML.DocumentName == "" {
		cfg.KML.DocumentName = "nmeatrack"
	}
	if cfg.Live.RefreshSeconds == 0 {
		cfg.Live.RefreshSeconds = 1
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}
}
