// Package config handles loading, defaulting, and validation of the hdrd
// TOML configuration file. Every section maps to a typed struct so the rest
// of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/sparkfault/hdrd/internal/geo"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Data     DataConfig     `toml:"data"     json:"data"`
	Logging  LoggingConfig  `toml:"logging"  json:"logging"`
	Server   ServerConfig   `toml:"server"   json:"server"`
	Receiver ReceiverConfig `toml:"receiver" json:"receiver"`
	Player   PlayerConfig   `toml:"player"   json:"player"`
	Recorder RecorderConfig `toml:"recorder" json:"recorder"`
	Operator OperatorConfig `toml:"operator" json:"operator"`
	Metrics  MetricsConfig  `toml:"metrics"  json:"metrics"`
	MQTT     MQTTConfig     `toml:"mqtt"     json:"mqtt"`
}

type DataConfig struct {
	Root string `toml:"root" json:"root"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`

	// File enables a rotating log file alongside stdout when non-empty.
	File       string `toml:"file"         json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"  json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"  json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

// ReceiverConfig describes the nrsc5 producer and the default tuning
// used when a start request carries no overrides.
type ReceiverConfig struct {
	Binary       string  `toml:"binary"        json:"binary"`
	FrequencyMHz float64 `toml:"frequency_mhz" json:"frequency_mhz"`
	Program      int     `toml:"program"       json:"program"`

	// Host/Port point nrsc5 at a remote rtl_tcp server instead of local
	// hardware. Host empty means local.
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`
}

type PlayerConfig struct {
	Binary string `toml:"binary" json:"binary"`
}

type RecorderConfig struct {
	Binary string `toml:"binary" json:"binary"`

	// Directory for finished recordings; empty means <data.root>/recordings.
	Directory string `toml:"directory" json:"directory"`
}

// OperatorConfig holds the operator's position and display preferences.
// Latitude and longitude both zero means the position is unset and
// relative station position stays unavailable.
type OperatorConfig struct {
	Latitude  float64 `toml:"latitude"   json:"latitude"`
	Longitude float64 `toml:"longitude"  json:"longitude"`
	AltitudeM float64 `toml:"altitude_m" json:"altitude_m"`
	Units     string  `toml:"units"      json:"units"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
}

type MQTTConfig struct {
	Enabled  bool   `toml:"enabled"   json:"enabled"`
	Broker   string `toml:"broker"    json:"broker"`
	Topic    string `toml:"topic"     json:"topic"`
	ClientID string `toml:"client_id" json:"client_id"`
	Username string `toml:"username"  json:"username"`
	Password string `toml:"password"  json:"password"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Data: DataConfig{
			Root: "/var/lib/hdrd",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
		Server: ServerConfig{
			Bind: "0.0.0.0:8090",
		},
		Receiver: ReceiverConfig{
			Binary:       "nrsc5",
			FrequencyMHz: 106.9,
			Program:      0,
			Host:         "",
			Port:         1234,
		},
		Player: PlayerConfig{
			Binary: "ffplay",
		},
		Recorder: RecorderConfig{
			Binary:    "ffmpeg",
			Directory: "",
		},
		Operator: OperatorConfig{
			Latitude:  0.0,
			Longitude: 0.0,
			AltitudeM: 0.0,
			Units:     "metric",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			Topic:    "hdrd",
			ClientID: "hdrd",
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// RecordingDir returns the directory recordings land in.
func (c Config) RecordingDir() string {
	if c.Recorder.Directory != "" {
		return c.Recorder.Directory
	}
	return filepath.Join(c.Data.Root, "recordings")
}

// PresetsPath returns the preset store file under the data root.
func (c Config) PresetsPath() string {
	return filepath.Join(c.Data.Root, "presets.json")
}

// Point returns the operator position, or nil when unset.
func (o OperatorConfig) Point() *geo.Point {
	if o.Latitude == 0 && o.Longitude == 0 {
		return nil
	}
	return &geo.Point{Lat: o.Latitude, Lon: o.Longitude, AltM: o.AltitudeM}
}

// Units returns the operator's unit preference as a geo.Units value.
func (o OperatorConfig) UnitsPref() geo.Units {
	if o.Units == string(geo.Imperial) {
		return geo.Imperial
	}
	return geo.Metric
}

func validate(cfg Config) error {
	if cfg.Data.Root == "" {
		return errors.New("data.root must not be empty")
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level)
	}
	if cfg.Logging.MaxSizeMB < 1 {
		return errors.New("logging.max_size_mb must be >= 1")
	}
	if cfg.Server.Bind == "" {
		return errors.New("server.bind must not be empty")
	}
	if cfg.Receiver.Binary == "" {
		return errors.New("receiver.binary must not be empty")
	}
	if cfg.Receiver.FrequencyMHz <= 0 {
		return errors.New("receiver.frequency_mhz must be > 0")
	}
	if cfg.Receiver.Program < 0 || cfg.Receiver.Program > 3 {
		return errors.New("receiver.program must be between 0 and 3")
	}
	if cfg.Receiver.Host != "" && (cfg.Receiver.Port < 1 || cfg.Receiver.Port > 65535) {
		return errors.New("receiver.port must be between 1 and 65535 when receiver.host is set")
	}
	if cfg.Player.Binary == "" {
		return errors.New("player.binary must not be empty")
	}
	if cfg.Recorder.Binary == "" {
		return errors.New("recorder.binary must not be empty")
	}
	if cfg.Operator.Latitude < -90 || cfg.Operator.Latitude > 90 {
		return errors.New("operator.latitude must be between -90 and 90")
	}
	if cfg.Operator.Longitude < -180 || cfg.Operator.Longitude > 180 {
		return errors.New("operator.longitude must be between -180 and 180")
	}
	switch cfg.Operator.Units {
	case "metric", "imperial":
	default:
		return fmt.Errorf("operator.units %q is not one of metric, imperial", cfg.Operator.Units)
	}
	if cfg.MQTT.Enabled && cfg.MQTT.Broker == "" {
		return errors.New("mqtt.broker must not be empty when mqtt.enabled is true")
	}
	return nil
}
