package ctl

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Config fetches and displays the daemon's running configuration.
func Config(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	// Decode into a generic map to preserve all fields for both display modes.
	var raw json.RawMessage
	if err := getJSON(baseURL, "/api/config", &raw); err != nil {
		return err
	}

	if jsonOutput {
		var v any
		_ = json.Unmarshal(raw, &v)
		return printJSON(v)
	}

	// Decode into ordered sections for human-readable output.
	var cfg struct {
		Data struct {
			Root string `json:"root"`
		} `json:"data"`
		Logging struct {
			Level string `json:"level"`
			File  string `json:"file"`
		} `json:"logging"`
		Server struct {
			Bind string `json:"bind"`
		} `json:"server"`
		Receiver struct {
			Binary       string  `json:"binary"`
			FrequencyMHz float64 `json:"frequency_mhz"`
			Program      int     `json:"program"`
			Host         string  `json:"host"`
			Port         int     `json:"port"`
		} `json:"receiver"`
		Player struct {
			Binary string `json:"binary"`
		} `json:"player"`
		Recorder struct {
			Binary    string `json:"binary"`
			Directory string `json:"directory"`
		} `json:"recorder"`
		Operator struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			AltitudeM float64 `json:"altitude_m"`
			Units     string  `json:"units"`
		} `json:"operator"`
		Metrics struct {
			Enabled bool `json:"enabled"`
		} `json:"metrics"`
		MQTT struct {
			Enabled bool   `json:"enabled"`
			Broker  string `json:"broker"`
			Topic   string `json:"topic"`
		} `json:"mqtt"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(header("  DAEMON CONFIGURATION"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))

	section := func(name string) {
		fmt.Printf("\n  %s\n", colorize(bold, "["+name+"]"))
	}
	field := func(key string, val any) {
		fmt.Printf("    %-20s %v\n", colorize(dim, key+":"), val)
	}

	section("data")
	field("root", cfg.Data.Root)

	section("logging")
	field("level", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		field("file", cfg.Logging.File)
	}

	section("server")
	field("bind", cfg.Server.Bind)

	section("receiver")
	field("binary", cfg.Receiver.Binary)
	field("frequency_mhz", cfg.Receiver.FrequencyMHz)
	field("program", cfg.Receiver.Program)
	if cfg.Receiver.Host != "" {
		field("host", cfg.Receiver.Host)
		field("port", cfg.Receiver.Port)
	}

	section("player")
	field("binary", cfg.Player.Binary)

	section("recorder")
	field("binary", cfg.Recorder.Binary)
	if cfg.Recorder.Directory != "" {
		field("directory", cfg.Recorder.Directory)
	}

	section("operator")
	field("latitude", cfg.Operator.Latitude)
	field("longitude", cfg.Operator.Longitude)
	field("altitude_m", cfg.Operator.AltitudeM)
	field("units", cfg.Operator.Units)

	section("metrics")
	field("enabled", cfg.Metrics.Enabled)

	section("mqtt")
	field("enabled", cfg.MQTT.Enabled)
	if cfg.MQTT.Enabled {
		field("broker", cfg.MQTT.Broker)
		field("topic", cfg.MQTT.Topic)
	}

	fmt.Println()
	return nil
}
