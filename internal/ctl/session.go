package ctl

import "fmt"

// StartOptions configures the start command. Nil pointers mean "not
// provided", so the daemon's configured defaults apply.
type StartOptions struct {
	FrequencyMHz float64
	Program      *int
	Host         *string
	Port         *int
	JSON         bool
}

// Start asks the daemon to start a receive session.
func Start(baseURL string, opts StartOptions) error {
	payload := map[string]any{}
	if opts.FrequencyMHz > 0 {
		payload["frequency_mhz"] = opts.FrequencyMHz
	}
	if opts.Program != nil {
		payload["program"] = *opts.Program
	}
	if opts.Host != nil {
		payload["host"] = *opts.Host
	}
	if opts.Port != nil {
		payload["port"] = *opts.Port
	}

	result, err := postCommand(baseURL, "/api/start", payload)
	if err != nil {
		return err
	}
	return printResult("STARTED", result, opts.JSON)
}

// Stop asks the daemon to stop the current receive session.
func Stop(baseURL string, jsonOutput bool) error {
	result, err := postCommand(baseURL, "/api/stop", nil)
	if err != nil {
		return err
	}
	return printResult("STOPPED", result, jsonOutput)
}

// TuneOptions configures the tune command.
type TuneOptions struct {
	FrequencyMHz float64
	Program      *int
	JSON         bool
}

// Tune retunes the running session to a new frequency and program.
func Tune(baseURL string, opts TuneOptions) error {
	if opts.FrequencyMHz <= 0 {
		return fmt.Errorf("tune needs a frequency in MHz, e.g. hdrctl tune 98.5")
	}

	payload := map[string]any{"frequency_mhz": opts.FrequencyMHz}
	if opts.Program != nil {
		payload["program"] = *opts.Program
	}

	result, err := postCommand(baseURL, "/api/tune", payload)
	if err != nil {
		return err
	}
	return printResult("TUNED", result, opts.JSON)
}
