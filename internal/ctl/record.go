package ctl

// RecordStart asks the daemon to begin recording the current session.
func RecordStart(baseURL string, jsonOutput bool) error {
	result, err := postCommand(baseURL, "/api/record/start", nil)
	if err != nil {
		return err
	}
	return printResult("RECORDING", result, jsonOutput)
}

// RecordStop finalizes the active recording.
func RecordStop(baseURL string, jsonOutput bool) error {
	result, err := postCommand(baseURL, "/api/record/stop", nil)
	if err != nil {
		return err
	}
	return printResult("SAVED", result, jsonOutput)
}
