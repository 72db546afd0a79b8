package ctl

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// presetRecord mirrors the daemon's preset JSON.
type presetRecord struct {
	Name string `json:"name"`
	Freq string `json:"freq"`
	Prog string `json:"prog"`
}

// Presets lists the saved station presets in order.
func Presets(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp struct {
		Presets []presetRecord `json:"presets"`
	}
	if err := getJSON(baseURL, "/api/presets", &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  PRESETS"))

	if len(resp.Presets) == 0 {
		fmt.Println(colorize(dim, "  ────────────────────────"))
		fmt.Println("  No presets saved.")
	} else {
		t := newTable("  ", "#", "Name", "Freq", "Prog")
		t.alignRight(0)
		t.alignRight(2)
		for i, p := range resp.Presets {
			t.row(fmt.Sprintf("%d", i+1), p.Name, p.Freq+" MHz", "P"+p.Prog)
		}
		t.flush()
	}
	fmt.Println()

	return nil
}

// PresetAdd saves a new preset on the daemon.
func PresetAdd(baseURL, name, freq, prog string, jsonOutput bool) error {
	if freq == "" {
		return fmt.Errorf("preset-add needs --freq, e.g. hdrctl preset-add Jazz --freq 101.1")
	}

	var resp struct {
		OK     bool         `json:"ok"`
		Error  string       `json:"error"`
		Preset presetRecord `json:"preset"`
	}
	err := postJSONBody(baseURL, "/api/presets", presetRecord{Name: name, Freq: freq, Prog: prog}, &resp)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	if resp.OK {
		fmt.Printf("  %s  %s (%s MHz P%s)\n", colorize(green, "ADDED"), resp.Preset.Name, resp.Preset.Freq, resp.Preset.Prog)
	} else {
		fmt.Printf("  %s  %s\n", colorize(red, "ERROR"), resp.Error)
	}
	fmt.Println()
	return nil
}

// PresetRemove deletes a preset by name.
func PresetRemove(baseURL, name string, jsonOutput bool) error {
	if name == "" {
		return fmt.Errorf("preset-remove needs a preset name")
	}
	result, err := doDelete(baseURL, "/api/presets/"+url.PathEscape(name))
	if err != nil {
		return err
	}
	return printResult("REMOVED", result, jsonOutput)
}

// PresetMove shifts a preset by delta positions in the ordered list.
func PresetMove(baseURL, name string, delta int, jsonOutput bool) error {
	if name == "" {
		return fmt.Errorf("preset-move needs a preset name")
	}
	if delta == 0 {
		return fmt.Errorf("preset-move needs a non-zero --delta")
	}

	var resp struct {
		OK      bool           `json:"ok"`
		Error   string         `json:"error"`
		Presets []presetRecord `json:"presets"`
	}
	if err := postJSONBody(baseURL, "/api/presets/move", map[string]any{"name": name, "delta": delta}, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	if resp.OK {
		fmt.Printf("  %s  new order:\n", colorize(green, "MOVED"))
		for i, p := range resp.Presets {
			fmt.Printf("    %d. %s (%s MHz P%s)\n", i+1, p.Name, p.Freq, p.Prog)
		}
	} else {
		fmt.Printf("  %s  %s\n", colorize(red, "ERROR"), resp.Error)
	}
	fmt.Println()
	return nil
}

// PresetExport writes the daemon's preset list as JSON to stdout.
func PresetExport(baseURL string) error {
	status, body, err := getRaw(strings.TrimRight(baseURL, "/"), "/api/presets/export")
	if err != nil {
		return err
	}
	if status != 200 {
		return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
	}
	fmt.Println(string(bytes.TrimSpace(body)))
	return nil
}

// PresetImport replaces the daemon's preset list from a JSON file.
func PresetImport(baseURL, path string, jsonOutput bool) error {
	if path == "" {
		return fmt.Errorf("preset-import needs a JSON file, e.g. hdrctl preset-import presets.json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var resp struct {
		OK       bool   `json:"ok"`
		Error    string `json:"error"`
		Imported int    `json:"imported"`
	}
	if err := postRaw(baseURL, "/api/presets/import", data, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	if resp.OK {
		fmt.Printf("  %s  %d presets\n", colorize(green, "IMPORTED"), resp.Imported)
	} else {
		fmt.Printf("  %s  %s\n", colorize(red, "ERROR"), resp.Error)
	}
	fmt.Println()
	return nil
}
