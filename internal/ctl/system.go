package ctl

import (
	"fmt"
	"strings"
	"time"
)

// SystemInfo fetches runtime and host information from GET /api/system.
func SystemInfo(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var sys struct {
		GoVersion    string                    `json:"go_version"`
		OS           string                    `json:"os"`
		Arch         string                    `json:"arch"`
		PID          int                       `json:"pid"`
		Goroutines   int                       `json:"goroutines"`
		DataRoot     string                    `json:"data_root"`
		RecordingDir string                    `json:"recording_dir"`
		WSClients    int                       `json:"ws_clients"`
		Binaries     map[string]map[string]any `json:"binaries"`
		Host         map[string]any            `json:"host"`
		Memory       map[string]any            `json:"memory"`
		CPUPercent   float64                   `json:"cpu_percent"`
		Disk         map[string]any            `json:"disk"`
	}
	if err := getJSON(baseURL, "/api/system", &sys); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(sys)
	}

	fmt.Println()
	fmt.Println(header("  SYSTEM INFO"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))

	fmt.Printf("  %-14s %s (%s/%s)\n", colorize(dim, "Runtime:"), sys.GoVersion, sys.OS, sys.Arch)
	fmt.Printf("  %-14s pid %d, %d goroutines\n", colorize(dim, "Process:"), sys.PID, sys.Goroutines)

	if hostname, ok := sys.Host["hostname"].(string); ok {
		platform, _ := sys.Host["platform"].(string)
		platformVersion, _ := sys.Host["platform_version"].(string)
		fmt.Printf("  %-14s %s (%s %s)\n", colorize(dim, "Host:"), hostname, platform, platformVersion)
		if up, ok := sys.Host["uptime_seconds"].(float64); ok {
			fmt.Printf("  %-14s %s\n", colorize(dim, "Host uptime:"), formatDuration(time.Duration(up)*time.Second))
		}
	}

	if used, ok := sys.Memory["used_percent"].(float64); ok {
		total, _ := sys.Memory["total_bytes"].(float64)
		fmt.Printf("  %-14s [%s] %.0f%% of %s\n",
			colorize(dim, "Memory:"),
			progressBar(int(used), 20),
			used,
			formatBytes(int64(total)),
		)
	}
	if sys.CPUPercent > 0 {
		fmt.Printf("  %-14s [%s] %.0f%%\n", colorize(dim, "CPU:"), progressBar(int(sys.CPUPercent), 20), sys.CPUPercent)
	}
	if used, ok := sys.Disk["used_percent"].(float64); ok {
		avail, _ := sys.Disk["available_bytes"].(float64)
		fmt.Printf("  %-14s [%s] %.0f%% used, %s free\n",
			colorize(dim, "Disk:"),
			progressBar(int(used), 20),
			used,
			formatBytes(int64(avail)),
		)
	}

	fmt.Printf("  %-14s %s\n", colorize(dim, "Data root:"), sys.DataRoot)
	fmt.Printf("  %-14s %s\n", colorize(dim, "Recordings:"), sys.RecordingDir)

	if len(sys.Binaries) > 0 {
		fmt.Printf("\n  %s\n", colorize(bold, "External binaries"))
		for _, name := range []string{"receiver", "player", "recorder"} {
			st, ok := sys.Binaries[name]
			if !ok {
				continue
			}
			if ok, _ := st["ok"].(bool); ok {
				path, _ := st["path"].(string)
				fmt.Printf("    %-12s %s  %s\n", colorize(dim, name+":"), colorize(green, "ok"), colorize(dim, path))
			} else {
				errMsg, _ := st["error"].(string)
				fmt.Printf("    %-12s %s  %s\n", colorize(dim, name+":"), colorize(red, "missing"), colorize(dim, errMsg))
			}
		}
	}

	fmt.Println()
	return nil
}
