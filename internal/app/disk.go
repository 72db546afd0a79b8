package app

import "github.com/shirou/gopsutil/v3/disk"

// diskUsage returns usage stats for the volume holding path, or nil on
// error.
func diskUsage(path string) map[string]any {
	du, err := disk.Usage(path)
	if err != nil {
		return nil
	}
	return map[string]any{
		"total_bytes":     du.Total,
		"used_bytes":      du.Used,
		"available_bytes": du.Free,
		"used_percent":    du.UsedPercent,
	}
}
