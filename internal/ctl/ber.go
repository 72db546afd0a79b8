package ctl

import (
	"fmt"
	"strings"
)

// BER fetches and displays the bit error rate series.
func BER(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var info struct {
		Values     []float64 `json:"values"`
		UpperBound float64   `json:"upper_bound"`
		Origin     int       `json:"origin"`
		Current    string    `json:"current"`
	}
	if err := getJSON(baseURL, "/api/ber", &info); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(info)
	}

	fmt.Println()
	fmt.Println(header("  BIT ERROR RATE"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))

	if len(info.Values) == 0 {
		fmt.Println("  No samples yet.")
		fmt.Println()
		return nil
	}

	last := info.Values[len(info.Values)-1]
	min, max, sum := info.Values[0], info.Values[0], 0.0
	for _, v := range info.Values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := sum / float64(len(info.Values))

	pct := 0
	if info.UpperBound > 0 {
		pct = int(last / info.UpperBound * 100)
	}

	fmt.Printf("  %-10s %s\n", colorize(dim, "Current:"), colorize(bold, info.Current))
	fmt.Printf("  %-10s [%s] of %.3g ceiling\n", colorize(dim, "Level:"), progressBar(pct, 24), info.UpperBound)
	fmt.Printf("  %-10s min %.3g  avg %.3g  max %.3g\n", colorize(dim, "Window:"), min, avg, max)
	fmt.Printf("  %-10s %d (starting at sample %d)\n", colorize(dim, "Samples:"), len(info.Values), info.Origin)
	fmt.Println()

	return nil
}
