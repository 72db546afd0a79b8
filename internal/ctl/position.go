package ctl

import (
	"fmt"
	"strings"
)

// Position fetches and displays the station position relative to the
// operator.
func Position(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp struct {
		Available bool `json:"available"`
		Position  struct {
			Station struct {
				Lat  float64 `json:"lat"`
				Lon  float64 `json:"lon"`
				AltM float64 `json:"alt_m"`
			} `json:"station"`
			HorizontalM float64 `json:"horizontal_m"`
			BearingDeg  float64 `json:"bearing_deg"`
			Cardinal    string  `json:"cardinal"`
			VerticalM   float64 `json:"vertical_m"`
			Horizontal  string  `json:"horizontal"`
			Vertical    string  `json:"vertical"`
		} `json:"position"`
	}
	if err := getJSON(baseURL, "/api/position", &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  STATION POSITION"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))

	if !resp.Available {
		fmt.Println("  No station position received yet.")
		fmt.Println()
		return nil
	}

	p := resp.Position
	fmt.Printf("  %-12s %.4f, %.4f (%.0f m)\n", colorize(dim, "Station:"), p.Station.Lat, p.Station.Lon, p.Station.AltM)
	fmt.Printf("  %-12s %s %s\n", colorize(dim, "Distance:"), p.Horizontal, colorize(dim, fmt.Sprintf("(bearing %.0f°)", p.BearingDeg)))
	fmt.Printf("  %-12s %s\n", colorize(dim, "Elevation:"), p.Vertical)
	fmt.Println()

	return nil
}
