package ctl

import (
	"fmt"
	"strings"
)

// NowPlayingInfo mirrors the now-playing block shared by several endpoints.
type NowPlayingInfo struct {
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	DisplayArtist string `json:"display_artist"`
	Album         string `json:"album"`
}

// nowPlayingLine renders a one-line "Title - Artist" summary, preferring
// the display artist. Empty when no metadata has arrived.
func nowPlayingLine(np NowPlayingInfo) string {
	artist := np.DisplayArtist
	if artist == "" {
		artist = np.Artist
	}
	switch {
	case np.Title != "" && artist != "":
		return np.Title + " - " + artist
	case np.Title != "":
		return np.Title
	default:
		return artist
	}
}

// NowPlaying fetches and displays the current track metadata.
func NowPlaying(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var np NowPlayingInfo
	if err := getJSON(baseURL, "/api/nowplaying", &np); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(np)
	}

	fmt.Println()
	fmt.Println(header("  NOW PLAYING"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))

	if np.Title == "" && np.Artist == "" && np.Album == "" {
		fmt.Println("  No metadata received yet.")
		fmt.Println()
		return nil
	}

	artist := np.DisplayArtist
	if artist == "" {
		artist = np.Artist
	}
	if np.Title != "" {
		fmt.Printf("  %-10s %s\n", colorize(dim, "Title:"), colorize(bold, np.Title))
	}
	if artist != "" {
		fmt.Printf("  %-10s %s\n", colorize(dim, "Artist:"), artist)
	}
	if np.Album != "" {
		fmt.Printf("  %-10s %s\n", colorize(dim, "Album:"), np.Album)
	}
	fmt.Println()

	return nil
}
