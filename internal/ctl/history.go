package ctl

import (
	"fmt"
	"strings"
	"time"
)

// HistoryOptions configures the history command.
type HistoryOptions struct {
	Limit int
	JSON  bool
}

// History lists recently seen tracks, newest first.
func History(baseURL string, opts HistoryOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	path := "/api/history"
	if opts.Limit > 0 {
		path += fmt.Sprintf("?limit=%d", opts.Limit)
	}

	var resp struct {
		History []struct {
			Time   time.Time `json:"time"`
			Title  string    `json:"title"`
			Artist string    `json:"artist"`
			Album  string    `json:"album"`
		} `json:"history"`
	}
	if err := getJSON(baseURL, path, &resp); err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  TRACK HISTORY"))

	if len(resp.History) == 0 {
		fmt.Println(colorize(dim, "  ────────────────────────"))
		fmt.Println("  No tracks seen yet.")
	} else {
		t := newTable("  ", "Time", "Title", "Artist", "Album")
		for _, e := range resp.History {
			t.row(e.Time.Local().Format("15:04:05"), e.Title, e.Artist, e.Album)
		}
		t.flush()
	}
	fmt.Println()

	return nil
}
