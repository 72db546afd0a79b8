package ctl

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RecordingsOptions configures the recordings command.
type RecordingsOptions struct {
	Delete string
	JSON   bool
}

// Recordings lists or deletes recorded files on the daemon.
func Recordings(baseURL string, opts RecordingsOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	if opts.Delete != "" {
		result, err := doDelete(baseURL, "/api/recordings?name="+url.QueryEscape(opts.Delete))
		if err != nil {
			return err
		}
		return printResult("DELETED", result, opts.JSON)
	}

	var resp struct {
		Recordings []struct {
			Filename   string `json:"filename"`
			Size       int64  `json:"size"`
			ModifiedAt string `json:"modified_at"`
		} `json:"recordings"`
		TotalBytes int64  `json:"total_bytes"`
		Directory  string `json:"directory"`
	}
	if err := getJSON(baseURL, "/api/recordings", &resp); err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  RECORDINGS"))

	if len(resp.Recordings) == 0 {
		fmt.Println(colorize(dim, "  ────────────────────────"))
		fmt.Println("  No recordings found.")
	} else {
		t := newTable("  ", "Modified", "Size", "Filename")
		t.alignRight(1)
		for _, rec := range resp.Recordings {
			modified := rec.ModifiedAt
			if ts, err := time.Parse(time.RFC3339, rec.ModifiedAt); err == nil {
				modified = ts.Local().Format("2006-01-02 15:04")
			}
			t.row(modified, formatBytes(rec.Size), rec.Filename)
		}
		t.flush()
		fmt.Printf("\n  %s %s in %s\n",
			colorize(dim, "Total:"),
			formatBytes(resp.TotalBytes),
			colorize(dim, resp.Directory),
		)
	}
	fmt.Println()

	return nil
}
