package ctl

import (
	"fmt"
	"strings"
)

// LogOptions configures the log command.
type LogOptions struct {
	Limit int
	Clear bool
	Tail  bool
	JSON  bool
}

// Log shows the receiver's diagnostic log, clears it with --clear, or
// streams live pipeline log events with --tail.
func Log(baseURL string, opts LogOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	if opts.Clear {
		result, err := doDelete(baseURL, "/api/log")
		if err != nil {
			return err
		}
		return printResult("CLEARED", result, opts.JSON)
	}

	// --tail mode: use WebSocket watch with a log filter.
	if opts.Tail {
		return Watch(baseURL, WatchOptions{
			Filter: []string{"log"},
			JSON:   opts.JSON,
		})
	}

	path := "/api/log"
	if opts.Limit > 0 {
		path += fmt.Sprintf("?limit=%d", opts.Limit)
	}

	var resp struct {
		Lines []string `json:"lines"`
	}
	if err := getJSON(baseURL, path, &resp); err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  RECEIVER LOG"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 70)))

	if len(resp.Lines) == 0 {
		fmt.Println("  No diagnostic output captured.")
	} else {
		for _, line := range resp.Lines {
			fmt.Println("  " + line)
		}
	}
	fmt.Println()

	return nil
}
