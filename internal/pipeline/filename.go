package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// sanitizeFilename strips characters that are unsafe in file names and
// trims surrounding whitespace.
func sanitizeFilename(s string) string {
	return strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(s, ""))
}

// recordingFilename builds the output path for a new recording. With
// known song metadata the name is "<title> - <artist>_<HHMMSS>.mp3";
// otherwise it falls back to the station form
// "Radio_<freq>_P<program>_<timestamp>.mp3" with dots in the frequency
// replaced by underscores. The canonical artist is used, never the
// display override.
func recordingFilename(dir, title, artist string, freqMHz float64, program int, now time.Time) string {
	var name string
	if title != "" && artist != "" {
		name = fmt.Sprintf("%s - %s_%s.mp3",
			sanitizeFilename(title), sanitizeFilename(artist), now.Format("150405"))
	} else {
		freq := strings.ReplaceAll(formatFrequency(freqMHz), ".", "_")
		name = fmt.Sprintf("Radio_%s_P%d_%s.mp3", freq, program, now.Format("2006-01-02_15-04-05"))
	}
	return filepath.Join(dir, name)
}

// formatElapsed renders a recording duration as HH:MM:SS.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
