package pipeline

import (
	"net"
	"strconv"
)

// formatFrequency renders a tuning frequency in MHz the way it is
// passed on a command line, with no trailing zeros.
func formatFrequency(mhz float64) string {
	return strconv.FormatFloat(mhz, 'f', -1, 64)
}

// receiverArgs builds the nrsc5 argument list. Audio goes to stdout as
// raw PCM; diagnostics and song metadata arrive on stderr.
func receiverArgs(p StartParams) []string {
	var args []string
	if p.Host != "" {
		args = append(args, "-H", net.JoinHostPort(p.Host, strconv.Itoa(p.Port)))
	}
	return append(args, formatFrequency(p.FrequencyMHz), strconv.Itoa(p.Program), "-o", "-")
}

// playerArgs builds the ffplay argument list for live playback of the
// receiver's PCM stream: signed 16-bit little-endian, 44.1 kHz, stereo,
// tuned for low latency.
func playerArgs() []string {
	return []string{
		"-nodisp", "-autoexit", "-hide_banner",
		"-loglevel", "quiet",
		"-f", "s16le", "-ar", "44100", "-ac", "2",
		"-fflags", "nobuffer", "-flags", "low_delay",
		"-i", "pipe:0",
	}
}

// recorderArgs builds the ffmpeg argument list encoding the same PCM
// stream to an MP3 file.
func recorderArgs(path string) []string {
	return []string{
		"-y", "-hide_banner",
		"-loglevel", "error",
		"-f", "s16le", "-ar", "44100", "-ac", "2",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame", "-qscale:a", "2",
		path,
	}
}
