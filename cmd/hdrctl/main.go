// Hdrctl is the command-line client for monitoring and controlling a running
// hdrd instance. It connects over HTTP and WebSocket to query status, drive
// the receive session, and stream live events from the daemon.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sparkfault/hdrd/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8090", "Hdrd daemon URL (e.g. http://192.168.1.20:8090)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter state,log)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --delta are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "config":
		err = ctl.Config(*host, *jsonOut)

	case "system":
		err = ctl.SystemInfo(*host, *jsonOut)

	case "nowplaying":
		err = ctl.NowPlaying(*host, *jsonOut)

	case "history":
		opts := ctl.HistoryOptions{JSON: *jsonOut}
		histFlags := pflag.NewFlagSet("history", pflag.ContinueOnError)
		histFlags.IntVar(&opts.Limit, "limit", 0, "Limit number of entries shown")
		_ = histFlags.Parse(subArgs)
		err = ctl.History(*host, opts)

	case "ber":
		err = ctl.BER(*host, *jsonOut)

	case "position":
		err = ctl.Position(*host, *jsonOut)

	case "log":
		opts := ctl.LogOptions{JSON: *jsonOut}
		logFlags := pflag.NewFlagSet("log", pflag.ContinueOnError)
		logFlags.IntVar(&opts.Limit, "limit", 0, "Limit number of lines shown")
		logFlags.BoolVar(&opts.Clear, "clear", false, "Clear the diagnostic log")
		logFlags.BoolVar(&opts.Tail, "tail", false, "Stream live log events (like watch --filter log)")
		_ = logFlags.Parse(subArgs)
		err = ctl.Log(*host, opts)

	case "presets":
		err = ctl.Presets(*host, *jsonOut)

	case "recordings":
		opts := ctl.RecordingsOptions{JSON: *jsonOut}
		recFlags := pflag.NewFlagSet("recordings", pflag.ContinueOnError)
		recFlags.StringVar(&opts.Delete, "delete", "", "Delete a recording by filename")
		_ = recFlags.Parse(subArgs)
		err = ctl.Recordings(*host, opts)

	// ── Control commands ──────────────────────────────────────────
	case "start":
		opts := ctl.StartOptions{JSON: *jsonOut}
		startFlags := pflag.NewFlagSet("start", pflag.ContinueOnError)
		program := startFlags.Int("program", 0, "HD program number (0-3)")
		rtlHost := startFlags.String("rtl-host", "", "Remote rtl_tcp host")
		rtlPort := startFlags.Int("rtl-port", 0, "Remote rtl_tcp port")
		_ = startFlags.Parse(subArgs)
		if startFlags.NArg() > 0 {
			opts.FrequencyMHz = parseFrequency(startFlags.Arg(0))
		}
		if startFlags.Changed("program") {
			opts.Program = program
		}
		if startFlags.Changed("rtl-host") {
			opts.Host = rtlHost
		}
		if startFlags.Changed("rtl-port") {
			opts.Port = rtlPort
		}
		err = ctl.Start(*host, opts)

	case "stop":
		err = ctl.Stop(*host, *jsonOut)

	case "tune":
		opts := ctl.TuneOptions{JSON: *jsonOut}
		tuneFlags := pflag.NewFlagSet("tune", pflag.ContinueOnError)
		program := tuneFlags.Int("program", 0, "HD program number (0-3)")
		_ = tuneFlags.Parse(subArgs)
		if tuneFlags.NArg() > 0 {
			opts.FrequencyMHz = parseFrequency(tuneFlags.Arg(0))
		}
		if tuneFlags.Changed("program") {
			opts.Program = program
		}
		err = ctl.Tune(*host, opts)

	case "record-start":
		err = ctl.RecordStart(*host, *jsonOut)

	case "record-stop":
		err = ctl.RecordStop(*host, *jsonOut)

	case "preset-add":
		addFlags := pflag.NewFlagSet("preset-add", pflag.ContinueOnError)
		freq := addFlags.String("freq", "", "Frequency in MHz (required)")
		prog := addFlags.String("prog", "", "HD program number (default 0)")
		_ = addFlags.Parse(subArgs)
		name := ""
		if addFlags.NArg() > 0 {
			name = addFlags.Arg(0)
		}
		err = ctl.PresetAdd(*host, name, *freq, *prog, *jsonOut)

	case "preset-remove":
		name := ""
		if len(subArgs) > 0 {
			name = subArgs[0]
		}
		err = ctl.PresetRemove(*host, name, *jsonOut)

	case "preset-move":
		moveFlags := pflag.NewFlagSet("preset-move", pflag.ContinueOnError)
		delta := moveFlags.Int("delta", 0, "Positions to move (negative is toward the front)")
		_ = moveFlags.Parse(subArgs)
		name := ""
		if moveFlags.NArg() > 0 {
			name = moveFlags.Arg(0)
		}
		err = ctl.PresetMove(*host, name, *delta, *jsonOut)

	case "preset-export":
		err = ctl.PresetExport(*host)

	case "preset-import":
		path := ""
		if len(subArgs) > 0 {
			path = subArgs[0]
		}
		err = ctl.PresetImport(*host, path, *jsonOut)

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		err = ctl.Watch(*host, ctl.WatchOptions{
			Filter: *filter,
			JSON:   *jsonOut,
		})

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// parseFrequency reads a positional MHz argument, tolerating a trailing
// "MHz" suffix. Returns 0 for anything unparsable so the daemon-side
// validation produces the error message.
func parseFrequency(s string) float64 {
	s = strings.TrimSpace(s)
	if n := len(s); n > 3 && strings.EqualFold(s[n-3:], "mhz") {
		s = strings.TrimSpace(s[:n-3])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func usage() {
	fmt.Print(`
  hdrctl — HD Radio daemon control CLI

  USAGE
    hdrctl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show session state, tuning, and now playing
    health          Check daemon and component health
    version         Show CLI and daemon version information
    config          Show the daemon's running configuration
    system          Show runtime and hardware information
    nowplaying      Show the current track metadata
    history         List recently seen tracks
    ber             Show the bit error rate series
    position        Show the station position relative to the operator
    log             Show the receiver's diagnostic log
    presets         List saved station presets
    recordings      List recorded files

  COMMANDS (control)
    start           Start a receive session
    stop            Stop the receive session
    tune            Retune to a new frequency and program
    record-start    Start recording the current session
    record-stop     Finalize the active recording
    preset-add      Save a station preset
    preset-remove   Delete a preset by name
    preset-move     Reorder a preset
    preset-export   Print the preset list as JSON
    preset-import   Replace the preset list from a JSON file

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8090)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    start:
        [freq]              Frequency in MHz (default: config)
        --program N         HD program number 0-3 (default: config)
        --rtl-host HOST     Remote rtl_tcp host
        --rtl-port PORT     Remote rtl_tcp port

    tune:
        FREQ                Frequency in MHz (required)
        --program N         HD program number 0-3

    history:
        --limit N           Limit number of entries shown

    log:
        --limit N           Limit number of lines shown
        --clear             Clear the diagnostic log
        --tail              Stream live log events

    recordings:
        --delete NAME       Delete a recording by filename

    preset-add:
        NAME                Preset name (defaults to "<freq> MHz P<prog>")
        --freq MHZ          Frequency in MHz (required)
        --prog N            HD program number (default 0)

    preset-move:
        NAME                Preset name
        --delta N           Positions to move (negative is toward the front)

  EXAMPLES
    hdrctl status
    hdrctl --json status
    hdrctl --host http://192.168.1.20:8090 watch
    hdrctl start 98.5 --program 1
    hdrctl tune 90.1
    hdrctl record-start
    hdrctl record-stop
    hdrctl nowplaying
    hdrctl history --limit 20
    hdrctl ber
    hdrctl position
    hdrctl log --limit 50
    hdrctl log --tail
    hdrctl preset-add Jazz --freq 101.1 --prog 1
    hdrctl preset-move Jazz --delta -1
    hdrctl preset-export > presets.json
    hdrctl preset-import presets.json
    hdrctl recordings
    hdrctl recordings --delete "Radio_98_5_P0_2026-08-25_14-02-11.mp3"
    hdrctl watch --filter state,now_playing,ber

`)
}
