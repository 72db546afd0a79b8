// Hdrd is the main daemon for the hybrid digital radio receiver.
//
// It loads configuration, starts the HTTP/WebSocket server, and supervises
// the receiver/player/recorder process chain. Shutdown is handled gracefully
// on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sparkfault/hdrd/internal/app"
	"github.com/sparkfault/hdrd/internal/config"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "/etc/hdrd/hdrd.toml", "Path to config TOML")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides the config file)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	usingDefaults := false
	if err != nil {
		// A missing file at the default location is fine; an explicit
		// --config pointing nowhere is not.
		if errors.Is(err, os.ErrNotExist) && !pflag.CommandLine.Changed("config") {
			cfg = config.Default()
			usingDefaults = true
		} else {
			log.Fatalf("config load failed: %v", err)
		}
	}

	out := io.Writer(os.Stdout)
	if cfg.Logging.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   true,
		})
	}
	logger := log.New(out, "hdrd ", log.LstdFlags|log.Lmicroseconds)

	if usingDefaults {
		logger.Printf("no config file at %s, using built-in defaults", *configPath)
	}

	for _, dir := range []string{cfg.Data.Root, cfg.RecordingDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatalf("create %s: %v", dir, err)
		}
	}

	for _, bin := range []string{cfg.Receiver.Binary, cfg.Player.Binary, cfg.Recorder.Binary} {
		if _, err := exec.LookPath(bin); err != nil {
			logger.Printf("warning: %s not found in PATH", bin)
		}
	}

	cfgPath := *configPath
	if usingDefaults {
		cfgPath = ""
	}

	a, err := app.New(app.Options{
		Logger:     logger,
		Cfg:        cfg,
		ConfigPath: cfgPath,
		Bind:       *bind,
	})
	if err != nil {
		logger.Fatalf("hdrd init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("hdrd failed: %v", err)
	}

	// Brief pause so in-flight log writes can flush before exit.
	time.Sleep(50 * time.Millisecond)
}
