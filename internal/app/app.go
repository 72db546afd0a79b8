// Package app wires together the HTTP server, the WebSocket hub, and the
// receive pipeline. It owns the daemon's lifecycle: one App serves the API,
// fans events out to clients, and shuts everything down in order when the
// context is cancelled.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/sparkfault/hdrd/internal/config"
	"github.com/sparkfault/hdrd/internal/metrics"
	"github.com/sparkfault/hdrd/internal/mqtt"
	"github.com/sparkfault/hdrd/internal/pipeline"
	"github.com/sparkfault/hdrd/internal/presets"
	"github.com/sparkfault/hdrd/internal/telemetry"
	"github.com/sparkfault/hdrd/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger     *log.Logger
	Cfg        config.Config
	ConfigPath string
	Bind       string
}

// App is the top-level daemon process. It manages the HTTP server, the
// WebSocket event hub, the pipeline runner, and the optional metrics and
// MQTT integrations.
type App struct {
	log        *log.Logger
	cfg        config.Config
	configPath string
	bind       string
	server     *http.Server
	startedAt  time.Time

	wsHub    *ws.Hub
	pipeline *pipeline.Runner
	presets  *presets.Store
	metrics  *metrics.Metrics
	mqtt     *mqtt.Publisher
}

// New assembles an App from the loaded configuration. Call Run to start
// serving.
func New(opts Options) (*App, error) {
	a := &App{
		log:        opts.Logger,
		cfg:        opts.Cfg,
		configPath: opts.ConfigPath,
		bind:       opts.Bind,
		startedAt:  time.Now(),
		wsHub:      ws.NewHub(),
	}

	a.pipeline = pipeline.New(a.wsHub, a.cfg, a.log)

	if a.cfg.Metrics.Enabled {
		m, err := metrics.New()
		if err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		a.metrics = m
		a.pipeline.SetMetrics(m)
	}

	if a.cfg.MQTT.Enabled {
		a.mqtt = mqtt.New(a.cfg.MQTT, a.log)
		a.pipeline.SetPublisher(a.mqtt)
	}

	store, err := presets.Open(a.cfg.PresetsPath())
	if err != nil {
		return nil, fmt.Errorf("open presets: %w", err)
	}
	a.presets = store

	// New WebSocket clients get a full status snapshot before the live
	// event stream, so UIs render without waiting for the next event.
	a.wsHub.SetHello(a.helloSnapshot)

	return a, nil
}

// Run starts the HTTP server, the WebSocket hub, the pipeline loop, and the
// heartbeat ticker. It blocks until the context is cancelled or the server
// returns an error.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" && a.cfg.Server.Bind != "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8090"
	}

	mux := http.NewServeMux()
	a.routes(mux)

	a.server = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Printf("listening on http://%s", bind)

	go a.wsHub.Run(ctx)
	go a.pipeline.Run(ctx)
	go a.heartbeatLoop(ctx)

	if a.mqtt != nil {
		go func() {
			if err := a.mqtt.Connect(); err != nil {
				a.log.Printf("mqtt: connect failed: %v", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		a.log.Printf("shutdown requested")
		shctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.server.Shutdown(shctx)
		if a.mqtt != nil {
			a.mqtt.Disconnect()
		}
	}()

	return a.server.Serve(ln)
}

// routes registers every HTTP endpoint on the mux.
func (a *App) routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.HandleFunc("/api/system", a.handleSystem)

	mux.HandleFunc("/api/start", a.handleStart)
	mux.HandleFunc("/api/stop", a.handleStop)
	mux.HandleFunc("/api/tune", a.handleTune)
	mux.HandleFunc("/api/record/start", a.handleRecordStart)
	mux.HandleFunc("/api/record/stop", a.handleRecordStop)

	mux.HandleFunc("/api/nowplaying", a.handleNowPlaying)
	mux.HandleFunc("/api/history", a.handleHistory)
	mux.HandleFunc("/api/ber", a.handleBER)
	mux.HandleFunc("/api/position", a.handlePosition)
	mux.HandleFunc("/api/log", a.handleLog)

	mux.HandleFunc("/api/presets", a.handlePresets)
	mux.HandleFunc("/api/presets/", a.handlePresetByName)
	mux.HandleFunc("/api/presets/move", a.handlePresetMove)
	mux.HandleFunc("/api/presets/export", a.handlePresetExport)
	mux.HandleFunc("/api/presets/import", a.handlePresetImport)

	mux.HandleFunc("/api/recordings", a.handleRecordings)

	if a.metrics != nil {
		mux.Handle("/metrics", a.metrics.Handler())
	}
	mux.Handle("/ws", a.wsHub.Handler())
}

// helloSnapshot builds the greeting frame sent to every new WebSocket
// client.
func (a *App) helloSnapshot() any {
	return map[string]any{
		"type":      "hello",
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"component": "hdrd",
		"version":   Version,
		"status":    a.pipeline.Status(),
	}
}

// heartbeatLoop sends a periodic heartbeat event so clients can detect
// connectivity and track uptime without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.wsHub.BroadcastJSON(telemetry.Heartbeat{
				Event:         telemetry.Stamp(telemetry.EventHeartbeat, "hdrd"),
				State:         a.pipeline.Status().State,
				UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
			})
		}
	}
}
