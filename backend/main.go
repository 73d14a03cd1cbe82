package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/soar/vrinput/backend/internal/config"
	"github.com/soar/vrinput/backend/internal/controller"
	"github.com/soar/vrinput/backend/internal/cvar"
	"github.com/soar/vrinput/backend/internal/engine"
	"github.com/soar/vrinput/backend/internal/gamepad"
	"github.com/soar/vrinput/backend/internal/host"
	"github.com/soar/vrinput/backend/internal/hub"
	"github.com/soar/vrinput/backend/internal/logger"
	"github.com/soar/vrinput/backend/internal/mapper"
	"github.com/soar/vrinput/backend/internal/server"
	"github.com/soar/vrinput/backend/internal/trace"
	"github.com/soar/vrinput/backend/internal/tray"
)

// Cross-platform signal handling: use os.Interrupt on all platforms
// On Windows: os.Interrupt is sent when Ctrl+C is pressed
// On Unix: os.Interrupt is equivalent to syscall.SIGINT
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// frameSource produces controller frames until ctx is done or it runs out.
type frameSource interface {
	Run(ctx context.Context) error
	Frames() <-chan controller.Frame
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return 1
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	cvars := cvar.NewRegistry()
	mapper.RegisterCvars(cvars)
	if err := loadCvars(cvars, cfg); err != nil {
		slog.Error("Failed to load cvars", "error", err)
		return 1
	}

	var tr *trace.Trace
	if cfg.Trace != "" {
		tr, err = trace.Load(cfg.Trace)
		if err != nil {
			slog.Error("Failed to load trace", "error", err)
			return 1
		}
		if err := cvars.Apply(tr.Cvars); err != nil {
			slog.Error("Failed to apply trace cvars", "error", err)
			return 1
		}
	}

	rec := engine.NewRecorder()
	dispatchers := []engine.Dispatcher{rec}
	if cfg.Console {
		dispatchers = append(dispatchers, engine.NewConsole(os.Stdout))
	}
	if cfg.EngineURL != "" {
		bridge, err := engine.DialBridge(cfg.EngineURL)
		if err != nil {
			slog.Error("Failed to connect to engine", "url", cfg.EngineURL, "error", err)
			return 1
		}
		defer bridge.Close()
		dispatchers = append(dispatchers, bridge)
	}
	m := mapper.New(cvars, engine.Tee(dispatchers...))

	if cfg.Check {
		return check(tr, m, rec)
	}

	var source frameSource
	switch cfg.Source {
	case config.SourceTrace:
		source = trace.NewSource(tr, cfg.Loop)
	default:
		source = gamepad.NewReader()
	}

	return serve(cfg, cvars, m, rec, source)
}

func loadCvars(cvars *cvar.Registry, cfg *config.Config) error {
	if cfg.CvarsFile != "" {
		f, err := os.Open(cfg.CvarsFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Info("No cvar archive yet", "file", cfg.CvarsFile)
		case err != nil:
			return errors.Wrap(err, "open cvar archive")
		default:
			defer f.Close()
			if err := cvars.ReadArchive(f); err != nil {
				return errors.Wrapf(err, "read %s", cfg.CvarsFile)
			}
		}
	}
	return cvars.Apply(cfg.Cvars)
}

func saveCvars(cvars *cvar.Registry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create cvar archive")
	}
	if err := cvars.WriteArchive(f); err != nil {
		f.Close()
		return err
	}
	slog.Info("Cvars saved", "file", path)
	return f.Close()
}

func check(tr *trace.Trace, m trace.Mapper, rec *engine.Recorder) int {
	err := trace.Check(tr, m, rec)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("trace %q: %d steps ok\n", tr.Name, len(tr.Steps))
	return 0
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func serve(cfg *config.Config, cvars *cvar.Registry, m *mapper.LeftHanded, rec *engine.Recorder, source frameSource) int {
	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	loop := host.NewLoop(m, rec, host.Options{
		// Without a real engine nothing turns the view, so follow the snap turns here.
		FollowSnapTurn: cfg.Source == config.SourceSDL,
	})

	h := hub.NewHub()
	go h.Run(ctx)

	broadcaster := hub.NewBroadcaster(h, loop.Reports())
	go broadcaster.Run(ctx)

	srv := server.New(h, broadcaster, cvars, getFrontendFS(), cfg.Addr)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	url := viewerURL(cfg.Addr)
	slog.Info("vrinput started", "viewer", url, "source", cfg.Source)

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})

	var t *tray.Tray
	if cfg.Tray && runtime.GOOS == "windows" {
		t = tray.New(tray.Options{
			URL: url,
			SaveCvars: func() error {
				if cfg.CvarsFile == "" {
					return errors.New("no cvar archive configured")
				}
				return saveCvars(cvars, cfg.CvarsFile)
			},
			Shutdown: func() { close(shutdownRequested) },
		})
		go t.Run(tray.Icon())
	} else {
		slog.Info("Press Ctrl+C to exit")
	}

	// The SDL source locks its OS thread while it runs.
	sourceDone := make(chan error, 1)
	go func() {
		sourceDone <- source.Run(ctx)
	}()

	loopDone := make(chan struct{})
	go func() {
		if err := loop.Run(ctx, source.Frames()); err != nil {
			slog.Error("Host loop stopped", "error", err)
		}
		close(loopDone)
	}()

	exitCode := 0
	select {
	case <-sigCh:
		slog.Info("Shutting down")
	case <-shutdownRequested:
		slog.Info("Shutdown requested from tray")
	case err := <-serverErrCh:
		slog.Error("HTTP server error", "error", err)
		exitCode = 1
	case err := <-sourceDone:
		if err != nil {
			slog.Error("Input source failed", "error", err)
			exitCode = 1
		} else {
			slog.Info("Input source finished")
		}
		sourceDone <- err
	}
	cancel()

	<-sourceDone
	<-loopDone

	// Shutdown the HTTP server gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if t != nil {
		t.Quit()
	}
	if cfg.CvarsFile != "" {
		if err := saveCvars(cvars, cfg.CvarsFile); err != nil {
			slog.Error("Failed to save cvars", "error", err)
		}
	}

	slog.Info("vrinput stopped")
	return exitCode
}
