package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/anvil-platform/depstage/internal/config"
	"github.com/anvil-platform/depstage/internal/pass"
)

func main() {
	var (
		projectDir string
		clear      bool
		watch      bool
		debug      bool
	)
	flag.StringVar(&projectDir, "project", ".", "Project directory to resolve dependencies for.")
	flag.BoolVar(&clear, "clear", false, "Remove all generated descriptors and cached artifacts, then exit.")
	flag.BoolVar(&watch, "watch", false, "Keep running and re-resolve on declaration file changes.")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging.")
	flag.Parse()

	// Local overrides (cache location, CLI paths) may live in a .env next to
	// the project; absence is fine.
	_ = godotenv.Load()

	log, err := newLogger(debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(projectDir)
	if err != nil {
		log.Error("load config", zap.Error(err))
		os.Exit(1)
	}

	runner := pass.NewRunner(pass.Options{Config: cfg, Log: log})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case clear:
		outcome, err := runner.ClearAll(ctx)
		exit(log, outcome, err)

	case watch:
		if cfg.MetricsAddr != "" {
			go serveMetrics(log, cfg.MetricsAddr)
		}
		w, err := pass.NewWatcher(runner)
		if err != nil {
			log.Error("setup watcher", zap.Error(err))
			os.Exit(1)
		}
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("watch loop", zap.Error(err))
			os.Exit(1)
		}

	default:
		outcome, err := runner.ResolveNow(ctx)
		exit(log, outcome, err)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

// exit prints warnings to the user and maps the outcome to the process exit
// code.
func exit(log *zap.Logger, outcome pass.Outcome, err error) {
	if err != nil {
		log.Error("resolution failed", zap.Error(err))
		os.Exit(1)
	}
	for _, w := range outcome.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if !outcome.OK {
		os.Exit(1)
	}
}

func serveMetrics(log *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", pass.MetricsHandler())
	log.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}
