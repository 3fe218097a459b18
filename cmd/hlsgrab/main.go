// Command hlsgrab downloads and transcodes every stream in a playlist with
// ffmpeg, a few at a time, and remembers finished work so an interrupted
// batch can simply be run again.
//
// It parses flags, validates configuration, and either runs system
// diagnostics (--check) or the download pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/hlsgrab/internal/check"
	"github.com/backmassage/hlsgrab/internal/config"
	"github.com/backmassage/hlsgrab/internal/display"
	"github.com/backmassage/hlsgrab/internal/logging"
	"github.com/backmassage/hlsgrab/internal/pipeline"
	"github.com/backmassage/hlsgrab/internal/playlist"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "hlsgrab: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "hlsgrab: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hlsgrab: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available; all output goes through log from here on.
	display.PrintBanner(os.Stdout, version)

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("Cannot create output directory %s: %v", cfg.OutputDir, err)
		return 1
	}

	log.Info("=== hlsgrab v%s (%s) ===", version, commit)
	if cfg.ConfigFile != "" {
		log.Info("Settings: %s", cfg.ConfigFile)
	}

	// Fail fast if ffmpeg or the configured encoders are unavailable.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: Signal handling. Cancelling stops dispatch; running
	// transcodes finish or time out on their own.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go watchInterrupt(ctx, sigCh, cancel, log.Warn)

	// Phase 4: Load the playlist. This is the only fatal input error.
	list, err := playlist.Load(cfg.InputFile, cfg.InputFmt)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if list.Skipped > 0 {
		log.Warn("Ignored %d unusable playlist line(s)", list.Skipped)
	}
	log.Debug("Playlist format: %s", list.Format)
	if len(list.Entries) == 0 {
		log.Warn("No tasks found in %s", cfg.InputFile)
		return 0
	}

	tasks := make([]pipeline.Task, len(list.Entries))
	for i, e := range list.Entries {
		tasks[i] = pipeline.Task{Name: e.Name, SourceURL: e.URL}
	}

	// Phase 5: Run.
	stats := pipeline.Run(ctx, &cfg, log, tasks)

	switch {
	case stats.HasFailures():
		return 1
	case stats.Interrupted > 0:
		return 130
	}
	return 0
}

// watchInterrupt cancels the run on the first signal and restores default
// signal handling, so a second interrupt terminates the process.
func watchInterrupt(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc, warn func(string, ...interface{})) {
	select {
	case <-sigCh:
		signal.Stop(sigCh)
		warn("Received interrupt, no new tasks will start; waiting for running ones (interrupt again to abort)")
		cancel()
	case <-ctx.Done():
	}
}
