package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/hlsgrab/internal/config"
	"github.com/backmassage/hlsgrab/internal/display"
	"github.com/backmassage/hlsgrab/internal/ffmpeg"
	"github.com/backmassage/hlsgrab/internal/ledger"
	"github.com/backmassage/hlsgrab/internal/logging"
	"github.com/backmassage/hlsgrab/internal/naming"
)

// Run is the top-level batch entry point. It loads the completion ledger,
// schedules every task through the ffmpeg supervisor, logs a summary,
// writes the optional report, and returns aggregate stats.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, tasks []Task) RunStats {
	return run(ctx, cfg, log, tasks, ffmpeg.NewSupervisor(cfg, log))
}

func run(ctx context.Context, cfg *config.Config, log *logging.Logger, tasks []Task, tc Transcoder) RunStats {
	started := time.Now()
	runID := newRunID()

	led := ledger.New(cfg.LedgerFile, log)
	if err := led.Load(); err != nil {
		log.Warn("Ledger not fully read, resuming with what was read: %v", err)
	}
	defer func() {
		if err := led.Close(); err != nil {
			log.Warn("Closing ledger: %v", err)
		}
	}()

	alloc := naming.NewAllocator(cfg.OutputDir, cfg.Ext())

	logBatchHeader(cfg, log, runID, len(tasks), led.Len())

	outcomes := NewScheduler(cfg, log, led, alloc, tc).Run(ctx, tasks)

	stats := Summarize(outcomes)
	stats.RunID = runID
	stats.Started = started
	stats.Elapsed = time.Since(started)

	logSummary(log, &stats)

	if cfg.ReportFile != "" {
		if err := WriteReport(cfg.ReportFile, NewReport(stats, outcomes, cfg.InputFile)); err != nil {
			log.Warn("Report not written: %v", err)
		} else {
			log.Info("Report written to %s", cfg.ReportFile)
		}
	}
	return stats
}

// newRunID returns a time-ordered run identifier.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, runID string, tasks, recorded int) {
	log.Info("Run %s", runID)
	log.Info("Found %d tasks in %s", tasks, cfg.InputFile)
	log.Info("Output: %s (%s), ledger: %s (%d records)", cfg.OutputDir, cfg.OutputContainer, cfg.LedgerFile, recorded)
	log.Info("Workers: %d, timeout per task: %s", cfg.Concurrency, cfg.Timeout)
	log.Info("Video: %s preset %s CRF %d, audio: %s %s",
		cfg.VideoCodec, cfg.VideoPreset, cfg.VideoCRF, cfg.AudioCodec, cfg.AudioBitrate)
	if len(cfg.Exclude) > 0 {
		log.Info("Excluding names containing: %q", cfg.Exclude)
	}
}

func logSummary(log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d succeeded, %d failed, %d timed out, %d skipped",
		stats.Succeeded, stats.Failed, stats.TimedOut, stats.Skipped)
	log.Info("Summary report:")
	log.Info("  Total tasks: %d", stats.Total)
	if stats.Skipped > 0 {
		log.Info("  Skipped: %d excluded, %d already done, %d interrupted",
			stats.Excluded, stats.AlreadyDone, stats.Interrupted)
	}
	log.Info("  Output written: %s", display.FormatBytes(stats.OutputBytes))
	log.Info("  Elapsed: %s (transcoder time %s)",
		display.FormatElapsed(stats.Elapsed), display.FormatElapsed(stats.TranscodeTime))

	switch {
	case stats.HasFailures():
		log.Warn("  %d task(s) did not complete; rerun to retry them", stats.Failed+stats.TimedOut)
	case stats.Interrupted > 0:
		log.Warn("  Interrupted; rerun to resume")
	default:
		log.Success("  All tasks complete")
	}
}
