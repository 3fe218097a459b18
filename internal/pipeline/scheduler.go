package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/hlsgrab/internal/config"
	"github.com/backmassage/hlsgrab/internal/ffmpeg"
	"github.com/backmassage/hlsgrab/internal/ledger"
	"github.com/backmassage/hlsgrab/internal/logging"
	"github.com/backmassage/hlsgrab/internal/naming"
)

// stderrExcerptLines is how much ffmpeg output is logged for a failed task.
const stderrExcerptLines = 20

// Transcoder runs one supervised transcode. [ffmpeg.Supervisor] is the
// production implementation.
type Transcoder interface {
	Transcode(ctx context.Context, sourceURL, outputPath string, timeout time.Duration) ffmpeg.ExecResult
}

// Scheduler drives tasks through a fixed number of worker slots. The
// ledger and allocator it is given are shared by all slots.
type Scheduler struct {
	cfg    *config.Config
	log    *logging.Logger
	ledger *ledger.Ledger
	alloc  *naming.Allocator
	tc     Transcoder
}

// NewScheduler returns a scheduler using cfg.Concurrency slots.
func NewScheduler(cfg *config.Config, log *logging.Logger, led *ledger.Ledger, alloc *naming.Allocator, tc Transcoder) *Scheduler {
	return &Scheduler{cfg: cfg, log: log, ledger: led, alloc: alloc, tc: tc}
}

// Run processes tasks and returns one outcome per task, indexed like tasks.
// Tasks are started in input order, at most cfg.Concurrency at a time, and
// one task's failure never affects another.
//
// Cancelling ctx stops dispatch: tasks that have not started yet are
// reported as skipped (interrupted). Tasks already running are not
// cancelled; they finish or hit their own timeout.
func (s *Scheduler) Run(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	total := len(tasks)

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for i, task := range tasks {
		if s.cfg.Excluded(task.Name) {
			s.log.Warn("[%d/%d] Skip (excluded): %s", i+1, total, task.Name)
			outcomes[i] = Outcome{Task: task, Status: StatusSkipped, Reason: ReasonExcluded}
			continue
		}
		if ctx.Err() != nil {
			outcomes[i] = interrupted(task)
			continue
		}
		i, task := i, task // per-iteration copies (pre-Go 1.22 loop semantics)
		// Blocks until a slot frees up.
		g.Go(func() error {
			outcomes[i] = s.process(ctx, i+1, total, task)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// process runs the per-task chain while holding a slot.
func (s *Scheduler) process(ctx context.Context, seq, total int, task Task) Outcome {
	// The slot may have been granted after an interrupt.
	if ctx.Err() != nil {
		return interrupted(task)
	}

	out := Outcome{Task: task}

	// --- Resume check ---
	if id, ok := s.ledger.Lookup(naming.BaseIdentity(task.Name), task.SourceURL); ok {
		s.log.Info("[%d/%d] Skip (already done as %s): %s", seq, total, id, task.Name)
		out.Status = StatusSkipped
		out.Reason = ReasonAlreadyDone
		out.Identity = id
		return out
	}

	// --- Reserve output ---
	identity, outputPath, err := s.alloc.Allocate(task.Name)
	if err != nil {
		s.log.Error("[%d/%d] %s: cannot reserve output name (%s): %v", seq, total, task.Name, task.SourceURL, err)
		out.Status = StatusFailure
		out.Reason = "output allocation failed"
		out.Err = err
		return out
	}
	out.Identity = identity
	out.OutputPath = outputPath
	s.log.Info("[%d/%d] %s -> %s", seq, total, task.Name, outputPath)
	s.log.Debug("  source: %s", task.SourceURL)

	// --- Transcode ---
	res := s.tc.Transcode(context.WithoutCancel(ctx), task.SourceURL, outputPath, s.cfg.Timeout)
	out.Elapsed = res.Elapsed
	out.Err = res.Err

	switch {
	case res.Err == nil:
		out.Status = StatusSuccess
		out.Reason = "completed"
		if fi, err := os.Stat(outputPath); err == nil {
			out.OutputSize = fi.Size()
		}
		if err := s.ledger.Mark(identity, task.SourceURL); err != nil {
			s.log.Warn("%s: completed but not recorded in ledger: %v", identity, err)
		}
		s.log.Success("[%d/%d] Done: %s in %s", seq, total, identity, res.Elapsed.Round(time.Second))

	case errors.Is(res.Err, ffmpeg.ErrTimedOut):
		out.Status = StatusTimedOut
		out.Reason = res.Err.Error()
		s.removePartial(outputPath)
		s.log.Error("[%d/%d] Timed out: %s (%s, %s): %v", seq, total, task.Name, identity, task.SourceURL, res.Err)

	case errors.Is(res.Err, ffmpeg.ErrLaunchFailed):
		out.Status = StatusFailure
		out.Reason = res.Err.Error()
		s.removePartial(outputPath)
		s.log.Error("[%d/%d] Failed to start ffmpeg: %s (%s, %s): %v", seq, total, task.Name, identity, task.SourceURL, res.Err)

	default:
		out.Status = StatusFailure
		out.Reason = res.Err.Error()
		s.log.Error("[%d/%d] Failed: %s (%s, %s): %v", seq, total, task.Name, identity, task.SourceURL, res.Err)
		s.logStderr(res.Stderr)
	}
	return out
}

func (s *Scheduler) removePartial(path string) {
	if err := ffmpeg.RemovePartial(path); err != nil {
		s.log.Warn("Could not remove partial output %s: %v", path, err)
	}
}

func (s *Scheduler) logStderr(stderr string) {
	excerpt := ffmpeg.Excerpt(stderr, stderrExcerptLines)
	if excerpt == "" {
		return
	}
	s.log.Error("Last ffmpeg output:")
	for _, l := range strings.Split(excerpt, "\n") {
		s.log.Error("  %s", l)
	}
}

func interrupted(task Task) Outcome {
	return Outcome{Task: task, Status: StatusSkipped, Reason: ReasonInterrupted}
}
