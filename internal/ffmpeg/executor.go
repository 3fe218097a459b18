package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/backmassage/hlsgrab/internal/config"
)

// maxStderr bounds the captured stderr tail per child.
const maxStderr = 64 * 1024

// minKillGrace replaces a non-positive grace; a zero WaitDelay would let a
// grandchild holding stderr block Wait indefinitely.
const minKillGrace = time.Second

// Logger is the subset of the application logger the supervisor uses.
type Logger interface {
	Warn(string, ...interface{})
	Debug(string, ...interface{})
}

// ExecResult holds the outcome of a single supervised invocation.
type ExecResult struct {
	Stderr   string        // last 64 KiB of the child's stderr
	ExitCode int           // -1 when the child never exited normally
	Elapsed  time.Duration // wall clock from start to reap
	Err      error         // nil on exit 0; wraps one of the sentinel errors otherwise
}

// Supervisor runs one external transcoder process per call with a
// wall-clock timeout. It holds no per-call state and may be shared by all
// workers.
type Supervisor struct {
	binary  string
	build   func(sourceURL, outputPath string) []string
	grace   time.Duration
	verbose bool
	log     Logger
}

// NewSupervisor returns a Supervisor that runs cfg.FFmpegPath with
// arguments from [BuildArgs].
func NewSupervisor(cfg *config.Config, log Logger) *Supervisor {
	return &Supervisor{
		binary: cfg.FFmpegPath,
		build: func(src, dst string) []string {
			return BuildArgs(cfg, src, dst)
		},
		grace:   cfg.KillGrace,
		verbose: cfg.Verbose,
		log:     log,
	}
}

// NewCommandSupervisor returns a Supervisor for an arbitrary binary. build
// maps a (source, output) pair to the binary's arguments.
func NewCommandSupervisor(binary string, build func(sourceURL, outputPath string) []string, grace time.Duration, log Logger) *Supervisor {
	return &Supervisor{binary: binary, build: build, grace: grace, log: log}
}

// Transcode runs the child and waits for it, never longer than timeout plus
// the kill grace period.
//
//   - exit 0: Err is nil.
//   - non-zero exit: Err wraps [ErrToolFailed]; the output file is left in place.
//   - timeout: the child is killed, outputPath is removed, Err wraps [ErrTimedOut].
//   - start failure: outputPath is removed, Err wraps [ErrLaunchFailed].
//
// Cancelling ctx kills the child like a timeout but leaves the output in
// place and reports [ErrToolFailed].
func (s *Supervisor) Transcode(ctx context.Context, sourceURL, outputPath string, timeout time.Duration) ExecResult {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := s.build(sourceURL, outputPath)
	cmd := exec.CommandContext(runCtx, s.binary, args...)
	// Bounds Wait after the kill if a grandchild keeps the stderr pipe open.
	cmd.WaitDelay = s.grace
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = minKillGrace
	}

	stderr := newTailBuffer(maxStderr)
	if s.verbose {
		cmd.Stderr = io.MultiWriter(stderr, os.Stderr)
	} else {
		cmd.Stderr = stderr
	}

	s.debug("exec: %s %v", s.binary, args)

	if err := cmd.Start(); err != nil {
		s.removeOutput(outputPath)
		return ExecResult{
			ExitCode: -1,
			Elapsed:  time.Since(start),
			Err:      fmt.Errorf("%w: %v", ErrLaunchFailed, err),
		}
	}

	waitErr := cmd.Wait()
	res := ExecResult{
		Stderr:   stderr.String(),
		ExitCode: -1,
		Elapsed:  time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case waitErr == nil:
		return res
	case res.ExitCode == 0 && errors.Is(waitErr, exec.ErrWaitDelay):
		// Exited cleanly; only a leftover pipe holder was cut off.
		s.debug("exit 0 after wait delay: %s", outputPath)
		return res
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		s.removeOutput(outputPath)
		res.Err = fmt.Errorf("%w after %s", ErrTimedOut, timeout)
		return res
	case ctx.Err() != nil:
		res.Err = fmt.Errorf("%w: %v", ErrToolFailed, ctx.Err())
		return res
	default:
		msg := fmt.Sprintf("exit code %d", res.ExitCode)
		if label := Diagnose(res.Stderr); label != "" {
			msg += ", " + label
		}
		res.Err = fmt.Errorf("%w (%s)", ErrToolFailed, msg)
		return res
	}
}

// RemovePartial removes path, treating a missing file as success.
func RemovePartial(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Supervisor) removeOutput(path string) {
	if err := RemovePartial(path); err != nil && s.log != nil {
		s.log.Warn("Could not remove partial output %s: %v", path, err)
	}
}

func (s *Supervisor) debug(format string, args ...interface{}) {
	if s.log != nil {
		s.log.Debug(format, args...)
	}
}

// tailBuffer is an io.Writer that keeps only the last max bytes written.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	if n >= t.max {
		t.buf = append(t.buf[:0], p[n-t.max:]...)
		return n, nil
	}
	if over := len(t.buf) + n - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

// String returns the retained tail.
func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
