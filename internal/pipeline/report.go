package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Report is the TOML document written to cfg.ReportFile after a run.
type Report struct {
	RunID    string       `toml:"run_id"`
	Playlist string       `toml:"playlist"`
	Started  time.Time    `toml:"started"`
	Finished time.Time    `toml:"finished"`
	Elapsed  string       `toml:"elapsed"`
	Counts   ReportCounts `toml:"counts"`
	Problems []Problem    `toml:"problem,omitempty"`
}

// ReportCounts mirrors the counters of [RunStats].
type ReportCounts struct {
	Total       int   `toml:"total"`
	Succeeded   int   `toml:"succeeded"`
	Failed      int   `toml:"failed"`
	TimedOut    int   `toml:"timed_out"`
	Skipped     int   `toml:"skipped"`
	Excluded    int   `toml:"excluded"`
	AlreadyDone int   `toml:"already_done"`
	Interrupted int   `toml:"interrupted"`
	OutputBytes int64 `toml:"output_bytes"`
}

// Problem is one failed or timed-out task.
type Problem struct {
	Name     string `toml:"name"`
	Identity string `toml:"identity,omitempty"`
	URL      string `toml:"url"`
	Status   string `toml:"status"`
	Reason   string `toml:"reason"`
}

// NewReport assembles a report from a finished run.
func NewReport(stats RunStats, outcomes []Outcome, playlist string) Report {
	r := Report{
		RunID:    stats.RunID,
		Playlist: playlist,
		Started:  stats.Started,
		Finished: stats.Started.Add(stats.Elapsed),
		Elapsed:  stats.Elapsed.Round(time.Second).String(),
		Counts: ReportCounts{
			Total:       stats.Total,
			Succeeded:   stats.Succeeded,
			Failed:      stats.Failed,
			TimedOut:    stats.TimedOut,
			Skipped:     stats.Skipped,
			Excluded:    stats.Excluded,
			AlreadyDone: stats.AlreadyDone,
			Interrupted: stats.Interrupted,
			OutputBytes: stats.OutputBytes,
		},
	}
	for _, o := range outcomes {
		if o.Status != StatusFailure && o.Status != StatusTimedOut {
			continue
		}
		r.Problems = append(r.Problems, Problem{
			Name:     o.Task.Name,
			Identity: o.Identity,
			URL:      o.Task.SourceURL,
			Status:   o.Status.String(),
			Reason:   o.Reason,
		})
	}
	return r
}

// WriteReport encodes r as TOML to path. The file is written to a temporary
// name in the same directory and renamed into place.
func WriteReport(path string, r Report) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.toml")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(r); err != nil {
		tmp.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
