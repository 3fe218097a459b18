package pipeline

import (
	"fmt"
	"time"
)

// Task is one playlist entry to process. Tasks are immutable once built.
type Task struct {
	Name      string
	SourceURL string
}

// Status is the terminal state of a task.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusSkipped
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusSkipped:
		return "skipped"
	case StatusTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Reasons attached to skipped outcomes.
const (
	ReasonExcluded    = "excluded"
	ReasonAlreadyDone = "already done"
	ReasonInterrupted = "interrupted"
)

// Outcome is the result of exactly one task.
type Outcome struct {
	Task       Task
	Status     Status
	Reason     string        // human-readable detail; one of the Reason* constants when skipped
	Identity   string        // allocated (or previously recorded) identity; empty if none
	OutputPath string        // empty unless an identity was allocated
	OutputSize int64         // bytes on disk after a successful transcode
	Elapsed    time.Duration // time spent in the transcoder
	Err        error
}
