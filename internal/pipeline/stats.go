package pipeline

import "time"

// RunStats tracks aggregate counters and totals across a batch run.
// Succeeded + Failed + TimedOut + Skipped == Total always holds, and
// Excluded + AlreadyDone + Interrupted == Skipped.
type RunStats struct {
	RunID   string
	Started time.Time
	Elapsed time.Duration // wall clock for the whole run

	Total     int
	Succeeded int
	Failed    int
	TimedOut  int
	Skipped   int

	Excluded    int
	AlreadyDone int
	Interrupted int

	OutputBytes   int64         // bytes written by successful tasks
	TranscodeTime time.Duration // summed per-task transcoder time
}

// Summarize folds outcomes into counters. It is pure: run ID, start time
// and wall-clock elapsed are left for the caller.
func Summarize(outcomes []Outcome) RunStats {
	var s RunStats
	s.Total = len(outcomes)
	for _, o := range outcomes {
		s.TranscodeTime += o.Elapsed
		switch o.Status {
		case StatusSuccess:
			s.Succeeded++
			s.OutputBytes += o.OutputSize
		case StatusFailure:
			s.Failed++
		case StatusTimedOut:
			s.TimedOut++
		case StatusSkipped:
			s.Skipped++
			switch o.Reason {
			case ReasonExcluded:
				s.Excluded++
			case ReasonAlreadyDone:
				s.AlreadyDone++
			case ReasonInterrupted:
				s.Interrupted++
			}
		}
	}
	return s
}

// HasFailures reports whether any task failed or timed out.
func (s *RunStats) HasFailures() bool {
	return s.Failed > 0 || s.TimedOut > 0
}
