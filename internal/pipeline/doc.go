// Package pipeline schedules playlist tasks through the transcoder and
// aggregates their outcomes.
//
// Files:
//   - task.go: [Task], [Status] and [Outcome].
//   - scheduler.go: [Scheduler], the bounded worker pool. Each task runs the
//     chain exclusion check, ledger lookup, name allocation, supervised
//     transcode, ledger mark while holding one slot.
//   - runner.go: [Run], the batch entry point that wires ledger, allocator
//     and supervisor together and logs header and summary.
//   - stats.go: [RunStats] and [Summarize].
//   - report.go: the optional TOML run report.
package pipeline
