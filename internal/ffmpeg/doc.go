// Package ffmpeg builds transcode command lines and supervises the ffmpeg
// child process: wall-clock timeout, kill with a bounded grace period,
// stderr capture, and cleanup of partial output.
//
// Files:
//   - builder.go: [BuildArgs], the fixed argument skeleton for one task.
//   - executor.go: [Supervisor] and [ExecResult]; runs one child per call.
//   - errors.go: sentinel errors and stderr classification ([Diagnose]).
package ffmpeg
