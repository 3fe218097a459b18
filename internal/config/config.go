// Package config holds runtime configuration: defaults, CLI flag parsing, an
// optional TOML settings file, and validation. Defaults: 3 workers, a 3 hour
// per-task timeout, HEVC/AAC at CRF 28 into MP4.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --- Enum types for validated string fields ---

// Container is the output container format. It doubles as the output file
// extension.
type Container string

const (
	ContainerMP4 Container = "mp4" // MP4 (default).
	ContainerMKV Container = "mkv" // Matroska.
)

// InputFormat selects how the playlist file is read.
type InputFormat string

const (
	InputAuto InputFormat = "auto" // Sniff: M3U when #EXTM3U/#EXTINF is present, otherwise CSV.
	InputCSV  InputFormat = "csv"  // One "name,url" per line.
	InputM3U  InputFormat = "m3u"  // #EXTINF title lines followed by URL lines.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by a TOML file, and then by [ParseFlags] before being
// passed (by pointer) to packages that need it.
type Config struct {
	// Paths.
	InputFile  string      // Positional: playlist to process.
	InputFmt   InputFormat // Default: "auto".
	OutputDir  string      // Default: "downloads".
	LedgerFile string      // Default: "completed_downloads.txt".
	ReportFile string      // Optional TOML run report.
	ConfigFile string      // Optional TOML settings file.

	// Scheduling.
	Concurrency int           // Default: 3 parallel ffmpeg processes.
	Timeout     time.Duration // Default: 3h per task, wall clock.
	KillGrace   time.Duration // Default: 10s for a killed child to release its pipes.
	Exclude     []string      // Name substrings that skip a task before any work.

	// Transcoder.
	FFmpegPath      string    // Default: "ffmpeg" (resolved on PATH).
	VideoCodec      string    // Default: "libx265".
	VideoPreset     string    // Default: "medium".
	VideoCRF        int       // Default: 28.
	AudioCodec      string    // Default: "aac".
	AudioBitrate    string    // Default: "128k".
	OutputContainer Container // Default: "mp4".
	InputArgs       []string  // Extra ffmpeg options placed before -i (settings file only).

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// the settings file and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		InputFmt:        InputAuto,
		OutputDir:       "downloads",
		LedgerFile:      "completed_downloads.txt",
		Concurrency:     3,
		Timeout:         3 * time.Hour,
		KillGrace:       10 * time.Second,
		FFmpegPath:      "ffmpeg",
		VideoCodec:      "libx265",
		VideoPreset:     "medium",
		VideoCRF:        28,
		AudioCodec:      "aac",
		AudioBitrate:    "128k",
		OutputContainer: ContainerMP4,
		ColorMode:       ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and numeric ranges. When not in CheckOnly mode
// it also requires an input playlist.
func (c *Config) Validate() error {
	switch c.OutputContainer {
	case ContainerMP4, ContainerMKV:
		// valid
	default:
		return errors.New("invalid container (use 'mp4' or 'mkv')")
	}

	switch c.InputFmt {
	case InputAuto, InputCSV, InputM3U:
		// valid
	default:
		return errors.New("invalid input format (use 'auto', 'csv' or 'm3u')")
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1 (got %d)", c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	if c.KillGrace <= 0 {
		return fmt.Errorf("kill grace must be positive (got %s)", c.KillGrace)
	}
	if c.VideoCRF < 0 || c.VideoCRF > 51 {
		return fmt.Errorf("crf must be between 0 and 51 (got %d)", c.VideoCRF)
	}
	if strings.TrimSpace(c.VideoCodec) == "" || strings.TrimSpace(c.AudioCodec) == "" {
		return errors.New("video and audio codecs must not be empty")
	}
	normalizedBitrate, err := normalizeAudioBitrate(c.AudioBitrate)
	if err != nil {
		return err
	}
	c.AudioBitrate = normalizedBitrate

	if c.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	if c.LedgerFile == "" {
		return errors.New("ledger file must not be empty")
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputFile == "" {
		return errors.New("need exactly one input playlist")
	}
	return nil
}

// Excluded reports whether name contains any configured exclusion substring.
// Empty patterns never match.
func (c *Config) Excluded(name string) bool {
	for _, p := range c.Exclude {
		if p != "" && strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Ext returns the output file extension (with leading dot).
func (c *Config) Ext() string {
	return "." + string(c.OutputContainer)
}

// normalizeAudioBitrate validates and canonicalizes user bitrate input.
// Accepted forms: "128", "128k", "128K", "128kbps". Output is "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("audio bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid audio bitrate %q (use positive Kbps value, e.g. 128k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}
