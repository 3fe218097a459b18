package config

// This file implements the optional TOML settings file (--config). Keys that
// are present in the file overlay the defaults; command-line flags are parsed
// afterwards and win over both.

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the subset of Config that may be set from a file.
// Durations are strings ("90m", "3h") parsed with time.ParseDuration.
type fileConfig struct {
	InputFormat  string   `toml:"input_format"`
	OutputDir    string   `toml:"output_dir"`
	Ledger       string   `toml:"ledger"`
	Report       string   `toml:"report"`
	Concurrency  int      `toml:"concurrency"`
	Timeout      string   `toml:"timeout"`
	KillGrace    string   `toml:"kill_grace"`
	Exclude      []string `toml:"exclude"`
	FFmpeg       string   `toml:"ffmpeg"`
	VideoCodec   string   `toml:"video_codec"`
	Preset       string   `toml:"preset"`
	CRF          int      `toml:"crf"`
	AudioCodec   string   `toml:"audio_codec"`
	AudioBitrate string   `toml:"audio_bitrate"`
	Container    string   `toml:"container"`
	InputArgs    []string `toml:"input_args"`
	Verbose      bool     `toml:"verbose"`
	Color        string   `toml:"color"`
	Log          string   `toml:"log"`
}

// LoadFile decodes the TOML settings file at path and applies every key it
// defines to cfg. Unknown keys are an error so typos do not go unnoticed.
func LoadFile(path string, cfg *Config) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	def := md.IsDefined
	if def("input_format") {
		if err := (&inputFormatValue{&cfg.InputFmt}).Set(fc.InputFormat); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}
	if def("output_dir") {
		cfg.OutputDir = NormalizeDirArg(fc.OutputDir)
	}
	if def("ledger") {
		cfg.LedgerFile = fc.Ledger
	}
	if def("report") {
		cfg.ReportFile = fc.Report
	}
	if def("concurrency") {
		cfg.Concurrency = fc.Concurrency
	}
	if def("timeout") {
		d, err := parseDuration(fc.Timeout, "timeout")
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Timeout = d
	}
	if def("kill_grace") {
		d, err := parseDuration(fc.KillGrace, "kill_grace")
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		cfg.KillGrace = d
	}
	if def("exclude") {
		cfg.Exclude = append([]string(nil), fc.Exclude...)
	}
	if def("ffmpeg") {
		cfg.FFmpegPath = fc.FFmpeg
	}
	if def("video_codec") {
		cfg.VideoCodec = fc.VideoCodec
	}
	if def("preset") {
		cfg.VideoPreset = fc.Preset
	}
	if def("crf") {
		cfg.VideoCRF = fc.CRF
	}
	if def("audio_codec") {
		cfg.AudioCodec = fc.AudioCodec
	}
	if def("audio_bitrate") {
		cfg.AudioBitrate = fc.AudioBitrate
	}
	if def("container") {
		if err := (&containerValue{&cfg.OutputContainer}).Set(fc.Container); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}
	if def("input_args") {
		cfg.InputArgs = append([]string(nil), fc.InputArgs...)
	}
	if def("verbose") {
		cfg.Verbose = fc.Verbose
	}
	if def("color") {
		if err := (&colorModeValue{&cfg.ColorMode}).Set(fc.Color); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}
	if def("log") {
		cfg.LogFile = fc.Log
	}
	return nil
}

func parseDuration(s, name string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 90m or 3h (got %q)", name, s)
	}
	return d, nil
}
