package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into scheduling, paths, transcoder, display, and utility.
// Flag defaults are taken from cfg at definition time, so values loaded from
// a settings file hold unless the user passes the flag.

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFlags parses args (without the program name) into cfg. When --config
// is given, the settings file is applied first and flags are layered on top.
// On --help or --version it prints and exits. On error it returns non-nil
// (e.g. unknown flag, missing positional arg, unreadable settings file).
func ParseFlags(cfg *Config, args []string, version string) error {
	// Pass 1: only discover --config so the file can seed the defaults that
	// the real flag set is built from.
	if path := scanConfigPath(args); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return err
		}
		cfg.ConfigFile = path
	}

	fs := flag.NewFlagSet("hlsgrab", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { printUsage(version) }

	var n negatedFlags

	defineSchedulingFlags(fs, cfg)
	definePathFlags(fs, cfg)
	defineTranscoderFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &n)
	defineUtilityFlags(fs, cfg, &n)

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			printUsage(version)
			os.Exit(0)
		}
		return err
	}

	applyNegatedFlags(cfg, &n)

	if n.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if n.showVersion {
		fmt.Fprintln(os.Stdout, "hlsgrab v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// scanConfigPath returns the value of --config/-C without running a full
// parse. Both "--config path" and "--config=path" are accepted.
func scanConfigPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if v, ok := strings.CutPrefix(name, "C="); ok {
			return v
		}
		if (name == "config" || name == "C") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// defineSchedulingFlags registers -w/--workers, -t/--timeout, --kill-grace, -x/--exclude.
func defineSchedulingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Concurrency, "workers", cfg.Concurrency, "Number of concurrent ffmpeg processes")
	fs.IntVar(&cfg.Concurrency, "w", cfg.Concurrency, "Same as --workers")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-task wall-clock timeout")
	fs.DurationVar(&cfg.Timeout, "t", cfg.Timeout, "Same as --timeout")
	fs.DurationVar(&cfg.KillGrace, "kill-grace", cfg.KillGrace, "Wait for a killed ffmpeg to exit")
	fs.Var(&stringListValue{&cfg.Exclude}, "exclude", "Skip tasks whose name contains this text (repeatable)")
	fs.Var(&stringListValue{&cfg.Exclude}, "x", "Same as --exclude")
}

// definePathFlags registers -o/--output, --ledger, --format, --report, -C/--config.
func definePathFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Output directory")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "Same as --output")
	fs.StringVar(&cfg.LedgerFile, "ledger", cfg.LedgerFile, "Completion ledger file")
	fs.Var(&inputFormatValue{&cfg.InputFmt}, "format", "Playlist format: auto | csv | m3u")
	fs.StringVar(&cfg.ReportFile, "report", cfg.ReportFile, "Write a TOML run report to this path")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "TOML settings file")
	fs.StringVar(&cfg.ConfigFile, "C", cfg.ConfigFile, "Same as --config")
}

// defineTranscoderFlags registers --ffmpeg, --vcodec, -p/--preset, --crf, --acodec, --abitrate, --container.
func defineTranscoderFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "ffmpeg executable")
	fs.StringVar(&cfg.VideoCodec, "vcodec", cfg.VideoCodec, "Video encoder (e.g. libx265, hevc_videotoolbox)")
	fs.StringVar(&cfg.VideoPreset, "preset", cfg.VideoPreset, "Encoder preset")
	fs.StringVar(&cfg.VideoPreset, "p", cfg.VideoPreset, "Same as --preset")
	fs.IntVar(&cfg.VideoCRF, "crf", cfg.VideoCRF, "Constant rate factor")
	fs.StringVar(&cfg.AudioCodec, "acodec", cfg.AudioCodec, "Audio encoder")
	fs.StringVar(&cfg.AudioBitrate, "abitrate", cfg.AudioBitrate, "Audio bitrate (e.g. 128k)")
	fs.Var(&containerValue{&cfg.OutputContainer}, "container", "Output container: mp4 | mkv")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, _ *Config, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputFile from the single positional arg when not in CheckOnly mode.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	cfg.OutputDir = NormalizeDirArg(cfg.OutputDir)
	if cfg.CheckOnly {
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("need exactly one input playlist (got %d arguments)", len(args))
	}
	cfg.InputFile = args[0]
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "hlsgrab v" + version + " - resumable playlist transcoder"},
		{"", ""},
		{"  hlsgrab [OPTIONS] <playlist>", ""},
		{"", ""},
		{"Scheduling", ""},
		{"  -w, --workers <n>", "Concurrent ffmpeg processes (default: 3)"},
		{"  -t, --timeout <dur>", "Per-task timeout (default: 3h)"},
		{"  --kill-grace <dur>", "Wait for a killed ffmpeg to exit (default: 10s)"},
		{"  -x, --exclude <text>", "Skip names containing text (repeatable)"},
		{"", ""},
		{"Paths", ""},
		{"  -o, --output <dir>", "Output directory (default: downloads)"},
		{"  --ledger <path>", "Completion ledger (default: completed_downloads.txt)"},
		{"  --format <auto|csv|m3u>", "Playlist format (default: auto)"},
		{"  --report <path>", "Write a TOML run report"},
		{"  -C, --config <path>", "TOML settings file (flags override it)"},
		{"", ""},
		{"Transcoder", ""},
		{"  --ffmpeg <path>", "ffmpeg executable (default: ffmpeg)"},
		{"  --vcodec <name>", "Video encoder (default: libx265)"},
		{"  -p, --preset <name>", "Encoder preset (default: medium)"},
		{"  --crf <n>", "Constant rate factor (default: 28)"},
		{"  --acodec <name>", "Audio encoder (default: aac)"},
		{"  --abitrate <rate>", "Audio bitrate (default: 128k)"},
		{"  --container <mp4|mkv>", "Output container (default: mp4)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output (ffmpeg log level info)"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, encoders, paths)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types (Container, InputFormat,
// ColorMode) and repeatable string flags with flag.Var.

type containerValue struct{ p *Container }

func (c *containerValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}
func (c *containerValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "mp4":
		*c.p = ContainerMP4
	case "mkv":
		*c.p = ContainerMKV
	default:
		return fmt.Errorf("invalid container %q (use 'mp4' or 'mkv')", s)
	}
	return nil
}

type inputFormatValue struct{ p *InputFormat }

func (f *inputFormatValue) String() string {
	if f.p == nil {
		return ""
	}
	return string(*f.p)
}
func (f *inputFormatValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*f.p = InputAuto
	case "csv":
		*f.p = InputCSV
	case "m3u", "m3u8":
		*f.p = InputM3U
	default:
		return fmt.Errorf("invalid input format %q (use 'auto', 'csv' or 'm3u')", s)
	}
	return nil
}

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}
func (c *colorModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*c.p = ColorAuto
	case "always":
		*c.p = ColorAlways
	case "never":
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}

type stringListValue struct{ p *[]string }

func (l *stringListValue) String() string {
	if l.p == nil {
		return ""
	}
	return strings.Join(*l.p, ",")
}
func (l *stringListValue) Set(s string) error {
	*l.p = append(*l.p, s)
	return nil
}
