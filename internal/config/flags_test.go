package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFlags_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, []string{"playlist.txt"}, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.InputFile != "playlist.txt" {
		t.Errorf("InputFile = %q", cfg.InputFile)
	}
	if cfg.Concurrency != 3 || cfg.Timeout != 3*time.Hour {
		t.Errorf("defaults changed: workers %d, timeout %s", cfg.Concurrency, cfg.Timeout)
	}
}

func TestParseFlags_Overrides(t *testing.T) {
	cfg := DefaultConfig()
	args := []string{
		"-w", "8",
		"--timeout", "45m",
		"-x", "台", "--exclude", "Radio",
		"-o", "out/",
		"--ledger", "done.txt",
		"--format", "m3u",
		"--container", "mkv",
		"--crf", "23",
		"--no-color",
		"-v",
		"list.m3u",
	}
	if err := ParseFlags(&cfg, args, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Concurrency)
	}
	if cfg.Timeout != 45*time.Minute {
		t.Errorf("Timeout = %s, want 45m", cfg.Timeout)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[0] != "台" || cfg.Exclude[1] != "Radio" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("OutputDir = %q, want out", cfg.OutputDir)
	}
	if cfg.LedgerFile != "done.txt" || cfg.InputFmt != InputM3U {
		t.Errorf("ledger/format = %q/%q", cfg.LedgerFile, cfg.InputFmt)
	}
	if cfg.OutputContainer != ContainerMKV || cfg.VideoCRF != 23 {
		t.Errorf("container/crf = %q/%d", cfg.OutputContainer, cfg.VideoCRF)
	}
	if cfg.ColorMode != ColorNever || !cfg.Verbose {
		t.Errorf("color/verbose = %q/%v", cfg.ColorMode, cfg.Verbose)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no playlist", nil},
		{"two playlists", []string{"a.txt", "b.txt"}},
		{"unknown flag", []string{"--bogus", "a.txt"}},
		{"bad container", []string{"--container", "avi", "a.txt"}},
		{"bad duration", []string{"--timeout", "soon", "a.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ParseFlags(&cfg, tt.args, "test"); err == nil {
				t.Error("ParseFlags should fail")
			}
		})
	}
}

func TestParseFlags_CheckOnlyNeedsNoPlaylist(t *testing.T) {
	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, []string{"--check"}, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if !cfg.CheckOnly {
		t.Error("CheckOnly should be set")
	}
}

func TestParseFlags_ConfigFilePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	content := "concurrency = 6\ncrf = 20\nledger = \"from-file.txt\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"separate value", []string{"--config", path, "-w", "2", "list.txt"}},
		{"equals form", []string{"--config=" + path, "-w", "2", "list.txt"}},
		{"short alias", []string{"-C", path, "-w", "2", "list.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ParseFlags(&cfg, tt.args, "test"); err != nil {
				t.Fatalf("ParseFlags: %v", err)
			}
			if cfg.Concurrency != 2 {
				t.Errorf("Concurrency = %d, want flag value 2", cfg.Concurrency)
			}
			if cfg.VideoCRF != 20 || cfg.LedgerFile != "from-file.txt" {
				t.Errorf("file values lost: crf %d, ledger %q", cfg.VideoCRF, cfg.LedgerFile)
			}
			if cfg.ConfigFile != path {
				t.Errorf("ConfigFile = %q", cfg.ConfigFile)
			}
		})
	}
}

func TestScanConfigPath(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"list.txt"}, ""},
		{[]string{"--config", "a.toml"}, "a.toml"},
		{[]string{"-config=b.toml"}, "b.toml"},
		{[]string{"-C", "c.toml", "x"}, "c.toml"},
		{[]string{"--", "--config", "d.toml"}, ""},
		{[]string{"--config"}, ""},
	}
	for _, tt := range tests {
		if got := scanConfigPath(tt.args); got != tt.want {
			t.Errorf("scanConfigPath(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
