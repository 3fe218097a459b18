package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/media/downloads", "/media/downloads"},
		{"single trailing slash", "/media/downloads/", "/media/downloads"},
		{"multiple trailing slashes", "/media/downloads///", "/media/downloads"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_Container(t *testing.T) {
	tests := []struct {
		name    string
		ctr     Container
		wantErr bool
	}{
		{"mp4 is valid", ContainerMP4, false},
		{"mkv is valid", ContainerMKV, false},
		{"empty is invalid", "", true},
		{"avi is invalid", "avi", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.OutputContainer = tt.ctr
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero workers", func(c *Config) { c.Concurrency = 0 }, true},
		{"negative workers", func(c *Config) { c.Concurrency = -2 }, true},
		{"single worker", func(c *Config) { c.Concurrency = 1 }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"negative grace", func(c *Config) { c.KillGrace = -time.Second }, true},
		{"zero grace", func(c *Config) { c.KillGrace = 0 }, true},
		{"crf too high", func(c *Config) { c.VideoCRF = 52 }, true},
		{"empty video codec", func(c *Config) { c.VideoCodec = " " }, true},
		{"bad bitrate", func(c *Config) { c.AudioBitrate = "loud" }, true},
		{"bad input format", func(c *Config) { c.InputFmt = "xml" }, true},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, true},
		{"empty ledger", func(c *Config) { c.LedgerFile = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.InputFile = "playlist.txt"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NormalizesBitrate(t *testing.T) {
	for _, in := range []string{"128", "128k", "128K", "128kbps", " 128 kbps "} {
		cfg := DefaultConfig()
		cfg.CheckOnly = true
		cfg.AudioBitrate = in
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%q): %v", in, err)
		}
		if cfg.AudioBitrate != "128k" {
			t.Errorf("AudioBitrate(%q) = %q, want 128k", in, cfg.AudioBitrate)
		}
	}
}

func TestValidate_RequiresInput(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail without an input playlist")
	}

	cfg.InputFile = "list.m3u"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_CheckOnlySkipsInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() should pass without input when CheckOnly is true, got: %v", err)
	}
}

func TestExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude = []string{"台", "", "Radio"}

	tests := []struct {
		name string
		want bool
	}{
		{"卫视-湖南台", true},
		{"News-Radio One", true},
		{"News-1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := cfg.Excluded(tt.name); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	empty := DefaultConfig()
	if empty.Excluded("anything") {
		t.Error("no patterns should exclude nothing")
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Concurrency != 3 {
		t.Errorf("default Concurrency = %d, want 3", cfg.Concurrency)
	}
	if cfg.Timeout != 3*time.Hour {
		t.Errorf("default Timeout = %s, want 3h", cfg.Timeout)
	}
	if cfg.OutputContainer != ContainerMP4 {
		t.Errorf("default OutputContainer = %q, want %q", cfg.OutputContainer, ContainerMP4)
	}
	if cfg.Ext() != ".mp4" {
		t.Errorf("default Ext() = %q, want .mp4", cfg.Ext())
	}
	if cfg.LedgerFile != "completed_downloads.txt" {
		t.Errorf("default LedgerFile = %q", cfg.LedgerFile)
	}
	if cfg.VideoCRF != 28 || cfg.AudioBitrate != "128k" {
		t.Errorf("default rate control = crf %d / %s, want 28 / 128k", cfg.VideoCRF, cfg.AudioBitrate)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hlsgrab.toml")
	content := `
concurrency = 5
timeout = "90m"
kill_grace = "3s"
exclude = ["台", "Radio"]
output_dir = "/srv/media/"
video_codec = "hevc_videotoolbox"
container = "mkv"
input_args = ["-user_agent", "hlsgrab"]
color = "never"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", cfg.Concurrency)
	}
	if cfg.Timeout != 90*time.Minute || cfg.KillGrace != 3*time.Second {
		t.Errorf("Timeout/KillGrace = %s/%s", cfg.Timeout, cfg.KillGrace)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[1] != "Radio" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if cfg.OutputDir != "/srv/media" {
		t.Errorf("OutputDir = %q, want trailing slash stripped", cfg.OutputDir)
	}
	if cfg.VideoCodec != "hevc_videotoolbox" || cfg.OutputContainer != ContainerMKV {
		t.Errorf("codec/container = %q/%q", cfg.VideoCodec, cfg.OutputContainer)
	}
	if len(cfg.InputArgs) != 2 {
		t.Errorf("InputArgs = %v", cfg.InputArgs)
	}
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q", cfg.ColorMode)
	}
	// Keys absent from the file keep their defaults.
	if cfg.VideoCRF != 28 || cfg.AudioCodec != "aac" {
		t.Errorf("untouched defaults changed: crf %d, acodec %q", cfg.VideoCRF, cfg.AudioCodec)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "workerz = 4\n"},
		{"bad duration", "timeout = \"forever\"\n"},
		{"bad container", "container = \"avi\"\n"},
		{"not toml", "concurrency = = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg := DefaultConfig()
			if err := LoadFile(path, &cfg); err == nil {
				t.Error("LoadFile should fail")
			}
		})
	}

	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"), &cfg); err == nil {
		t.Error("LoadFile should fail for a missing file")
	}
}
