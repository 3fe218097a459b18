// Package check provides system diagnostics (--check mode) and the
// pre-run dependency validation (CheckDeps): ffmpeg must be runnable and
// must list the configured video and audio encoders.
package check

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/backmassage/hlsgrab/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFFmpegNotFound      = errors.New("ffmpeg not found")
	ErrEncoderListFailed   = errors.New("ffmpeg -encoders failed")
	ErrVideoEncoderMissing = errors.New("video encoder not available in this ffmpeg build")
	ErrAudioEncoderMissing = errors.New("audio encoder not available in this ffmpeg build")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// CheckDeps verifies that the configured ffmpeg binary resolves and that
// its encoder list contains cfg.VideoCodec and cfg.AudioCodec.
func CheckDeps(cfg *config.Config) error {
	bin, err := exec.LookPath(cfg.FFmpegPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, cfg.FFmpegPath)
	}
	encoders, err := listEncoders(bin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoderListFailed, err)
	}
	if !encoders[cfg.VideoCodec] {
		return fmt.Errorf("%w: %s", ErrVideoEncoderMissing, cfg.VideoCodec)
	}
	if !encoders[cfg.AudioCodec] {
		return fmt.Errorf("%w: %s", ErrAudioEncoderMissing, cfg.AudioCodec)
	}
	return nil
}

// RunCheck runs the --check flow: ffmpeg version, encoder availability,
// and writability of the output directory and ledger. It logs every result
// and returns false if anything a run needs is missing.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := true
	bin, err := exec.LookPath(cfg.FFmpegPath)
	if err != nil {
		log.Error("ffmpeg not found: %s", cfg.FFmpegPath)
		ok = false
	} else {
		checkVersion(bin, log)
		if !checkEncoders(cfg, bin, log) {
			ok = false
		}
	}

	if err := checkWritableDir(cfg.OutputDir); err != nil {
		log.Error("Output directory %s not writable: %v", cfg.OutputDir, err)
		ok = false
	} else {
		log.Success("Output directory: %s", cfg.OutputDir)
	}

	if err := checkWritableFile(cfg.LedgerFile); err != nil {
		log.Error("Ledger %s not writable: %v", cfg.LedgerFile, err)
		ok = false
	} else {
		log.Success("Ledger: %s", cfg.LedgerFile)
	}
	return ok
}

// checkVersion logs the first line of `ffmpeg -version`.
func checkVersion(bin string, log Logger) {
	out, err := exec.Command(bin, "-version").Output()
	if err != nil {
		log.Warn("ffmpeg found but -version failed: %v", err)
		return
	}
	firstLine, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	log.Success("ffmpeg: %s", firstLine)
}

func checkEncoders(cfg *config.Config, bin string, log Logger) bool {
	encoders, err := listEncoders(bin)
	if err != nil {
		log.Error("Could not list encoders: %v", err)
		return false
	}
	ok := true
	for _, want := range []struct{ kind, name string }{
		{"Video", cfg.VideoCodec},
		{"Audio", cfg.AudioCodec},
	} {
		if encoders[want.name] {
			log.Success("%s encoder: %s", want.kind, want.name)
		} else {
			log.Error("%s encoder %s not available", want.kind, want.name)
			ok = false
		}
	}
	return ok
}

// listEncoders runs `ffmpeg -hide_banner -encoders` and returns the set of
// encoder names it reports.
func listEncoders(bin string) (map[string]bool, error) {
	out, err := exec.Command(bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, err
	}
	return parseEncoders(out), nil
}

// parseEncoders extracts names from the encoder table. Rows look like
// " V....D libx265   libx265 H.265 / HEVC"; everything up to the
// " ------" separator is legend.
func parseEncoders(out []byte) map[string]bool {
	names := make(map[string]bool)
	inTable := false
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if !inTable {
			inTable = strings.HasPrefix(fields[0], "---")
			continue
		}
		if len(fields) >= 2 && len(fields[0]) == 6 {
			names[fields[1]] = true
		}
	}
	return names
}

// checkWritableDir creates dir if needed and tests it with a temp file.
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".hlsgrab-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// checkWritableFile opens path for appending. A file created by the check
// is removed again.
func checkWritableFile(path string) error {
	_, statErr := os.Stat(path)
	existed := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return statErr
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if !existed {
		return os.Remove(path)
	}
	return nil
}
