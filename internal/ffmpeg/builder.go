package ffmpeg

import (
	"strconv"

	"github.com/backmassage/hlsgrab/internal/config"
)

// BuildArgs constructs the ffmpeg argument slice (without the binary) that
// transcodes sourceURL into outputPath. The skeleton is fixed; only codec
// settings and extra input options come from cfg.
//
// The output path is always the last argument and is overwritten (-y): it is
// the empty placeholder reserved by the allocator.
func BuildArgs(cfg *config.Config, sourceURL, outputPath string) []string {
	args := make([]string, 0, 24+len(cfg.InputArgs))

	// --- Preamble ---
	args = append(args, "-hide_banner", "-nostdin")
	if cfg.Verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Input ---
	args = append(args, cfg.InputArgs...)
	args = append(args, "-i", sourceURL)

	// --- Codecs ---
	args = append(args,
		"-c:v", cfg.VideoCodec,
		"-preset", cfg.VideoPreset,
		"-crf", strconv.Itoa(cfg.VideoCRF),
		"-c:a", cfg.AudioCodec,
		"-b:a", cfg.AudioBitrate,
	)

	// --- Container ---
	if cfg.OutputContainer == config.ContainerMP4 {
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, "-y", outputPath)
	return args
}
