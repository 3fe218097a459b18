package ffmpeg

import (
	"errors"
	"regexp"
	"strings"
)

// Sentinel errors wrapped by [ExecResult.Err]. Classify with errors.Is.
var (
	// ErrLaunchFailed means the child never started (missing binary,
	// permission denied). Nothing was written.
	ErrLaunchFailed = errors.New("ffmpeg could not be started")

	// ErrToolFailed means the child ran and exited non-zero.
	ErrToolFailed = errors.New("ffmpeg exited with an error")

	// ErrTimedOut means the wall-clock timeout expired and the child was killed.
	ErrTimedOut = errors.New("ffmpeg timed out")
)

// Pre-compiled regexes for classifying ffmpeg stderr into short labels.
// Checked in order by [Diagnose]; the first match wins.
var diagnoses = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`Server returned 404|HTTP error 404`), "stream not found (HTTP 404)"},
	{regexp.MustCompile(`Server returned 403|HTTP error 403`), "access denied (HTTP 403)"},
	{regexp.MustCompile(`Server returned 5\d\d|HTTP error 5\d\d`), "server error (HTTP 5xx)"},
	{regexp.MustCompile(`Server returned 4\d\d|HTTP error 4\d\d`), "client error (HTTP 4xx)"},
	{regexp.MustCompile(`(?i)Connection refused|Connection timed out|Network is unreachable|` +
		`Failed to resolve hostname|Name or service not known`), "source unreachable"},
	{regexp.MustCompile(`(?i)Connection reset by peer|End of file|I/O error`), "stream interrupted"},
	{regexp.MustCompile(`Invalid data found when processing input`), "invalid stream data"},
	{regexp.MustCompile(`Unknown encoder|Encoder not found|Error while opening encoder`), "encoder unavailable"},
	{regexp.MustCompile(`No space left on device`), "disk full"},
}

// Diagnose maps captured stderr to a short failure label, or "" when no
// known pattern matches.
func Diagnose(stderr string) string {
	for _, d := range diagnoses {
		if d.re.MatchString(stderr) {
			return d.label
		}
	}
	return ""
}

// Excerpt returns the last maxLines non-blank lines of stderr, joined by
// newlines. maxLines <= 0 returns "".
func Excerpt(stderr string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(stderr, "\n") {
		if line = strings.TrimRight(line, "\r "); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
