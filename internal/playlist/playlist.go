// Package playlist reads the task list handed to the scheduler. Two layouts
// are understood: plain "name,url" lines and extended M3U, where each
// #EXTINF line names the URL line that follows it.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/backmassage/hlsgrab/internal/config"
)

// Fallbacks for M3U entries whose #EXTINF line lacks a group or a title.
const (
	DefaultGroup = "uncategorized"
	DefaultTitle = "untitled"
)

// Entry is one (name, source URL) pair in file order.
type Entry struct {
	Name string
	URL  string
}

// List is the result of reading a playlist.
type List struct {
	Entries []Entry
	Format  config.InputFormat // format actually used (never InputAuto)
	Skipped int                // lines that looked like entries but were unusable
}

var groupTitleRe = regexp.MustCompile(`group-title="([^"]*)"`)

// Load opens path and reads it with [Read].
func Load(path string, format config.InputFormat) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer f.Close()

	list, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("read playlist %s: %w", path, err)
	}
	return list, nil
}

// Read parses r in the given format. InputAuto sniffs the content first.
func Read(r io.Reader, format config.InputFormat) (*List, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if format == config.InputAuto {
		format = sniff(lines)
	}

	list := &List{Format: format}
	switch format {
	case config.InputCSV:
		parseCSV(lines, list)
	case config.InputM3U:
		parseM3U(lines, list)
	default:
		return nil, fmt.Errorf("unknown playlist format %q", format)
	}
	return list, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		lines[0] = strings.TrimPrefix(lines[0], "\ufeff")
	}
	return lines, nil
}

// sniff picks M3U when the first non-blank line is the #EXTM3U header or
// any line is an #EXTINF directive.
func sniff(lines []string) config.InputFormat {
	first := true
	for _, line := range lines {
		if line == "" {
			continue
		}
		if first && strings.HasPrefix(line, "#EXTM3U") {
			return config.InputM3U
		}
		first = false
		if strings.HasPrefix(line, "#EXTINF") {
			return config.InputM3U
		}
	}
	return config.InputCSV
}

func parseCSV(lines []string, list *List) {
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, url, ok := strings.Cut(line, ",")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if !ok || url == "" {
			list.Skipped++
			continue
		}
		list.Entries = append(list.Entries, Entry{Name: name, URL: url})
	}
}

func parseM3U(lines []string, list *List) {
	pending := ""
	for _, line := range lines {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#EXTINF"):
			if pending != "" {
				list.Skipped++ // title without a URL
			}
			pending = extinfName(line)
		case strings.HasPrefix(line, "#"):
			continue
		case isHTTP(line):
			if pending == "" {
				list.Skipped++ // URL without a title
				continue
			}
			list.Entries = append(list.Entries, Entry{Name: pending, URL: line})
			pending = ""
		default:
			list.Skipped++
		}
	}
	if pending != "" {
		list.Skipped++
	}
}

// extinfName builds "group-title" from an #EXTINF line. The title is the
// text after the first comma outside double quotes.
func extinfName(line string) string {
	group := DefaultGroup
	if m := groupTitleRe.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
		group = strings.TrimSpace(m[1])
	}

	title := ""
	if i := commaOutsideQuotes(line); i >= 0 {
		title = strings.TrimSpace(line[i+1:])
	}
	if title == "" {
		title = DefaultTitle
	}
	return group + "-" + title
}

func commaOutsideQuotes(s string) int {
	inQuote := false
	for i, r := range s {
		switch r {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

func isHTTP(line string) bool {
	l := strings.ToLower(line)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
