// Package ledger implements the completion ledger: an append-only text file
// with one "identity:source_url" record per line, used to skip work that an
// earlier run already finished.
//
// The file is read once by [Ledger.Load]; afterwards lookups are served from
// memory and [Ledger.Mark] appends to both. A single mutex owned by the
// Ledger serializes access, so one value can be shared by every worker.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/backmassage/hlsgrab/internal/naming"
)

// Logger is the minimal logging interface the ledger needs for warnings
// about malformed records.
type Logger interface {
	Warn(string, ...interface{})
}

// Record is one completed (identity, source URL) pair.
type Record struct {
	Identity  string
	SourceURL string
}

// String renders the on-disk line form (without newline).
func (r Record) String() string {
	return r.Identity + ":" + r.SourceURL
}

// ParseRecord parses one ledger line. The identity is everything before the
// first colon; allocated identities never contain one, while URLs do.
func ParseRecord(line string) (Record, error) {
	line = strings.TrimSpace(line)
	identity, url, ok := strings.Cut(line, ":")
	if !ok {
		return Record{}, errors.New("missing ':' separator")
	}
	if !naming.ValidIdentity(identity) {
		return Record{}, fmt.Errorf("invalid identity %q", identity)
	}
	if strings.TrimSpace(url) == "" {
		return Record{}, errors.New("empty source URL")
	}
	return Record{Identity: identity, SourceURL: url}, nil
}

// maxLineLen caps a single ledger line; longer lines are skipped on load.
const maxLineLen = 64 * 1024

// Retry policy for appends. Short, because a worker slot is held meanwhile.
const (
	markRetries         = 3
	markInitialInterval = 50 * time.Millisecond
	markMaxInterval     = 500 * time.Millisecond
)

// Ledger is the durable set of completed (identity, source URL) pairs.
type Ledger struct {
	mu    sync.Mutex
	path  string
	log   Logger
	file  *os.File                       // append handle, opened on first Mark
	byURL map[string]map[string]struct{} // source URL → identities
	count int
}

// New returns an empty ledger backed by path. Call Load to read prior runs.
func New(path string, log Logger) *Ledger {
	return &Ledger{
		path:  path,
		log:   log,
		byURL: make(map[string]map[string]struct{}),
	}
}

// Path returns the backing file path.
func (l *Ledger) Path() string { return l.path }

// Load reads the backing file. A missing file is an empty ledger. Malformed
// lines are logged and skipped. On a read error the records read so far are
// kept and the error is returned; the ledger remains usable.
func (l *Ledger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open ledger %s: %w", l.path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, maxLineLen)
	lineNo := 0
	for {
		line, tooLong, readErr := readLine(r)
		if len(line) > 0 || tooLong {
			lineNo++
			l.loadLine(lineNo, string(line), tooLong)
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read ledger %s: %w", l.path, readErr)
		}
	}
}

// loadLine indexes one ledger line, warning about and skipping bad ones.
// Caller holds mu.
func (l *Ledger) loadLine(lineNo int, line string, tooLong bool) {
	var err error
	if tooLong {
		err = fmt.Errorf("line longer than %d bytes", maxLineLen)
	} else {
		text := strings.TrimSpace(line)
		if text == "" {
			return
		}
		var rec Record
		if rec, err = ParseRecord(text); err == nil {
			l.add(rec)
			return
		}
	}
	if l.log != nil {
		l.log.Warn("Ledger %s:%d ignored (%v)", l.path, lineNo, err)
	}
}

// readLine returns the next line including its newline. A line that does not
// fit in r's buffer is consumed and reported as tooLong with a nil line.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			tooLong = true
			continue
		}
		if tooLong {
			return nil, true, err
		}
		return chunk, false, err
	}
}

// Contains reports whether the exact (identity, url) pair is recorded.
func (l *Ledger) Contains(identity, url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.byURL[url][identity]
	return ok
}

// Lookup finds a record for url whose identity is base or base with a
// numeric disambiguation suffix, i.e. any identity the allocator could have
// assigned to a task with this base name. It is what lets the completion
// check run before allocation. When several match, the shortest (lowest
// suffix) is returned.
func (l *Ledger) Lookup(base, url string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	best := ""
	for id := range l.byURL[url] {
		if !naming.DerivedFrom(id, base) {
			continue
		}
		if best == "" || len(id) < len(best) || (len(id) == len(best) && id < best) {
			best = id
		}
	}
	return best, best != ""
}

// Mark durably appends the (identity, url) record. The line is written with
// a single write on an O_APPEND handle and synced before Mark returns.
// Transient failures are retried with exponential backoff. Marking a pair
// that is already present is a no-op.
func (l *Ledger) Mark(identity, url string) error {
	rec := Record{Identity: identity, SourceURL: url}
	if !naming.ValidIdentity(identity) || strings.TrimSpace(url) == "" || strings.ContainsAny(url, "\r\n") ||
		len(rec.String()) >= maxLineLen {
		return fmt.Errorf("refusing malformed ledger record %q", rec.String())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byURL[url][identity]; ok {
		return nil
	}

	line := []byte(rec.String() + "\n")
	op := func() error {
		out := line
		if l.file == nil {
			if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
			if err != nil {
				return err
			}
			// A prior run may have died mid-line; start on a fresh one.
			if unterminated(f) {
				out = append([]byte("\n"), line...)
			}
			l.file = f
		}
		if _, err := l.file.Write(out); err != nil {
			// Reopen on the next attempt in case the handle went bad.
			_ = l.file.Close()
			l.file = nil
			return err
		}
		return l.file.Sync()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = markInitialInterval
	b.MaxInterval = markMaxInterval
	if err := backoff.Retry(op, backoff.WithMaxRetries(b, markRetries)); err != nil {
		return fmt.Errorf("append ledger %s: %w", l.path, err)
	}
	l.add(rec)
	return nil
}

// Len returns the number of distinct records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Close releases the append handle.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// unterminated reports whether f is non-empty and does not end in '\n'.
func unterminated(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil || fi.Size() == 0 {
		return false
	}
	var last [1]byte
	if _, err := f.ReadAt(last[:], fi.Size()-1); err != nil {
		return false
	}
	return last[0] != '\n'
}

// add inserts rec into the in-memory index. Caller holds mu.
func (l *Ledger) add(rec Record) {
	ids, ok := l.byURL[rec.SourceURL]
	if !ok {
		ids = make(map[string]struct{})
		l.byURL[rec.SourceURL] = ids
	}
	if _, dup := ids[rec.Identity]; dup {
		return
	}
	ids[rec.Identity] = struct{}{}
	l.count++
}
