package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Allocator hands out collision-free output identities inside one output
// directory. Each winning identity is reserved by creating an empty
// placeholder file before Allocate returns, and is remembered for the rest
// of the run even if that file is later removed. All methods are
// goroutine-safe; one Allocator must be shared by every worker of a run.
type Allocator struct {
	mu       sync.Mutex
	dir      string
	ext      string          // with leading dot, e.g. ".mp4"
	claimed  map[string]bool // identity → reserved during this run
	counters map[string]int  // base identity → next suffix to try
}

// NewAllocator creates an allocator for outputDir. ext is the output file
// extension including the dot.
func NewAllocator(outputDir, ext string) *Allocator {
	return &Allocator{
		dir:      outputDir,
		ext:      ext,
		claimed:  make(map[string]bool),
		counters: make(map[string]int),
	}
}

// Allocate derives the identity for name and reserves it. It tries the base
// identity first, then base-2, base-3, ... until a candidate is neither
// reserved earlier in this run nor present on disk. The placeholder is
// created with O_EXCL so a file appearing between the check and the create
// (another process) moves on to the next suffix instead of being clobbered.
func (a *Allocator) Allocate(name string) (identity, outputPath string, err error) {
	base := BaseIdentity(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.counters[base]
	if n == 0 {
		n = 1
	}
	for ; ; n++ {
		candidate := withSuffix(base, n)
		if a.claimed[candidate] {
			continue
		}
		path := a.PathFor(candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", "", fmt.Errorf("reserve %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", "", fmt.Errorf("reserve %s: %w", path, err)
		}
		a.claimed[candidate] = true
		a.counters[base] = n + 1
		return candidate, path, nil
	}
}

// PathFor returns the output path an identity maps to.
func (a *Allocator) PathFor(identity string) string {
	return filepath.Join(a.dir, identity+a.ext)
}

// Reserved returns the number of identities reserved during this run.
func (a *Allocator) Reserved() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.claimed)
}

// withSuffix returns base for n == 1 and base-n otherwise.
func withSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// DerivedFrom reports whether identity is base itself or base followed by a
// numeric disambiguation suffix (-2, -3, ...).
func DerivedFrom(identity, base string) bool {
	if identity == base {
		return true
	}
	rest, ok := strings.CutPrefix(identity, base+"-")
	if !ok || rest == "" {
		return false
	}
	n, err := strconv.Atoi(rest)
	return err == nil && n >= 2 && strconv.Itoa(n) == rest
}
