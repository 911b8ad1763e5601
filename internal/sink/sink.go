// Package sink persists call records to an append-only, size-bounded
// JSONL log. Appends are fire-and-forget: an I/O failure costs one
// record, never the call that produced it.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-claude-spend/internal/core/model"
	"github.com/penwyp/go-claude-spend/internal/util"
)

// maxLogSize is the rotation threshold for the active log.
const maxLogSize = 50 * 1024 * 1024

// OldSuffix names the single rotation slot next to the active log.
const OldSuffix = ".old"

// Sink appends one record per line to path, rotating the file aside
// once it exceeds the size threshold. Safe for concurrent use; each
// append is a single write so lines never interleave.
type Sink struct {
	path    string
	maxSize int64
	mu      sync.Mutex
}

// New creates a sink writing to path with the default 50MiB threshold.
func New(path string) *Sink {
	return &Sink{path: path, maxSize: maxLogSize}
}

// NewWithMaxSize creates a sink with a custom rotation threshold.
func NewWithMaxSize(path string, maxSize int64) *Sink {
	return &Sink{path: path, maxSize: maxSize}
}

// Path returns the active log path.
func (s *Sink) Path() string {
	return s.path
}

// Append writes one record. All failures are swallowed after a debug
// log; the observation path must never see an error from here.
func (s *Sink) Append(rec model.CallRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := sonic.Marshal(rec)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to marshal call record: %v", err))
		return
	}

	s.rotateIfNeeded()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		util.LogDebug(fmt.Sprintf("Failed to create record log directory: %v", err))
		return
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to open record log: %v", err))
		return
	}
	defer f.Close()

	// Single write keeps the append atomic at line granularity.
	if _, err := f.Write(append(line, '\n')); err != nil {
		util.LogDebug(fmt.Sprintf("Failed to append call record: %v", err))
	}
}

// rotateIfNeeded renames the active log aside once it outgrows the
// threshold. One rotation slot only; a previous .old is overwritten.
func (s *Sink) rotateIfNeeded() {
	info, err := os.Stat(s.path)
	if err != nil || info.Size() <= s.maxSize {
		return
	}
	if err := os.Rename(s.path, s.path+OldSuffix); err != nil {
		util.LogDebug(fmt.Sprintf("Failed to rotate record log: %v", err))
	}
}
