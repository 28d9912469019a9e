// Package runregistry implements the run registry (spec §4.4): the
// process-wide mapping from run id to an in-memory log buffer, guarded by a
// single reader-writer lock. Grounded on the teacher's
// internal/registry/registry.go (RWMutex-guarded slice/map, copy-out reads)
// and internal/infrastructure/logging/event_buffer.go (buffer behind a mutex)
// for the buffer shape itself; a run's buffer here is not bounded.
package runregistry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/forgerun/runnerd/internal/domain/plan"
	streamyerrors "github.com/forgerun/runnerd/pkg/errors"
)

type bufferEntry struct {
	key   plan.RunKey
	lines []string
}

// Registry is the in-process store of run log buffers. At most one entry
// exists per id; equality on RunKey is by id alone (§9), so Read and Archive
// take the bare id and need no Set/PlanName to match.
type Registry struct {
	mu         sync.RWMutex
	highWater  uint32
	entries    map[uint32]*bufferEntry
}

// New creates an empty run registry.
func New() *Registry {
	return &Registry{entries: make(map[uint32]*bufferEntry)}
}

// Allocate assigns a new monotonically increasing run id and an empty log
// buffer keyed by {id, set, plan}. Ids are monotonic for the life of the
// process and are never reused, even after archival — the high-water mark is
// tracked independently of which entries currently exist.
func (r *Registry) Allocate(set, planName string) plan.RunKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.highWater++
	key := plan.RunKey{ID: r.highWater, Set: set, PlanName: planName}
	r.entries[key.ID] = &bufferEntry{key: key}
	return key
}

// Append adds lines to the run's buffer. If the buffer was already archived,
// a fresh entry is re-created with only these lines (§4.4, §9): this
// tolerates the race where archival happens while a run is still emitting.
func (r *Registry) Append(runID uint32, lines []string) {
	if len(lines) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[runID]
	if !ok {
		entry = &bufferEntry{key: plan.RunKey{ID: runID}}
		r.entries[runID] = entry
	}
	entry.lines = append(entry.lines, lines...)
}

// Read clones the current buffer for runID. Lookup matches on id alone.
func (r *Registry) Read(runID uint32) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[runID]
	if !ok {
		return nil, streamyerrors.NewRegistryError(runID, "Id is not found", nil)
	}
	out := make([]string, len(entry.lines))
	copy(out, entry.lines)
	return out, nil
}

// ListIDs snapshots every key currently held by the registry.
func (r *Registry) ListIDs() []plan.RunKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plan.RunKey, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.key)
	}
	return out
}

// Archive writes the run's buffer to "<logDir>/<set>.<plan>(<id>)_<unix
// seconds>.log" (one line per buffer entry) and evicts the entry. The I/O
// happens without holding the lock; the entry is removed only after a
// successful write.
func (r *Registry) Archive(runID uint32, logDir string) error {
	r.mu.Lock()
	entry, ok := r.entries[runID]
	var snapshot bufferEntry
	if ok {
		snapshot = bufferEntry{key: entry.key, lines: append([]string(nil), entry.lines...)}
	}
	r.mu.Unlock()

	if !ok {
		return streamyerrors.NewRegistryError(runID, "Id is not found", nil)
	}

	if err := writeArchiveFile(logDir, snapshot); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.entries, runID)
	r.mu.Unlock()
	return nil
}

// ArchiveAll archives every run currently in the registry. Per-file I/O
// failures are returned for the caller to log; the batch continues, and
// only successfully archived entries are evicted.
func (r *Registry) ArchiveAll(logDir string) (archived []plan.RunKey, failures map[plan.RunKey]error) {
	keys := r.ListIDs()
	failures = make(map[plan.RunKey]error)

	for _, key := range keys {
		if err := r.Archive(key.ID, logDir); err != nil {
			failures[key] = err
			continue
		}
		archived = append(archived, key)
	}
	return archived, failures
}

func writeArchiveFile(logDir string, entry bufferEntry) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("%s.%s(%d)_%d.log", entry.key.Set, entry.key.PlanName, entry.key.ID, time.Now().Unix())
	path := filepath.Join(logDir, name)

	var content string
	for _, line := range entry.lines {
		content += line + "\n"
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}
