// Package file wraps the endpoint registry with JSON snapshot
// persistence. Mutations schedule a debounced save; the write path
// keeps a `file` / `file.backup` / `file.tmp` invariant so that a crash
// at any moment leaves at least one parseable snapshot on disk.
package file

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/logging"
	"github.com/mockbird/mockbird/pkg/store"
)

// SnapshotVersion is written into every snapshot for forward
// migration.
const SnapshotVersion = "1.0"

// DefaultPath is the snapshot location relative to the working
// directory.
const DefaultPath = "data/endpoints.json"

// Snapshot is the persisted registry state.
type Snapshot struct {
	Version   string               `json:"version"`
	SavedAt   time.Time            `json:"savedAt"`
	Count     int                  `json:"count"`
	Endpoints []*endpoint.Endpoint `json:"endpoints"`
}

// Store is a persistent endpoint registry. It embeds the in-memory
// registry for all data operations and snapshots it to disk after
// mutations, coalescing bursts through a debounce window.
type Store struct {
	*store.Registry

	path         string
	saveDebounce time.Duration
	log          *slog.Logger

	dirty     atomic.Bool
	saving    atomic.Bool
	saveCh    chan struct{}
	closeCh   chan struct{}
	closedCh  chan struct{}
	closeOnce sync.Once
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDebounce overrides the save debounce window, mainly for tests.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.saveDebounce = d }
}

// New creates a Store persisting to path (DefaultPath when empty) and
// starts the save goroutine. Call Open to load existing data, Close to
// flush and stop.
func New(path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{
		Registry:     store.NewRegistry(),
		path:         path,
		saveDebounce: 500 * time.Millisecond,
		log:          logging.Nop(),
		saveCh:       make(chan struct{}, 1),
		closeCh:      make(chan struct{}),
		closedCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.saveLoop()
	return s
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// BackupPath returns the sibling backup file location.
func (s *Store) BackupPath() string { return s.path + ".backup" }

func (s *Store) tmpPath() string { return s.path + ".tmp" }

// Open loads the snapshot from disk and wires mutation tracking.
// A missing file starts empty; an unparseable file falls back to the
// backup, then to empty. Load failures never abort startup.
func (s *Store) Open() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	if eps, ok := s.loadFile(s.path); ok {
		s.Registry.Replace(eps)
	} else if eps, ok := s.loadFile(s.BackupPath()); ok {
		s.log.Warn("snapshot unreadable, loaded backup", "path", s.path)
		s.Registry.Replace(eps)
	}

	s.dirty.Store(false)
	s.Registry.OnChange(s.markDirty)
	return nil
}

// loadFile reads and parses one snapshot file. A missing file is a
// silent miss; a corrupt one is logged.
func (s *Store) loadFile(path string) ([]*endpoint.Endpoint, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("failed to read snapshot", "path", path, "error", err)
		}
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("failed to parse snapshot", "path", path, "error", err)
		return nil, false
	}
	return snap.Endpoints, true
}

// Close flushes any pending snapshot and stops the save goroutine.
// Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
	<-s.closedCh
	return nil
}

// ForceSave writes a snapshot immediately, bypassing the debounce.
func (s *Store) ForceSave() error {
	s.dirty.Store(true)
	return s.doSave()
}

// markDirty schedules a debounced save after a mutation.
func (s *Store) markDirty() {
	s.dirty.Store(true)
	select {
	case s.saveCh <- struct{}{}:
	default:
		// Save already pending.
	}
}

// saveLoop coalesces mutation bursts into one write per debounce
// window and performs the final flush on close.
func (s *Store) saveLoop() {
	defer close(s.closedCh)

	var timer *time.Timer
	for {
		select {
		case <-s.saveCh:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.saveDebounce, func() {
				if !s.dirty.Load() {
					return
				}
				if s.saving.Load() {
					// A write is mid-flight; queue another window for
					// the data it missed.
					s.markDirty()
					return
				}
				if err := s.doSave(); err != nil {
					s.log.Error("failed to save endpoint snapshot", "error", err)
				}
			})
		case <-s.closeCh:
			if timer != nil {
				timer.Stop()
			}
			// A mutation can commit while the flush is writing, so
			// repeat until the store is clean.
			for s.dirty.Load() {
				if err := s.doSave(); err != nil {
					s.log.Error("failed to save endpoint snapshot on close", "error", err)
					break
				}
			}
			return
		}
	}
}

// doSave writes the snapshot: serialise to `.tmp`, preserve the
// current file as `.backup`, rename `.tmp` into place.
func (s *Store) doSave() error {
	if !s.saving.CompareAndSwap(false, true) {
		return nil
	}
	defer s.saving.Store(false)

	// Clear before snapshotting: a mutation that commits while the
	// write is in flight then re-marks the store and gets its own
	// follow-up flush, instead of a trailing clear swallowing it.
	s.dirty.Store(false)

	eps := s.Registry.List()
	snap := Snapshot{
		Version:   SnapshotVersion,
		SavedAt:   time.Now().UTC(),
		Count:     len(eps),
		Endpoints: eps,
	}

	if err := s.writeSnapshot(snap); err != nil {
		s.dirty.Store(true)
		return err
	}
	return nil
}

func (s *Store) writeSnapshot(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.tmpPath(), data, 0600); err != nil {
		return err
	}

	// Keep the previous snapshot reachable while the rename lands.
	if prev, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.BackupPath(), prev, 0600); err != nil {
			s.log.Warn("failed to write snapshot backup", "error", err)
		}
	}

	if err := os.Rename(s.tmpPath(), s.path); err != nil {
		_ = os.Remove(s.tmpPath())
		return err
	}
	return nil
}
