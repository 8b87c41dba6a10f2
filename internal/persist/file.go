package persist

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/moirai-app/moirai/internal/store"
)

// Gateway is the full persistence surface a backend provides. The store
// itself only writes (store.Snapshotter); the application additionally
// restores the previous snapshot once at startup.
type Gateway interface {
	Save(state store.State) error
	Load() (store.State, bool, error)
}

var (
	_ Gateway = (*File)(nil)
	_ Gateway = (*SQLite)(nil)
	_ Gateway = Noop{}
)

// File persists snapshots as a single JSON file, written atomically via a
// temp file and rename so a crash mid-write never corrupts the snapshot.
type File struct {
	path string
	log  *slog.Logger
}

// NewFile creates a file-backed snapshotter. The parent directory is
// created on demand at first Save.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &File{
		path: path,
		log:  logger.With("component", "persist", "backend", "file"),
	}
}

// Save writes the aggregate to disk, replacing any previous snapshot.
func (f *File) Save(state store.State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp snapshot file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	f.log.Debug("Snapshot written", "path", f.path, "bytes", len(data))
	return nil
}

// Load restores the aggregate. The second result is false when no snapshot
// exists yet, which is not an error.
func (f *File) Load() (store.State, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.log.Info("No snapshot found, starting fresh", "path", f.path)
		return store.State{}, false, nil
	}
	if err != nil {
		return store.State{}, false, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	st, err := Decode(data)
	if err != nil {
		return store.State{}, false, err
	}
	f.log.Info("Snapshot restored", "path", f.path, "messages", len(st.Messages))
	return st, true, nil
}

// Noop discards every write and never restores anything. It backs contexts
// where durable storage is unavailable or disabled: the app degrades to
// in-memory-only operation instead of failing.
type Noop struct{}

// Save discards the snapshot.
func (Noop) Save(store.State) error { return nil }

// Load reports that no snapshot exists.
func (Noop) Load() (store.State, bool, error) { return store.State{}, false, nil }

func parseDayKey(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}
