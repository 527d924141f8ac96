package pack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/spaghettifunk/anima-packer/engine/codec"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

var ErrLocked = errors.New("pack output is locked by another build")

// Writer concatenates encoded records behind a pack header.
type Writer struct {
	records [][]byte
	size    int
}

func NewWriter() *Writer {
	return &Writer{}
}

// Add appends one encoded record. Records are written in the order added.
func (w *Writer) Add(record []byte) {
	w.records = append(w.records, record)
	w.size += len(record)
}

func (w *Writer) Count() int {
	return len(w.records)
}

// Bytes returns the complete pack.
func (w *Writer) Bytes() []byte {
	out := codec.NewWriter(len(resources.PackMagic) + 8 + w.size)
	out.Raw([]byte(resources.PackMagic))
	out.U32(resources.PackVersion)
	out.U32(uint32(len(w.records)))
	for _, rec := range w.records {
		out.Raw(rec)
	}
	return out.Bytes()
}

// WriteFile stores the pack at path through a temporary file in the same
// directory.
func (w *Writer) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure pack dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create pack temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(w.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write pack temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close pack temp: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod pack temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename pack: %w", err)
	}
	return nil
}

// Lock is the exclusive build lock of one output path.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file guarding output.
func LockPath(output string) string {
	return output + ".lock"
}

// AcquireLock takes the build lock of output without waiting. ErrLocked is
// returned when another build holds it.
func AcquireLock(output string) (*Lock, error) {
	path := LockPath(output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}
	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return l, nil
}

func (l *Lock) Path() string {
	return l.path
}

func (l *Lock) Release() error {
	return l.lock.Unlock()
}
