package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/spaghettifunk/anima-packer/engine/core"
)

const DefaultExtension = ".meta"

// Store reads and writes sidecar files. It does no locking; every source
// path is owned by exactly one build task.
type Store struct {
	extension string
	attempts  int
	delay     time.Duration
}

// NewStore returns a store for sidecars with the given extension. A sidecar
// that cannot be read or parsed is retried attempts times, delay apart.
func NewStore(extension string, attempts int, delay time.Duration) *Store {
	if extension == "" {
		extension = DefaultExtension
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Store{extension: extension, attempts: attempts, delay: delay}
}

func (s *Store) Extension() string {
	return s.extension
}

// Path returns the sidecar path of source: its extension replaced by the
// store extension.
func (s *Store) Path(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + s.extension
}

// IsSidecar reports whether path names a sidecar file.
func (s *Store) IsSidecar(path string) bool {
	return strings.EqualFold(filepath.Ext(path), s.extension)
}

// Load returns the sidecar record of source. A missing or empty sidecar
// yields an empty record. A sidecar that stays unreadable after all attempts
// is reported as core.ErrCorruptInput.
func (s *Store) Load(source string) (*Record, error) {
	path := s.Path(source)
	rec := &Record{}

	operation := func() error {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			*rec = Record{}
			return nil
		}
		if err != nil {
			return err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			*rec = Record{}
			return nil
		}
		return json.Unmarshal(data, rec)
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.delay), uint64(s.attempts-1))
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: sidecar %s: %v", core.ErrCorruptInput, path, err)
	}
	return rec, nil
}

// Save writes rec next to source as indented JSON. The file is replaced
// atomically.
func (s *Store) Save(source string, rec *Record) error {
	path := s.Path(source)
	payload, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("encode sidecar %s: %w", path, err)
	}
	payload = append(payload, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create sidecar temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write sidecar temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close sidecar temp: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod sidecar temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename sidecar: %w", err)
	}
	return nil
}
