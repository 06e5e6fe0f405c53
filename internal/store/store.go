// Package store persists shop records as JSON files under a data root.
//
// Layout:
//
//	<root>/operators/operators.json              array of operators
//	<root>/molds/<mold_name>_<timestamp>.json    one mold per file
//	<root>/jobs/<job_id>.json                    one job per file
//	<root>/calibration/calibration_<ts>.json     one snapshot per file
//
// Writes go through a temp file in the target directory followed by a rename,
// so a reader never sees a half-written record. There is no locking: two
// processes saving the same key race and the last rename wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"rimworks/internal/logging"
	"rimworks/internal/types"
)

// Kind names an entity directory under the data root.
type Kind string

const (
	KindOperators   Kind = "operators"
	KindMolds       Kind = "molds"
	KindJobs        Kind = "jobs"
	KindCalibration Kind = "calibration"
)

const (
	fileExt    = ".json"
	tempPrefix = ".tmp-"
	indent     = "    "
)

// Store maps an entity kind and key to a file.
type Store struct {
	root    string
	schemas schemaSet
	now     func() time.Time
	log     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for mold and calibration timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger overrides the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a store rooted at root. Directories are created on first write.
func New(root string, opts ...Option) (*Store, error) {
	if root == "" {
		root = "data"
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	s := &Store{
		root:    root,
		schemas: schemas,
		now:     time.Now,
		log:     logging.Get(logging.CategoryStore),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the data root directory.
func (s *Store) Root() string { return s.root }

// Dir returns the directory holding records of kind.
func (s *Store) Dir(kind Kind) string { return filepath.Join(s.root, string(kind)) }

// Path returns the file path for key, rejecting keys that could escape the
// kind directory.
func (s *Store) Path(kind Kind, key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir(kind), k+fileExt), nil
}

// sanitizeKey forbids empty keys, path separators and traversal.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q contains '..'", key)
	}
	if strings.ContainsAny(key, `/\`) || filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid key %q contains a path separator", key)
	}
	if strings.HasPrefix(key, tempPrefix) {
		return "", fmt.Errorf("invalid key %q uses the temp prefix", key)
	}
	return key, nil
}

// Record is one raw file loaded from a kind directory.
type Record struct {
	Key  string
	Path string
	Data []byte
}

// LoadAll reads every record of kind in file name order. A missing directory
// yields no records. Unreadable files and files that fail the kind's schema
// are skipped and reported as warnings; only a failure to list the directory
// is returned as an error.
func (s *Store) LoadAll(ctx context.Context, kind Kind) ([]Record, []types.LoadWarning, error) {
	timer := logging.StartTimer(logging.CategoryStore, "load "+string(kind))
	defer timer.StopWithThreshold(500 * time.Millisecond)

	dir := s.Dir(kind)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, &types.PersistenceError{Op: "list", Path: dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		records  []Record
		warnings []types.LoadWarning
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, s.warn(path, err))
			continue
		}
		if err := s.schemas.check(kind, data); err != nil {
			warnings = append(warnings, s.warn(path, err))
			continue
		}
		records = append(records, Record{Key: strings.TrimSuffix(name, fileExt), Path: path, Data: data})
	}
	s.log.Debug("loaded records",
		zap.String("kind", string(kind)),
		zap.Int("records", len(records)),
		zap.Int("warnings", len(warnings)))
	return records, warnings, nil
}

func (s *Store) warn(path string, err error) types.LoadWarning {
	s.log.Warn("skipping record", zap.String("path", path), zap.Error(err))
	return types.LoadWarning{Path: path, Reason: err.Error()}
}

// Read returns the raw bytes of one record. A missing file is reported as a
// PersistenceError wrapping types.ErrNotFound.
func (s *Store) Read(ctx context.Context, kind Kind, key string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	path, err := s.Path(kind, key)
	if err != nil {
		return nil, "", &types.PersistenceError{Op: "read", Path: key, Err: err}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, path, &types.PersistenceError{Op: "read", Path: path, Err: types.ErrNotFound}
	}
	if err != nil {
		return nil, path, &types.PersistenceError{Op: "read", Path: path, Err: err}
	}
	return data, path, nil
}

// Exists reports whether a record with key is present.
func (s *Store) Exists(kind Kind, key string) bool {
	path, err := s.Path(kind, key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save encodes v with four-space indentation and atomically replaces the
// record stored under key.
func (s *Store) Save(ctx context.Context, kind Kind, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := s.save(kind, key, v)
	logging.AuditWrite(string(kind), key, start, err)
	if err != nil {
		s.log.Error("save failed", zap.String("kind", string(kind)), zap.String("key", key), zap.Error(err))
		return err
	}
	s.log.Debug("saved record", zap.String("kind", string(kind)), zap.String("key", key))
	return nil
}

func (s *Store) save(kind Kind, key string, v any) error {
	path, err := s.Path(kind, key)
	if err != nil {
		return &types.PersistenceError{Op: "write", Path: key, Err: err}
	}
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return &types.PersistenceError{Op: "encode", Path: path, Err: err}
	}
	data = append(data, '\n')
	if err := writeAtomic(path, data); err != nil {
		return &types.PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// writeAtomic writes data to a temp file beside path, syncs it and renames it
// into place. The temp file is removed on any failure.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*"+fileExt)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the record stored under key. Deleting a key that does not
// exist returns a PersistenceError wrapping types.ErrNotFound.
func (s *Store) Delete(ctx context.Context, kind Kind, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.remove(kind, key)
	logging.AuditDelete(string(kind), key, err)
	if err != nil {
		return err
	}
	s.log.Info("deleted record", zap.String("kind", string(kind)), zap.String("key", key))
	return nil
}

func (s *Store) remove(kind Kind, key string) error {
	path, err := s.Path(kind, key)
	if err != nil {
		return &types.PersistenceError{Op: "delete", Path: key, Err: err}
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &types.PersistenceError{Op: "delete", Path: path, Err: types.ErrNotFound}
	}
	if err != nil {
		return &types.PersistenceError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// timestamp returns the current time in TimestampLayout.
func (s *Store) timestamp() string {
	return s.now().Format(types.TimestampLayout)
}
