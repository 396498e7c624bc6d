package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"cinematch/internal/fileutil"
)

const lockRetryDelay = 50 * time.Millisecond

// Format identifies a dataset artifact encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// DetectFormat maps a path extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unsupported dataset extension %q (want .json, .db or .sqlite)", filepath.Ext(path))
	}
}

// Load reads the dataset at path. SQLite artifacts are read under a shared
// lock so a concurrent Import is never observed half-written.
func Load(ctx context.Context, path string) (*Dataset, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	switch format {
	case FormatJSON:
		return loadJSON(path)
	default:
		return loadSQLite(ctx, path)
	}
}

func loadSQLite(ctx context.Context, path string) (*Dataset, error) {
	lock := flock.New(lockPath(path))
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	switch {
	case err != nil && lockFileUnwritable(err):
		// Import cannot run beside a read-only artifact either.
	case err != nil:
		return nil, fmt.Errorf("acquire dataset read lock: %w", err)
	case !locked:
		return nil, errors.New("dataset is locked by another process")
	default:
		defer func() { _ = lock.Unlock() }()
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ds, err := readDataset(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	ds.source = path
	return ds, nil
}

// Import converts the dataset at src into a SQLite database at dst. The
// database is built beside dst and renamed into place while an exclusive
// lock is held, replacing any previous import.
func Import(ctx context.Context, src, dst string) (*Dataset, error) {
	if format, err := DetectFormat(dst); err != nil {
		return nil, err
	} else if format != FormatSQLite {
		return nil, fmt.Errorf("import destination must be a SQLite file, got %q", dst)
	}
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil, errors.New("import source and destination must differ")
	}

	ds, err := Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load import source: %w", err)
	}
	sum, _, err := fileutil.SHA256File(src)
	if err != nil {
		return nil, fmt.Errorf("checksum import source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create dataset directory: %w", err)
	}
	lock := flock.New(lockPath(dst))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire dataset write lock: %w", err)
	}
	if !locked {
		return nil, errors.New("dataset is locked by another process")
	}
	defer func() { _ = lock.Unlock() }()

	tmpPath := dst + ".tmp"
	_ = os.Remove(tmpPath)
	db, err := openDB(tmpPath)
	if err != nil {
		return nil, err
	}
	writeErr := writeDataset(ctx, db, ds, src, sum)
	closeErr := db.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmpPath)
		if writeErr != nil {
			return nil, writeErr
		}
		return nil, fmt.Errorf("close dataset database: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("install dataset database: %w", err)
	}
	ds.source = dst
	return ds, nil
}

// lockFileUnwritable reports whether err means the lock file could not be
// created because the dataset directory is not writable.
func lockFileUnwritable(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, unix.EROFS)
}

func lockPath(path string) string {
	return path + ".lock"
}
