package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current dataset database version. Rebuild the
// database with `cinematch catalog import` after bumping it.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	return db, nil
}

func writeDataset(ctx context.Context, db *sql.DB, d *Dataset, sourcePath, sourceSHA256 string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	movieStmt, err := tx.PrepareContext(ctx, "INSERT INTO movies (idx, title, movie_id) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare movie insert: %w", err)
	}
	defer movieStmt.Close()
	rowStmt, err := tx.PrepareContext(ctx, "INSERT INTO similarity (row_idx, scores) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare similarity insert: %w", err)
	}
	defer rowStmt.Close()

	for i, m := range d.movies {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := movieStmt.ExecContext(ctx, i, m.Title, m.MovieID); err != nil {
			return fmt.Errorf("insert movie %d: %w", i, err)
		}
		if _, err := rowStmt.ExecContext(ctx, i, encodeRow(d.matrix[i])); err != nil {
			return fmt.Errorf("insert similarity row %d: %w", i, err)
		}
	}

	meta := map[string]string{
		"source":        sourcePath,
		"source_sha256": sourceSHA256,
		"imported_at":   time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO dataset_meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("record %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func readDataset(ctx context.Context, db *sql.DB) (*Dataset, error) {
	var tableExists int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists); err != nil {
		return nil, fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return nil, fmt.Errorf("%w: database has no schema_version table", ErrSchemaMismatch)
	}
	var version int
	if err := db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return nil, fmt.Errorf("%w: database has version %d, expected %d (re-run 'cinematch catalog import')",
			ErrSchemaMismatch, version, schemaVersion)
	}

	movies, err := readMovies(ctx, db)
	if err != nil {
		return nil, err
	}
	matrix, err := readMatrix(ctx, db, len(movies))
	if err != nil {
		return nil, err
	}
	ds, err := NewDataset(movies, matrix)
	if err != nil {
		return nil, err
	}
	if ds.meta, err = readMeta(ctx, db); err != nil {
		return nil, err
	}
	return ds, nil
}

func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM dataset_meta")
	if err != nil {
		return nil, fmt.Errorf("query dataset meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan dataset meta: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset meta: %w", err)
	}
	return meta, nil
}

func readMovies(ctx context.Context, db *sql.DB) ([]Movie, error) {
	rows, err := db.QueryContext(ctx, "SELECT idx, title, movie_id FROM movies ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		var (
			idx int
			m   Movie
		)
		if err := rows.Scan(&idx, &m.Title, &m.MovieID); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		if idx != len(movies) {
			return nil, fmt.Errorf("movies table has gap at index %d", len(movies))
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

func readMatrix(ctx context.Context, db *sql.DB, n int) ([][]float64, error) {
	rows, err := db.QueryContext(ctx, "SELECT row_idx, scores FROM similarity ORDER BY row_idx")
	if err != nil {
		return nil, fmt.Errorf("query similarity: %w", err)
	}
	defer rows.Close()

	matrix := make([][]float64, 0, n)
	for rows.Next() {
		var (
			idx  int
			blob []byte
		)
		if err := rows.Scan(&idx, &blob); err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		if idx != len(matrix) {
			return nil, fmt.Errorf("similarity table has gap at row %d", len(matrix))
		}
		row, err := decodeRow(blob)
		if err != nil {
			return nil, fmt.Errorf("similarity row %d: %w", idx, err)
		}
		matrix = append(matrix, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity: %w", err)
	}
	return matrix, nil
}

func encodeRow(row []float64) []byte {
	buf := make([]byte, 8*len(row))
	for i, v := range row {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeRow(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("scores blob length %d is not a multiple of 8", len(blob))
	}
	row := make([]float64, len(blob)/8)
	for i := range row {
		row[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return row, nil
}
