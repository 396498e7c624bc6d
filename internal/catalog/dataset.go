package catalog

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch indicates the similarity matrix is not N x N for a catalog of N movies.
	ErrDimensionMismatch = errors.New("similarity matrix dimension mismatch")
	// ErrEmptyCatalog indicates a dataset without movies.
	ErrEmptyCatalog = errors.New("catalog is empty")
)

// Movie is one catalog entry. Title is the lookup key and may repeat.
type Movie struct {
	Title   string `json:"title"`
	MovieID int64  `json:"movie_id"`
}

// Dataset is the immutable catalog plus similarity matrix. Matrix position i
// always refers to catalog position i.
type Dataset struct {
	movies []Movie
	matrix [][]float64
	source string
	meta   map[string]string
}

// NewDataset validates and copies movies and matrix into a Dataset.
func NewDataset(movies []Movie, matrix [][]float64) (*Dataset, error) {
	n := len(movies)
	if n == 0 {
		return nil, ErrEmptyCatalog
	}
	if len(matrix) != n {
		return nil, fmt.Errorf("%w: %d movies but %d matrix rows", ErrDimensionMismatch, n, len(matrix))
	}

	ds := &Dataset{
		movies: append([]Movie(nil), movies...),
		matrix: make([][]float64, n),
	}
	// One backing array keeps large matrices contiguous.
	backing := make([]float64, n*n)
	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), n)
		}
		dst := backing[i*n : (i+1)*n : (i+1)*n]
		copy(dst, row)
		ds.matrix[i] = dst
	}
	return ds, nil
}

// Len returns the number of catalog entries.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.movies)
}

// Source returns the path the dataset was loaded from, if any.
func (d *Dataset) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// Meta returns the import metadata recorded in a SQLite artifact, such as
// the source path and its SHA-256. JSON artifacts carry none.
func (d *Dataset) Meta() map[string]string {
	if d == nil || len(d.meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(d.meta))
	for k, v := range d.meta {
		out[k] = v
	}
	return out
}

// Movie returns the entry at position i. It panics when i is out of range.
func (d *Dataset) Movie(i int) Movie {
	return d.movies[i]
}

// Movies returns a copy of the catalog in order.
func (d *Dataset) Movies() []Movie {
	return append([]Movie(nil), d.movies...)
}

// Titles returns the catalog titles in order, duplicates included.
func (d *Dataset) Titles() []string {
	titles := make([]string, len(d.movies))
	for i, m := range d.movies {
		titles[i] = m.Title
	}
	return titles
}

// Row returns a copy of the similarity scores of entry i against every entry.
func (d *Dataset) Row(i int) []float64 {
	return append([]float64(nil), d.matrix[i]...)
}

// Score returns the similarity of entry i to entry j.
func (d *Dataset) Score(i, j int) float64 {
	return d.matrix[i][j]
}

// IndicesOf returns every catalog position whose title equals title exactly.
func (d *Dataset) IndicesOf(title string) []int {
	var out []int
	for i, m := range d.movies {
		if m.Title == title {
			out = append(out, i)
		}
	}
	return out
}

// DuplicateTitles returns titles that appear more than once, in first-seen order.
func (d *Dataset) DuplicateTitles() []string {
	counts := make(map[string]int, len(d.movies))
	var order []string
	for _, m := range d.movies {
		counts[m.Title]++
		if counts[m.Title] == 2 {
			order = append(order, m.Title)
		}
	}
	return order
}

// NonFiniteScores counts NaN and infinite matrix cells.
func (d *Dataset) NonFiniteScores() int {
	count := 0
	for _, row := range d.matrix {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				count++
			}
		}
	}
	return count
}
