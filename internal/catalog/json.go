package catalog

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"cinematch/internal/fileutil"
)

// document is the on-disk JSON layout of a dataset artifact.
type document struct {
	Movies     []Movie     `json:"movies"`
	Similarity [][]float64 `json:"similarity"`
}

// DecodeJSON reads a dataset document from r.
func DecodeJSON(r io.Reader) (*Dataset, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode dataset json: %w", err)
	}
	return NewDataset(doc.Movies, doc.Similarity)
}

// ErrNonFiniteScore reports a NaN or infinite similarity score, which JSON
// cannot represent. Such datasets only exist as SQLite artifacts.
var ErrNonFiniteScore = errors.New("similarity score is not finite")

// EncodeJSON writes d as a dataset document. Datasets holding NaN or
// infinite scores are rejected with ErrNonFiniteScore before anything is
// written.
func EncodeJSON(w io.Writer, d *Dataset) error {
	for i, row := range d.matrix {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: similarity[%d][%d] = %v", ErrNonFiniteScore, i, j, v)
			}
		}
	}
	doc := document{Movies: d.movies, Similarity: d.matrix}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode dataset json: %w", err)
	}
	return nil
}

func loadJSON(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	ds, err := DecodeJSON(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	ds.source = path
	return ds, nil
}

// WriteJSONFile writes d to path through a temporary file and rename. On
// error the previous file at path, if any, is left in place.
func WriteJSONFile(path string, d *Dataset) error {
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return EncodeJSON(w, d)
	}); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}
