package testsupport

import (
	"strconv"
	"testing"

	"cinematch/internal/catalog"
)

// MustDataset builds a dataset or fails the test.
func MustDataset(t testing.TB, movies []catalog.Movie, matrix [][]float64) *catalog.Dataset {
	t.Helper()
	ds, err := catalog.NewDataset(movies, matrix)
	if err != nil {
		t.Fatalf("catalog.NewDataset: %v", err)
	}
	return ds
}

// DecreasingDataset returns n movies titled "Movie 0".."Movie n-1" with
// movie ids 1000+i, where every row scores strictly decreasing by column.
func DecreasingDataset(t testing.TB, n int) *catalog.Dataset {
	t.Helper()
	movies := make([]catalog.Movie, n)
	matrix := make([][]float64, n)
	for i := range n {
		movies[i] = catalog.Movie{Title: movieTitle(i), MovieID: int64(1000 + i)}
		row := make([]float64, n)
		for j := range n {
			row[j] = float64(n - j)
		}
		matrix[i] = row
	}
	return MustDataset(t, movies, matrix)
}

// WriteDatasetJSON writes ds as a JSON artifact at path.
func WriteDatasetJSON(t testing.TB, path string, ds *catalog.Dataset) {
	t.Helper()
	if err := catalog.WriteJSONFile(path, ds); err != nil {
		t.Fatalf("catalog.WriteJSONFile: %v", err)
	}
}

func movieTitle(i int) string {
	return "Movie " + strconv.Itoa(i)
}
