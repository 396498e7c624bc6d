package testsupport

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// TMDBStub is an httptest server answering GET /movie/{id}.
type TMDBStub struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits returns how many movie detail requests the stub served.
func (s *TMDBStub) Hits() int64 {
	return s.hits.Load()
}

// NewTMDBStub serves poster paths from posters. Ids mapped to "" answer with
// a null poster_path; ids absent from the map answer 404.
func NewTMDBStub(t testing.TB, posters map[int64]string) *TMDBStub {
	t.Helper()
	stub := &TMDBStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.hits.Add(1)
		rawID, ok := strings.CutPrefix(r.URL.Path, "/movie/")
		id, err := strconv.ParseInt(rawID, 10, 64)
		if !ok || err != nil {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		poster, found := posters[id]
		if !found {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if poster == "" {
			fmt.Fprintf(w, `{"id":%d,"poster_path":null}`, id)
			return
		}
		fmt.Fprintf(w, `{"id":%d,"poster_path":%q}`, id, poster)
	}))
	t.Cleanup(stub.Close)
	return stub
}
