package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(OutcomeNotFound))
	RecordRecommendation(OutcomeNotFound)
	after := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(OutcomeNotFound))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordPosterLookupSkipsZeroDuration(t *testing.T) {
	before := testutil.CollectAndCount(PosterLookupDuration)
	RecordPosterLookup(PosterBreakerOpen, 0)
	RecordPosterLookup(PosterResolved, 25*time.Millisecond)
	if got := testutil.CollectAndCount(PosterLookupDuration); got != before {
		t.Fatalf("histogram series count changed: %d -> %d", before, got)
	}
	if got := testutil.ToFloat64(PosterLookupsTotal.WithLabelValues(PosterBreakerOpen)); got < 1 {
		t.Fatalf("expected breaker_open outcome to be counted, got %v", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/health", http.StatusOK, time.Millisecond)
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/health", "200")); got < 1 {
		t.Fatalf("expected request to be counted, got %v", got)
	}
}

func TestRecordGauges(t *testing.T) {
	RecordDatasetSize(4803)
	if got := testutil.ToFloat64(DatasetMovies); got != 4803 {
		t.Fatalf("unexpected dataset gauge %v", got)
	}
	RecordBreakerState(2)
	if got := testutil.ToFloat64(PosterBreakerState); got != 2 {
		t.Fatalf("unexpected breaker gauge %v", got)
	}
}
