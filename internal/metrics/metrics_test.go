// internal/metrics/metrics_test.go
package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGenerated(t *testing.T) {
	before := testutil.ToFloat64(variantsGenerated)
	Generated(4)
	Generated(2)
	if got := testutil.ToFloat64(variantsGenerated) - before; got != 6 {
		t.Errorf("variants counter grew by %v, want 6", got)
	}
}

func TestRejected(t *testing.T) {
	c := rejected.WithLabelValues(ReasonLimitExceeded)
	before := testutil.ToFloat64(c)
	Rejected(ReasonLimitExceeded)
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("rejection counter grew by %v, want 1", got)
	}
}

func TestRegisterDefault_Idempotent(t *testing.T) {
	RegisterDefault(nil)
	RegisterDefault(nil)
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {})

	before := testutil.CollectAndCount(reqDuration)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/2", nil))

	// Both requests share one series.
	if got := testutil.CollectAndCount(reqDuration); got != before+1 {
		t.Errorf("series count = %d, want %d", got, before+1)
	}
}

func TestHTTPMetrics_UnmatchedPathsShareOneSeries(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/known", func(w http.ResponseWriter, r *http.Request) {})

	before := testutil.CollectAndCount(reqDuration)
	for _, p := range []string{"/wp-login.php", "/" + strings.Repeat("x", 300), "/.env"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", p[:min(len(p), 20)], rec.Code)
		}
	}

	if got := testutil.CollectAndCount(reqDuration); got != before+1 {
		t.Errorf("series count = %d, want %d", got, before+1)
	}
	if got := testutil.CollectAndCount(reqDuration.MustCurryWith(prometheus.Labels{"path": UnmatchedRoute})); got != 1 {
		t.Errorf("unmatched series = %d, want 1", got)
	}
}
