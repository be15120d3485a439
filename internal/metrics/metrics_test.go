package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTP_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTP)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/items/{id}", "202"))

	for _, path := range []string{"/items/1", "/items/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, baseOK+2, testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/items/{id}", "202")))
}

func TestEventCounters(t *testing.T) {
	base := testutil.ToFloat64(Events.WithLabelValues("send-message", OutcomeOK))
	Events.WithLabelValues("send-message", OutcomeOK).Inc()
	assert.Equal(t, base+1, testutil.ToFloat64(Events.WithLabelValues("send-message", OutcomeOK)))
}
