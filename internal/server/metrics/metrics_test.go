package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(ledgerOperations.WithLabelValues("observe", "ok"))
	RecordOperation("observe", "", time.Millisecond)
	after := testutil.ToFloat64(ledgerOperations.WithLabelValues("observe", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordSweep(t *testing.T) {
	before := testutil.ToFloat64(sweepRecords.WithLabelValues("failed"))
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	RecordSweep(3, 1, 2, time.Second, at)

	assert.Equal(t, before+2, testutil.ToFloat64(sweepRecords.WithLabelValues("failed")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(lastSweep))
}

func TestInstrumentHandler_UsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/users/{uid}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/users/{uid}", "404"))
	for _, uid := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/"+uid, nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/users/{uid}", "404")))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	StoreWriteConflicts.Add(0)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "minerledger_store_write_conflicts_total"))
}
