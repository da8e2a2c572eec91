package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveStore("memory", "write", time.Millisecond, nil)
	m.ObserveStore("memory", "write", time.Millisecond, errors.New("boom"))
	m.IncMutation("transactions", "create", nil)
	m.AddStoreBytes("memory", "read", 42)
	m.IncEvent(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("memory", "write", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("memory", "write", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("transactions", "create", "ok")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.storeBytes.WithLabelValues("memory", "read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsHandled.WithLabelValues("ok")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP("/", http.MethodGet, 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `alugueis_http_requests_total{code="200",method="GET",route="/"} 1`))
}
