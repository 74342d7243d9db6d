package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("test")

	m.CartMutation("add")
	m.CartMutation("add")
	m.CartMutation("remove")
	m.QuoteSubmitted()
	m.QuoteStatusChanged("QUOTED")
	m.Notification("sms", "sent")
	m.ObserveRequest(http.MethodGet, "/api/v1/quotes/:id", http.StatusOK, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cartMutations.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartMutations.WithLabelValues("remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotesSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quoteStatusChanges.WithLabelValues("QUOTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("sms", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/quotes/:id", "200")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CartMutation("add")
		m.QuoteSubmitted()
		m.QuoteStatusChanged("NEW")
		m.Notification("ws", "sent")
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New("bizmarket")
	m.QuoteSubmitted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bizmarket_quotes_submitted_total 1")
}
