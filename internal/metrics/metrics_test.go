package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("POST", "/v1/oauth/token", 200, 15*time.Millisecond)
	m.ObserveRequest("POST", "/v1/oauth/token", 404, time.Millisecond)
	m.ObserveSession("login", "succeeded")
	m.IncrementCodesIssued()
	m.ObserveExchange("expired")
	m.AddDeleted("authorization_codes", 3)
	m.ObserveDetect(80 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/v1/oauth/token", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CaptureSessions.WithLabelValues("login", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CodesIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenExchanges.WithLabelValues("expired")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.HousekeepingDeleted.WithLabelValues("authorization_codes")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
