package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ProductMutation("add", nil)
	m.ProductMutation("add", nil)
	m.ProductMutation("delete", errors.New("boom"))
	m.AuthAttempt("login", nil)
	m.Export(nil)

	require.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("add", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("delete", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.auth.WithLabelValues("login", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("ok")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ProductMutation("add", nil)
	m.AuthAttempt("register", nil)
	m.Export(nil)
	require.NotNil(t, m.Handler())
}
