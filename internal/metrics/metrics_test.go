package metrics_test

import (
	"errors"
	"testing"

	"github.com/jrsteele09/campaign-tracker/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)

	r.Request("GET", 200)
	r.Request("GET", 204)
	r.Request("GET", 401)
	r.Request("POST", 0)
	r.Refresh(metrics.RefreshSucceeded)
	r.RefreshWaiter()
	r.RefreshWaiter()
	r.AuthOperation("login", nil)
	r.AuthOperation("login", errors.New("boom"))

	require.Equal(t, 2.0, testutil.ToFloat64(r.Requests.WithLabelValues("GET", "2xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.Requests.WithLabelValues("GET", "4xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.Requests.WithLabelValues("POST", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.Refreshes.WithLabelValues(metrics.RefreshSucceeded)))
	require.Equal(t, 2.0, testutil.ToFloat64(r.RefreshWaiters))
	require.Equal(t, 1.0, testutil.ToFloat64(r.AuthOperations.WithLabelValues("login", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.AuthOperations.WithLabelValues("login", "error")))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 7, count)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *metrics.Recorder
	require.NotPanics(t, func() {
		r.Request("GET", 200)
		r.Refresh(metrics.RefreshFailed)
		r.RefreshWaiter()
		r.AuthOperation("logout", nil)
	})
}
