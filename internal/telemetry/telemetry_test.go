package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCounters(t *testing.T) {
	m := New("")

	m.FetchSucceeded(200*time.Millisecond, 12, 1, 3)
	m.FetchSucceeded(300*time.Millisecond, 9, 0, 2)
	m.FetchFailed(10 * time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues(ResultFailure)))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.queued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.malformed))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.filtered))
}

func TestSetMode(t *testing.T) {
	m := New("")
	modes := []string{"NIGHT", "FETCHING", "PAGING"}

	m.SetMode("FETCHING", modes)
	m.SetMode("PAGING", modes)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.mode.WithLabelValues("NIGHT")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.mode.WithLabelValues("FETCHING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mode.WithLabelValues("PAGING")))
}

func TestPageRendered(t *testing.T) {
	m := New("")
	m.PageRendered("summary")
	m.PageRendered("flight")
	m.PageRendered("flight")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pages.WithLabelValues("flight")))
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightmatrix.prom")
	m := New(path)
	m.FetchSucceeded(time.Second, 4, 0, 0)

	require.NoError(t, m.WriteTextfile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flightmatrix_flights_queued 4")
	assert.Contains(t, string(data), `flightmatrix_fetches_total{result="success"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.FetchSucceeded(time.Second, 1, 0, 0)
	m.FetchFailed(time.Second)
	m.SetMode("PAGING", nil)
	m.PageRendered("flight")
	assert.NoError(t, m.WriteTextfile())
	assert.Nil(t, m.Registry())

	assert.NoError(t, New("").WriteTextfile())
}
