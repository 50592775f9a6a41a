package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.PageDispatched(3)
	m.PageDispatched(2)
	m.KeySelected()
	m.BatchResolved(10*time.Millisecond, nil)
	m.BatchResolved(20*time.Millisecond, errors.New("EOF"))
	m.SetInFlight(4)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.pagesTotal))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.keysScannedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.keysSelectedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fetchFailedTotal))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.batchesInFlight))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration, "redis_idle_scan_fetch_duration_seconds"))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.PageDispatched(7)

	path := filepath.Join(t.TempDir(), "redis_idle_scan.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "redis_idle_scan_keys_scanned_total 7")
	assert.Contains(t, string(data), "redis_idle_scan_last_run_timestamp_seconds")
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// two runs in one process must not collide on registration
	a := New()
	b := New()
	a.KeySelected()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.keysSelectedTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.keysSelectedTotal))
	assert.NotSame(t, a.reg, b.reg)
}
