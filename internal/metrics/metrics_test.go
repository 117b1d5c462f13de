package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { MustRegister(reg) })
	assert.Panics(t, func() { MustRegister(reg) }, "double registration must panic")
}

func TestObserveRefresh(t *testing.T) {
	before := testutil.ToFloat64(RefreshesTotal.WithLabelValues("success"))

	ObserveRefresh("success", 1500*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(RefreshesTotal.WithLabelValues("success")))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(RefreshDuration), 1)
}
