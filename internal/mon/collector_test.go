package mon

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector()))

	NewThunk("collector_test").Start().Stop()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	require.True(t, names["seqio_bytes_read_total"])
	require.True(t, names["seqio_operations_total"])
	require.True(t, names["seqio_operations_in_flight"])
	require.True(t, names["seqio_operation_average_seconds"])
}

func TestCollector_BytesRead(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector()))

	before := BytesRead()
	AddBytesRead(100)
	AddBytesRead(0)
	AddBytesRead(-5)
	require.Equal(t, before+100, BytesRead())

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "seqio_bytes_read_total" {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		require.Equal(t, float64(BytesRead()), mf.GetMetric()[0].GetCounter().GetValue())
	}

	require.Equal(t, 1, testutil.CollectAndCount(NewCollector(), "seqio_bytes_read_total"))
}
