package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsExportsOutcomesAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.Observe("stale-orders", 250*time.Millisecond, nil)
	m.Observe("stale-orders", 10*time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	success, err := counterValue(mfs, "joyeria_cron_job_runs_total", map[string]string{"job": "stale-orders", "outcome": "success"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, success)

	failure, err := counterValue(mfs, "joyeria_cron_job_runs_total", map[string]string{"job": "stale-orders", "outcome": "failure"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, failure)

	mf := findMetricFamily(mfs, "joyeria_cron_job_duration_seconds")
	require.NotNil(t, mf)
	assert.Equal(t, uint64(2), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestStockMetricsCountsUnitsOnlyWhenCommitted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStockMetrics(reg)
	m.ObserveReservation(ReservationCommitted, time.Millisecond, 5)
	m.ObserveReservation(ReservationInsufficient, time.Millisecond, 3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	committed, err := counterValue(mfs, "joyeria_stock_reservations_total", map[string]string{"outcome": ReservationCommitted})
	require.NoError(t, err)
	assert.Equal(t, 1.0, committed)

	units := findMetricFamily(mfs, "joyeria_stock_units_decremented_total")
	require.NotNil(t, units)
	assert.Equal(t, 5.0, units.GetMetric()[0].GetCounter().GetValue())
}

func TestHTTPAndOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := NewHTTPMetrics(reg)
	outboxMetrics := NewOutboxMetrics(reg)

	httpMetrics.Observe("GET", "/api/v1/products", 200, time.Millisecond)
	httpMetrics.Observe("GET", "", 404, time.Millisecond)
	outboxMetrics.IncPublished("order_created")
	outboxMetrics.IncFailed("")
	outboxMetrics.SetBatchSize(4)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	v, err := counterValue(mfs, "joyeria_http_requests_total", map[string]string{"route": "unknown", "status": "404"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = counterValue(mfs, "joyeria_outbox_publish_failures_total", map[string]string{"event_type": "unknown"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestNilRegistererIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCronJobMetrics(nil).Observe("job", time.Second, nil)
		NewStockMetrics(nil).ObserveReservation(ReservationCommitted, time.Second, 1)
		NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
		NewOutboxMetrics(nil).IncPublished("x")
		var m *StockMetrics
		m.ObserveReservation(ReservationError, 0, 0)
	})
}

func counterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
