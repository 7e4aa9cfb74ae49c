package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCanceler struct {
	cutoff time.Time
	limit  int
	n      int
	err    error
}

func (f *fakeCanceler) CancelStalePending(_ context.Context, cutoff time.Time, limit int) (int, error) {
	f.cutoff = cutoff
	f.limit = limit
	return f.n, f.err
}

func TestStaleOrderJobCancelsOlderThanMaxAge(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	orders := &fakeCanceler{n: 3}
	job, err := NewStaleOrderJob(StaleOrderJobParams{Logger: testLogger(), Orders: orders, MaxAge: 48 * time.Hour})
	require.NoError(t, err)
	typed := job.(*staleOrderJob)
	typed.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, orders.cutoff.Equal(now.Add(-48*time.Hour)))
	assert.Equal(t, staleOrderBatchSize, orders.limit)
}

func TestStaleOrderJobReturnsServiceError(t *testing.T) {
	job, err := NewStaleOrderJob(StaleOrderJobParams{Logger: testLogger(), Orders: &fakeCanceler{err: errors.New("db gone")}})
	require.NoError(t, err)
	assert.Equal(t, defaultPendingMaxAge, job.(*staleOrderJob).maxAge)
	assert.Error(t, job.Run(context.Background()))
}

func TestNewStaleOrderJobRequiresOrders(t *testing.T) {
	_, err := NewStaleOrderJob(StaleOrderJobParams{Logger: testLogger()})
	assert.Error(t, err)
}
