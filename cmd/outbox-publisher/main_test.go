package main

import (
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/db/dbtest"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
)

func TestWirePublisherBuildsFromConfig(t *testing.T) {
	client := dbtest.Open(t, &models.OutboxEvent{})
	logg := logger.New(logger.Options{ServiceName: serviceKind, Output: io.Discard})

	_, err := wirePublisher(&config.Config{}, logg, client, &fakePubSubClient{}, prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build event registry")

	cfg := &config.Config{
		PubSub: config.PubSubConfig{OrdersTopic: "joyeria-order-events"},
		Outbox: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 500, MaxAttempts: 5},
	}
	svc, err := wirePublisher(cfg, logg, client, &fakePubSubClient{}, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 10, svc.batchSize)
}
