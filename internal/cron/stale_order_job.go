package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/lunaplata/joyeria-backend/pkg/logger"
)

const (
	defaultPendingMaxAge = 72 * time.Hour
	staleOrderBatchSize  = 200
)

type StaleOrderJobParams struct {
	Logger *logger.Logger
	Orders staleOrderCanceler
	MaxAge time.Duration
}

type staleOrderCanceler interface {
	CancelStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// NewStaleOrderJob cancels orders left in pending_payment or
// pending_whatsapp longer than MaxAge.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultPendingMaxAge
	}
	return &staleOrderJob{
		logg:   params.Logger,
		orders: params.Orders,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type staleOrderJob struct {
	logg   *logger.Logger
	orders staleOrderCanceler
	maxAge time.Duration
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-pending-orders" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	canceled, err := j.orders.CancelStalePending(ctx, cutoff, staleOrderBatchSize)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":   cutoff,
		"canceled": canceled,
	})
	if err != nil {
		return fmt.Errorf("cancel stale orders: %w", err)
	}
	if canceled > 0 {
		j.logg.Info(logCtx, "stale pending orders canceled")
	}
	return nil
}
