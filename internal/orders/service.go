package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/internal/media"
	"github.com/lunaplata/joyeria-backend/internal/orders/reservation"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
	"github.com/lunaplata/joyeria-backend/pkg/metrics"
	"github.com/lunaplata/joyeria-backend/pkg/outbox"
	"github.com/lunaplata/joyeria-backend/pkg/outbox/payloads"
	"github.com/lunaplata/joyeria-backend/pkg/pagination"
)

const staleCancelReason = "payment window expired"

// Service exposes customer and admin order operations.
type Service interface {
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]OrderDTO, error)
	GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, query ListQuery) (*OrderPage, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actor Actor) (*OrderDTO, error)
	UploadProof(ctx context.Context, customerID, orderID uuid.UUID, file media.File) (*OrderDTO, error)
	CancelStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outbox.Emitter
	Proofs  proofStore
	Metrics stockObserver
	Logger  *logger.Logger

	// LowStockThreshold is the remaining stock at or below which a committed
	// verification emits product_stock_low. Zero reports only drained products.
	LowStockThreshold int
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	proofs  proofStore
	metrics stockObserver
	logg    *logger.Logger
	now     func() time.Time

	lowStock int
}

// NewService wires the order service. Proofs may be nil when uploads are
// disabled; Metrics may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.LowStockThreshold < 0 {
		return nil, fmt.Errorf("low stock threshold must not be negative")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		proofs:  params.Proofs,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     func() time.Time { return time.Now().UTC() },

		lowStock: params.LowStockThreshold,
	}, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.List(ctx, ListFilters{CustomerID: &customerID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return FromModels(rows), nil
}

// GetForCustomer hides orders owned by someone else behind NOT_FOUND.
func (s *service) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, orderID)
	}
	if order.CustomerID != customerID {
		return nil, notFound(orderID)
	}
	return FromModel(order), nil
}

// List pages through every order newest first. One extra row is fetched to
// know whether a next page exists.
func (s *service) List(ctx context.Context, query ListQuery) (*OrderPage, error) {
	if query.Status != nil && !query.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	after, err := pagination.ParseCursor(query.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(query.Page.Limit)
	rows, err := s.repo.List(ctx, ListFilters{
		Status: query.Status,
		Limit:  pagination.LimitWithBuffer(limit),
		After:  after,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	rows, next := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &OrderPage{Orders: FromModels(rows), NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, orderID)
	}
	return FromModel(order), nil
}

// UpdateStatus moves an order to target. Moving an order whose stock was
// never committed to payment_verified runs the reservation: every product
// line is decremented together with the status change, or nothing changes.
// Every other transition is a plain status write.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actor Actor) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
	}

	var (
		result     *models.Order
		from       enums.OrderStatus
		decrements []reservation.Decrement
		attempted  bool
	)
	start := time.Now()
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		result, decrements, attempted = nil, nil, false

		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr(err, orderID)
		}
		from = order.Status
		if order.Status == target {
			result = order
			return nil
		}

		now := s.now()
		updates := map[string]any{"status": target}
		if target == enums.OrderStatusPaymentVerified && order.StockCommittedAt == nil {
			attempted = true
			decrements, err = reservation.Reserve(ctx, tx, reservation.LinesFromItems(order.Items))
			if err != nil {
				return err
			}
			updates["stock_committed_at"] = now
			order.StockCommittedAt = &now
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		order.Status = target
		order.UpdatedAt = now

		if err := s.emitTransition(ctx, tx, order, from, actor, now, ""); err != nil {
			return err
		}
		if attempted {
			if err := s.emitReservation(ctx, tx, order, actor, decrements, now); err != nil {
				return err
			}
		}
		result = order
		return nil
	})
	if attempted {
		s.observeReservation(err, time.Since(start), decrements)
	}
	if err != nil {
		if s.logg != nil && !pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock) && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logg.Error(ctx, "order status update failed", err)
		}
		return nil, asTyped(err, "update order status")
	}

	if s.logg != nil && from != target {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"from":            string(from),
			"to":              string(target),
			"stock_committed": len(decrements) > 0,
		})
		if actor.UserID != uuid.Nil {
			logCtx = s.logg.WithUserID(logCtx, actor.UserID.String())
		}
		s.logg.Info(logCtx, "order status updated")
	}
	return FromModel(result), nil
}

// UploadProof stores the payment proof and moves the order to
// payment_in_review. The blob is written before the transaction and removed
// again when the transaction fails.
func (s *service) UploadProof(ctx context.Context, customerID, orderID uuid.UUID, file media.File) (*OrderDTO, error) {
	if s.proofs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "proof uploads are unavailable")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, orderID)
	}
	if order.CustomerID != customerID {
		return nil, notFound(orderID)
	}
	if !order.Status.AcceptsProof() {
		return nil, proofRejected(order.Status)
	}

	stored, err := s.proofs.Upload(ctx, enums.MediaKindPaymentProof, file)
	if err != nil {
		return nil, err
	}

	var result *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr(err, orderID)
		}
		if !locked.Status.AcceptsProof() {
			return proofRejected(locked.Status)
		}

		now := s.now()
		from := locked.Status
		if err := repo.Update(ctx, locked.ID, map[string]any{
			"proof_of_payment_url":    stored.URL,
			"proof_of_payment_object": stored.Object,
			"status":                  enums.OrderStatusPaymentInReview,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach proof")
		}
		locked.ProofOfPaymentURL = &stored.URL
		locked.ProofOfPaymentObject = &stored.Object
		locked.Status = enums.OrderStatusPaymentInReview
		locked.UpdatedAt = now

		actor := Actor{UserID: customerID, Role: enums.UserRoleCustomer}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderProofUploaded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   locked.ID,
			Actor:         actorRef(actor),
			OccurredAt:    now,
			Data: payloads.OrderProofUploadedEvent{
				OrderID:    locked.ID,
				CustomerID: locked.CustomerID,
				ProofURL:   stored.URL,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit proof uploaded")
		}
		if from != locked.Status {
			if err := s.emitTransition(ctx, tx, locked, from, actor, now, ""); err != nil {
				return err
			}
		}
		result = locked
		return nil
	})
	if err != nil {
		if delErr := s.proofs.Delete(ctx, stored.Object); delErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "object", stored.Object), "orphaned proof left in storage")
		}
		return nil, asTyped(err, "attach proof")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "payment proof uploaded")
	}
	return FromModel(result), nil
}

// CancelStalePending cancels orders still awaiting payment that were created
// before cutoff. Stock is untouched since none was committed. Each order is
// canceled in its own transaction; failures are collected and the rest still
// run.
func (s *service) CancelStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	ids, err := s.repo.FindStalePending(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find stale orders")
	}

	var (
		canceled int
		errs     error
	)
	for _, id := range ids {
		done, err := s.cancelIfAwaitingPayment(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", id, err))
			continue
		}
		if done {
			canceled++
		}
	}
	return canceled, errs
}

func (s *service) cancelIfAwaitingPayment(ctx context.Context, orderID uuid.UUID) (bool, error) {
	canceled := false
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		canceled = false
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.AwaitingPayment() {
			return nil
		}
		from := order.Status
		now := s.now()
		if err := repo.Update(ctx, order.ID, map[string]any{"status": enums.OrderStatusCanceled}); err != nil {
			return err
		}
		order.Status = enums.OrderStatusCanceled
		if err := s.emitTransition(ctx, tx, order, from, Actor{}, now, staleCancelReason); err != nil {
			return err
		}
		canceled = true
		return nil
	})
	return canceled, err
}

func (s *service) emitTransition(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, actor Actor, at time.Time, reason string) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actorRef(actor),
		OccurredAt:    at,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			From:       from,
			To:         order.Status,
			ChangedAt:  at,
		},
	}
	if order.Status == enums.OrderStatusCanceled {
		event.EventType = enums.EventOrderCanceled
		event.Data = payloads.OrderCanceledEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			From:       from,
			CanceledAt: at,
			Reason:     reason,
		}
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit status event")
	}
	return nil
}

func (s *service) emitReservation(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor, decrements []reservation.Decrement, at time.Time) error {
	lines := make([]payloads.ReservedLine, 0, len(decrements))
	for _, d := range decrements {
		lines = append(lines, payloads.ReservedLine{
			ProductID:      d.ProductID,
			Quantity:       d.Quantity,
			RemainingStock: d.Remaining,
		})
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaymentVerified,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actorRef(actor),
		OccurredAt:    at,
		Data: payloads.OrderPaymentVerifiedEvent{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			Lines:       lines,
			CommittedAt: at,
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit payment verified")
	}

	for _, d := range decrements {
		if d.Remaining > s.lowStock {
			continue
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductStockLow,
			AggregateType: enums.AggregateProduct,
			AggregateID:   d.ProductID,
			OccurredAt:    at,
			Data: payloads.ProductStockLowEvent{
				ProductID: d.ProductID,
				Name:      d.Name,
				Stock:     d.Remaining,
				Threshold: s.lowStock,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit stock low")
		}
	}
	return nil
}

func (s *service) observeReservation(err error, elapsed time.Duration, decrements []reservation.Decrement) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.ReservationCommitted
	switch {
	case err == nil:
	case pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock):
		outcome = metrics.ReservationInsufficient
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		outcome = metrics.ReservationNotFound
	default:
		outcome = metrics.ReservationError
	}
	units := 0
	if err == nil {
		for _, d := range decrements {
			units += d.Quantity
		}
	}
	s.metrics.ObserveReservation(outcome, elapsed, units)
}

func actorRef(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
}

func proofRejected(status enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order does not accept a payment proof").
		WithDetails(map[string]any{"status": status})
}

func notFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found: "+id.String())
}

func notFoundOr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(id)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}

func asTyped(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
