package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/internal/cart"
	"github.com/lunaplata/joyeria-backend/internal/checkout/helpers"
	"github.com/lunaplata/joyeria-backend/internal/orders"
	"github.com/lunaplata/joyeria-backend/internal/orders/reservation"
	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
	"github.com/lunaplata/joyeria-backend/pkg/outbox"
	"github.com/lunaplata/joyeria-backend/pkg/outbox/payloads"
	"github.com/lunaplata/joyeria-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductLoader reads the products referenced by cart lines.
type ProductLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*orders.OrderDTO, error)
	ShippingOptions() []helpers.ShippingOption
}

// CheckoutInput is the customer supplied part of an order.
type CheckoutInput struct {
	Customer        types.CustomerInfo     `json:"customer" validate:"required"`
	ShippingMethod  enums.ShippingMethod   `json:"shipping_method" validate:"required"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	PaymentMethod   enums.PaymentMethod    `json:"payment_method" validate:"required"`
	Notes           *string                `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type ServiceParams struct {
	Tx       txRunner
	Cart     cart.CartRepository
	Orders   orders.Repository
	Products func(tx *gorm.DB) ProductLoader
	Outbox   outbox.Emitter
	Shop     config.ShopConfig
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	cartRepo cart.CartRepository
	orders   orders.Repository
	products func(tx *gorm.DB) ProductLoader
	outbox   outbox.Emitter
	shop     config.ShopConfig
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if strings.TrimSpace(params.Shop.Currency) == "" {
		return nil, fmt.Errorf("shop currency required")
	}
	return &service{
		tx:       params.Tx,
		cartRepo: params.Cart,
		orders:   params.Orders,
		products: params.Products,
		outbox:   params.Outbox,
		shop:     params.Shop,
		logg:     params.Logger,
	}, nil
}

func (s *service) ShippingOptions() []helpers.ShippingOption {
	return helpers.ShippingOptions(s.shop)
}

// Execute snapshots the owner's cart into an order. Stock is checked but not
// reserved; reservation happens when the payment is verified. The order, its
// items, the cart clear and the order_created event share one transaction.
func (s *service) Execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*orders.OrderDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	customer, err := normalizeCustomer(input.Customer)
	if err != nil {
		return nil, err
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	address, err := helpers.ValidateShipping(input.ShippingMethod, input.ShippingAddress)
	if err != nil {
		return nil, err
	}
	shippingCost, err := helpers.ShippingCost(input.ShippingMethod, s.shop)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		lines, err := cartRepo.ListByOwner(ctx, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}
		if err := s.checkAvailability(ctx, tx, lines); err != nil {
			return err
		}

		order = buildOrder(customerID, customer, input, address, shippingCost, s.shop.Currency, lines)
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		if _, err := cartRepo.DeleteByOwner(ctx, customerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		return s.emitOrderCreated(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"items":           len(order.Items),
			"total":           order.Total.StringFixed(2),
			"payment_method":  string(order.PaymentMethod),
			"shipping_method": string(order.ShippingMethod),
		})
		s.logg.Info(logCtx, "order placed")
	}
	return orders.FromModel(order), nil
}

func (s *service) checkAvailability(ctx context.Context, tx *gorm.DB, lines []models.CartLine) error {
	requested := make([]reservation.Line, 0, len(lines))
	for _, l := range lines {
		requested = append(requested, reservation.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	wanted, err := reservation.Aggregate(requested)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(wanted))
	for _, w := range wanted {
		ids = append(ids, w.ProductID)
	}
	products, err := s.products(tx).FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	inputs := make([]helpers.AvailabilityInput, 0, len(wanted))
	for _, w := range wanted {
		p, ok := products[w.ProductID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found: "+w.ProductID.String())
		}
		inputs = append(inputs, helpers.AvailabilityInput{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   w.Quantity,
			Stock:       p.Stock,
		})
	}
	return helpers.ValidateAvailability(inputs)
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	count := 0
	for _, it := range order.Items {
		count += it.Quantity
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.CustomerID},
		Data: payloads.OrderCreatedEvent{
			OrderID:        order.ID,
			CustomerID:     order.CustomerID,
			Status:         order.Status,
			PaymentMethod:  order.PaymentMethod,
			ShippingMethod: order.ShippingMethod,
			ItemCount:      count,
			Total:          order.Total,
			Currency:       order.Currency,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
	}
	return nil
}

func buildOrder(
	customerID uuid.UUID,
	customer types.CustomerInfo,
	input CheckoutInput,
	address *types.ShippingAddress,
	shippingCost decimal.Decimal,
	currency string,
	lines []models.CartLine,
) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		ShippingMethod:  input.ShippingMethod,
		ShippingCost:    shippingCost,
		ShippingAddress: address,
		Currency:        currency,
		PaymentMethod:   input.PaymentMethod,
		Status:          input.PaymentMethod.InitialOrderStatus(),
		Notes:           trimmedOrNil(input.Notes),
	}
	if customer.Email != "" {
		email := customer.Email
		order.CustomerEmail = &email
	}

	subtotal := decimal.Zero
	order.Items = make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		total := l.LineTotal().Round(2)
		subtotal = subtotal.Add(total)
		order.Items = append(order.Items, models.OrderItem{
			OrderID:       order.ID,
			ProductID:     l.ProductID,
			ProductName:   l.ProductName,
			UnitPrice:     l.UnitPrice,
			Quantity:      l.Quantity,
			Customization: l.Customization,
			LineTotal:     total,
			ImageURL:      l.ImageURL,
		})
	}
	order.Subtotal = subtotal
	order.Total = subtotal.Add(shippingCost)
	return order
}

func normalizeCustomer(in types.CustomerInfo) (types.CustomerInfo, error) {
	out := types.CustomerInfo{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Phone: strings.TrimSpace(in.Phone),
	}
	missing := map[string]string{}
	if out.Name == "" {
		missing["name"] = "is required"
	}
	if out.Phone == "" {
		missing["phone"] = "is required"
	}
	if len(missing) > 0 {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "customer contact is incomplete").WithDetails(missing)
	}
	return out, nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
