package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunaplata/joyeria-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout turns a cart into an order.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID            `json:"order_id"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	Status         enums.OrderStatus    `json:"status"`
	PaymentMethod  enums.PaymentMethod  `json:"payment_method"`
	ShippingMethod enums.ShippingMethod `json:"shipping_method"`
	ItemCount      int                  `json:"item_count"`
	Total          decimal.Decimal      `json:"total"`
	Currency       string               `json:"currency"`
}

// OrderStatusChangedEvent is emitted for every status transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// ReservedLine is one product decrement applied by a verification.
type ReservedLine struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	RemainingStock int       `json:"remaining_stock"`
}

// OrderPaymentVerifiedEvent is emitted when stock for an order was committed.
type OrderPaymentVerifiedEvent struct {
	OrderID     uuid.UUID      `json:"order_id"`
	CustomerID  uuid.UUID      `json:"customer_id"`
	Lines       []ReservedLine `json:"lines"`
	CommittedAt time.Time      `json:"committed_at"`
}

// OrderProofUploadedEvent tells the back office a payment proof is waiting.
type OrderProofUploadedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ProofURL   string    `json:"proof_url"`
}

// OrderCanceledEvent is emitted by admins or the stale order job.
type OrderCanceledEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	From       enums.OrderStatus `json:"from"`
	CanceledAt time.Time         `json:"canceled_at"`
	Reason     string            `json:"reason,omitempty"`
}

// ProductStockLowEvent is emitted when a verification leaves a product at or
// below the shop's low stock threshold.
type ProductStockLowEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
}
