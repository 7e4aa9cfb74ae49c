package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/pkg/enums"
	"github.com/lunaplata/joyeria-backend/pkg/types"
)

// Order is the checkout snapshot of a cart. Items and totals never change after
// creation; status, proof and stock_committed_at do.
type Order struct {
	ID                   uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID           uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerName         string                 `gorm:"column:customer_name;not null"`
	CustomerEmail        *string                `gorm:"column:customer_email"`
	CustomerPhone        string                 `gorm:"column:customer_phone;not null"`
	ShippingMethod       enums.ShippingMethod   `gorm:"column:shipping_method;type:text;not null"`
	ShippingCost         decimal.Decimal        `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	ShippingAddress      *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Subtotal             decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Total                decimal.Decimal        `gorm:"column:total;type:numeric(12,2);not null"`
	Currency             string                 `gorm:"column:currency;not null"`
	PaymentMethod        enums.PaymentMethod    `gorm:"column:payment_method;type:text;not null"`
	Status               enums.OrderStatus      `gorm:"column:status;type:text;not null;index"`
	ProofOfPaymentURL    *string                `gorm:"column:proof_of_payment_url"`
	ProofOfPaymentObject *string                `gorm:"column:proof_of_payment_object"`
	Notes                *string                `gorm:"column:notes"`
	StockCommittedAt     *time.Time             `gorm:"column:stock_committed_at"`
	Items                []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is an immutable product snapshot inside an order.
type OrderItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName   string              `gorm:"column:product_name;not null"`
	UnitPrice     decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity      int                 `gorm:"column:quantity;not null;check:quantity >= 1"`
	Customization types.Customization `gorm:"column:customization;type:jsonb;serializer:json;not null"`
	LineTotal     decimal.Decimal     `gorm:"column:line_total;type:numeric(12,2);not null"`
	ImageURL      *string             `gorm:"column:image_url"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
