package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	"github.com/lunaplata/joyeria-backend/pkg/pagination"
	"github.com/lunaplata/joyeria-backend/pkg/types"
)

// Actor identifies who requested a status change.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

type OrderItemDTO struct {
	ID                 uuid.UUID           `json:"id"`
	ProductID          uuid.UUID           `json:"product_id"`
	ProductName        string              `json:"product_name"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	Quantity           int                 `json:"quantity"`
	Customization      types.Customization `json:"customization"`
	CustomizationLabel string              `json:"customization_label,omitempty"`
	LineTotal          decimal.Decimal     `json:"line_total"`
	ImageURL           *string             `json:"image_url,omitempty"`
}

type OrderDTO struct {
	ID                uuid.UUID              `json:"id"`
	CustomerID        uuid.UUID              `json:"customer_id"`
	Customer          types.CustomerInfo     `json:"customer"`
	ShippingMethod    enums.ShippingMethod   `json:"shipping_method"`
	ShippingCost      decimal.Decimal        `json:"shipping_cost"`
	ShippingAddress   *types.ShippingAddress `json:"shipping_address,omitempty"`
	Items             []OrderItemDTO         `json:"items"`
	Subtotal          decimal.Decimal        `json:"subtotal"`
	Total             decimal.Decimal        `json:"total"`
	Currency          string                 `json:"currency"`
	PaymentMethod     enums.PaymentMethod    `json:"payment_method"`
	Status            enums.OrderStatus      `json:"status"`
	ProofOfPaymentURL *string                `json:"proof_of_payment_url,omitempty"`
	Notes             *string                `json:"notes,omitempty"`
	StockCommittedAt  *time.Time             `json:"stock_committed_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	email := ""
	if o.CustomerEmail != nil {
		email = *o.CustomerEmail
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ID:                 it.ID,
			ProductID:          it.ProductID,
			ProductName:        it.ProductName,
			UnitPrice:          it.UnitPrice,
			Quantity:           it.Quantity,
			Customization:      it.Customization,
			CustomizationLabel: it.Customization.Label(),
			LineTotal:          it.LineTotal,
			ImageURL:           it.ImageURL,
		})
	}
	return &OrderDTO{
		ID:                o.ID,
		CustomerID:        o.CustomerID,
		Customer:          types.CustomerInfo{Name: o.CustomerName, Email: email, Phone: o.CustomerPhone},
		ShippingMethod:    o.ShippingMethod,
		ShippingCost:      o.ShippingCost,
		ShippingAddress:   o.ShippingAddress,
		Items:             items,
		Subtotal:          o.Subtotal,
		Total:             o.Total,
		Currency:          o.Currency,
		PaymentMethod:     o.PaymentMethod,
		Status:            o.Status,
		ProofOfPaymentURL: o.ProofOfPaymentURL,
		Notes:             o.Notes,
		StockCommittedAt:  o.StockCommittedAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// ListQuery is the admin order listing request.
type ListQuery struct {
	Status *enums.OrderStatus
	Page   pagination.Params
}

// OrderPage is one page of orders. NextCursor is empty on the last page.
type OrderPage struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}
