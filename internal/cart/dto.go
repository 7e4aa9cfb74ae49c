package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	"github.com/lunaplata/joyeria-backend/pkg/types"
)

// AddItemInput is the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID     uuid.UUID           `json:"product_id" validate:"required"`
	Quantity      int                 `json:"quantity" validate:"required,gte=1,lte=99"`
	Customization types.Customization `json:"customization"`
}

type CartLineDTO struct {
	ID                 uuid.UUID           `json:"id"`
	LineKey            string              `json:"line_key"`
	ProductID          uuid.UUID           `json:"product_id"`
	ProductName        string              `json:"product_name"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	ImageURL           *string             `json:"image_url,omitempty"`
	Quantity           int                 `json:"quantity"`
	Customization      types.Customization `json:"customization"`
	CustomizationLabel string              `json:"customization_label,omitempty"`
	LineTotal          decimal.Decimal     `json:"line_total"`
}

type CartDTO struct {
	Lines     []CartLineDTO   `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Currency  string          `json:"currency"`
}

func lineFromModel(l models.CartLine) CartLineDTO {
	return CartLineDTO{
		ID:                 l.ID,
		LineKey:            l.LineKey,
		ProductID:          l.ProductID,
		ProductName:        l.ProductName,
		UnitPrice:          l.UnitPrice,
		ImageURL:           l.ImageURL,
		Quantity:           l.Quantity,
		Customization:      l.Customization,
		CustomizationLabel: l.Customization.Label(),
		LineTotal:          l.LineTotal(),
	}
}

// Summarize builds the cart view from its lines.
func Summarize(lines []models.CartLine, currency string) CartDTO {
	out := CartDTO{Lines: make([]CartLineDTO, 0, len(lines)), Subtotal: decimal.Zero, Currency: currency}
	for _, l := range lines {
		out.Lines = append(out.Lines, lineFromModel(l))
		out.ItemCount += l.Quantity
		out.Subtotal = out.Subtotal.Add(l.LineTotal())
	}
	return out
}
