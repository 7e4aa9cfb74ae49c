package helpers

import (
	"github.com/google/uuid"

	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
)

// AvailabilityInput is the summed cart demand for one product.
type AvailabilityInput struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Stock       int
}

// StockViolation is returned to callers when a product cannot cover the cart.
type StockViolation struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// ValidateAvailability checks demand against current stock without reserving
// anything. All violations are reported at once.
func ValidateAvailability(items []AvailabilityInput) error {
	var violations []StockViolation
	for _, item := range items {
		if item.Requested <= item.Stock {
			continue
		}
		violations = append(violations, StockViolation{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Requested:   item.Requested,
			Available:   item.Stock,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	msg := "insufficient stock"
	if len(violations) == 1 && violations[0].ProductName != "" {
		msg = "insufficient stock for " + violations[0].ProductName
	}
	return pkgerrors.New(pkgerrors.CodeOutOfStock, msg).WithDetails(map[string]any{"violations": violations})
}
