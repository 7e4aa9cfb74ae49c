package components

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
)

type ComponentDTO struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Subtype         *string         `json:"subtype,omitempty"`
	Color           *string         `json:"color,omitempty"`
	Stock           decimal.Decimal `json:"stock"`
	MinStock        decimal.Decimal `json:"min_stock"`
	LowStock        bool            `json:"low_stock"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SuggestedMargin decimal.Decimal `json:"suggested_margin"`
	CalculatedPrice decimal.Decimal `json:"calculated_price"`
	PurchaseUnit    string          `json:"purchase_unit"`
	UsageUnit       string          `json:"usage_unit"`
	UnitEquivalence decimal.Decimal `json:"unit_equivalence"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	UsageCount      int             `json:"usage_count"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func FromModel(c models.Component) ComponentDTO {
	return ComponentDTO{
		ID:              c.ID,
		Name:            c.Name,
		Type:            c.Type,
		Subtype:         c.Subtype,
		Color:           c.Color,
		Stock:           c.Stock,
		MinStock:        c.MinStock,
		LowStock:        c.IsLowStock(),
		CostPrice:       c.CostPrice,
		SuggestedMargin: c.SuggestedMargin,
		CalculatedPrice: c.CalculatedPrice,
		PurchaseUnit:    c.PurchaseUnit,
		UsageUnit:       c.UsageUnit,
		UnitEquivalence: c.UnitEquivalence,
		UnitCost:        UnitCost(c),
		UsageCount:      c.UsageCount,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func FromModels(rows []models.Component) []ComponentDTO {
	out := make([]ComponentDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, FromModel(c))
	}
	return out
}

type CreateComponentInput struct {
	Name            string          `json:"name" validate:"required,max=120"`
	Type            string          `json:"type" validate:"required,max=60"`
	Subtype         *string         `json:"subtype,omitempty" validate:"omitempty,max=60"`
	Color           *string         `json:"color,omitempty" validate:"omitempty,max=60"`
	Stock           decimal.Decimal `json:"stock"`
	MinStock        decimal.Decimal `json:"min_stock"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SuggestedMargin decimal.Decimal `json:"suggested_margin"`
	PurchaseUnit    string          `json:"purchase_unit" validate:"required,max=30"`
	UsageUnit       string          `json:"usage_unit" validate:"required,max=30"`
	UnitEquivalence decimal.Decimal `json:"unit_equivalence"`
	Notes           *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// UpdateComponentInput carries a partial update; nil fields are untouched.
// Stock changes go through AdjustStock.
type UpdateComponentInput struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Type            *string          `json:"type,omitempty" validate:"omitempty,max=60"`
	Subtype         *string          `json:"subtype,omitempty" validate:"omitempty,max=60"`
	Color           *string          `json:"color,omitempty" validate:"omitempty,max=60"`
	MinStock        *decimal.Decimal `json:"min_stock,omitempty"`
	CostPrice       *decimal.Decimal `json:"cost_price,omitempty"`
	SuggestedMargin *decimal.Decimal `json:"suggested_margin,omitempty"`
	PurchaseUnit    *string          `json:"purchase_unit,omitempty" validate:"omitempty,max=30"`
	UsageUnit       *string          `json:"usage_unit,omitempty" validate:"omitempty,max=30"`
	UnitEquivalence *decimal.Decimal `json:"unit_equivalence,omitempty"`
	Notes           *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type UsageInput struct {
	Count int `json:"count" validate:"required,gte=1,lte=1000"`
}

type StockAdjustmentInput struct {
	Delta decimal.Decimal `json:"delta"`
}

// EstimateLine is a component and the usage units a design consumes.
type EstimateLine struct {
	ComponentID uuid.UUID       `json:"component_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// EstimateInput prices a design. Margin overrides each component's suggested
// margin when set.
type EstimateInput struct {
	Lines  []EstimateLine   `json:"lines" validate:"required,min=1,dive"`
	Margin *decimal.Decimal `json:"margin,omitempty"`
}

type EstimateLineResult struct {
	ComponentID uuid.UUID       `json:"component_id"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UsageUnit   string          `json:"usage_unit"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Cost        decimal.Decimal `json:"cost"`
	Price       decimal.Decimal `json:"price"`
}

type EstimateResult struct {
	Lines          []EstimateLineResult `json:"lines"`
	TotalCost      decimal.Decimal      `json:"total_cost"`
	SuggestedPrice decimal.Decimal      `json:"suggested_price"`
	Margin         *decimal.Decimal     `json:"margin,omitempty"`
}
