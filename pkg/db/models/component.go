package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Component is a raw material tracked by the admin costing tool. Stock is kept
// in purchase units; UnitEquivalence converts one purchase unit into usage units
// (1 gram = 8 pieces).
type Component struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Type            string          `gorm:"column:type;not null;index"`
	Subtype         *string         `gorm:"column:subtype"`
	Color           *string         `gorm:"column:color"`
	Stock           decimal.Decimal `gorm:"column:stock;type:numeric(12,3);not null;check:stock >= 0"`
	MinStock        decimal.Decimal `gorm:"column:min_stock;type:numeric(12,3);not null"`
	CostPrice       decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`
	SuggestedMargin decimal.Decimal `gorm:"column:suggested_margin;type:numeric(6,2);not null"`
	CalculatedPrice decimal.Decimal `gorm:"column:calculated_price;type:numeric(12,2);not null"`
	PurchaseUnit    string          `gorm:"column:purchase_unit;not null"`
	UsageUnit       string          `gorm:"column:usage_unit;not null"`
	UnitEquivalence decimal.Decimal `gorm:"column:unit_equivalence;type:numeric(12,4);not null"`
	UsageCount      int             `gorm:"column:usage_count;not null;default:0"`
	Notes           *string         `gorm:"column:notes"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Component) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether stock reached the configured minimum.
func (c Component) IsLowStock() bool {
	return c.Stock.LessThanOrEqual(c.MinStock)
}
