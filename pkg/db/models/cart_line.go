package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/pkg/types"
)

// CartLine is one keyed line of an owner's cart. Product fields are a snapshot
// taken when the line was first added.
type CartLine struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID       uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:ux_cart_lines_owner_key,priority:1"`
	LineKey       string              `gorm:"column:line_key;not null;uniqueIndex:ux_cart_lines_owner_key,priority:2"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName   string              `gorm:"column:product_name;not null"`
	UnitPrice     decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	ImageURL      *string             `gorm:"column:image_url"`
	Quantity      int                 `gorm:"column:quantity;not null;check:quantity >= 1"`
	Customization types.Customization `gorm:"column:customization;type:jsonb;serializer:json;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartLine) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// LineTotal is unit price times quantity.
func (c CartLine) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
