package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog item.
type Product struct {
	ID                     uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name                   string          `gorm:"column:name;not null"`
	Description            string          `gorm:"column:description;not null"`
	Price                  decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock                  int             `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	Tags                   []string        `gorm:"column:tags;type:jsonb;serializer:json;not null"`
	Colors                 []string        `gorm:"column:colors;type:jsonb;serializer:json;not null"`
	Customizable           bool            `gorm:"column:customizable;not null;default:false"`
	CustomizationMaxLength int             `gorm:"column:customization_max_length;not null;default:0"`
	ImageURL               *string         `gorm:"column:image_url"`
	ImageObject            *string         `gorm:"column:image_object"`
	CreatedAt              time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps json columns non-null.
func (p *Product) BeforeSave(*gorm.DB) error {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	return nil
}

// ProductTag is the tag -> product secondary index used by category lookups.
type ProductTag struct {
	Tag       string    `gorm:"column:tag;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey;index:idx_product_tags_product"`
}
