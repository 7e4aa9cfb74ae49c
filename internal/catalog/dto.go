package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
)

// ProductDTO is the catalog wire shape shared by storefront and admin.
type ProductDTO struct {
	ID                     uuid.UUID       `json:"id"`
	Name                   string          `json:"name"`
	Description            string          `json:"description"`
	Price                  decimal.Decimal `json:"price"`
	Stock                  int             `json:"stock"`
	InStock                bool            `json:"in_stock"`
	Tags                   []string        `json:"tags"`
	Colors                 []string        `json:"colors"`
	Customizable           bool            `json:"customizable"`
	CustomizationMaxLength int             `json:"customization_max_length"`
	ImageURL               *string         `json:"image_url,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

func FromModel(p models.Product) ProductDTO {
	return ProductDTO{
		ID:                     p.ID,
		Name:                   p.Name,
		Description:            p.Description,
		Price:                  p.Price,
		Stock:                  p.Stock,
		InStock:                p.Stock > 0,
		Tags:                   append([]string{}, p.Tags...),
		Colors:                 append([]string{}, p.Colors...),
		Customizable:           p.Customizable,
		CustomizationMaxLength: p.CustomizationMaxLength,
		ImageURL:               p.ImageURL,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func FromModels(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, FromModel(p))
	}
	return out
}

// CreateProductInput is the admin payload for a new product. Tags are raw
// admin input and get expanded before storage.
type CreateProductInput struct {
	Name                   string          `json:"name" validate:"required,max=200"`
	Description            string          `json:"description" validate:"max=4000"`
	Price                  decimal.Decimal `json:"price" validate:"required"`
	Stock                  int             `json:"stock" validate:"gte=0"`
	Tags                   []string        `json:"tags"`
	Colors                 []string        `json:"colors"`
	Customizable           bool            `json:"customizable"`
	CustomizationMaxLength int             `json:"customization_max_length" validate:"gte=0,lte=200"`
	ImageURL               *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	ImageObject            *string         `json:"image_object,omitempty"`
}

// UpdateProductInput carries optional mutations; nil fields are left alone.
type UpdateProductInput struct {
	Name                   *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description            *string          `json:"description,omitempty" validate:"omitempty,max=4000"`
	Price                  *decimal.Decimal `json:"price,omitempty"`
	Stock                  *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Tags                   *[]string        `json:"tags,omitempty"`
	Colors                 *[]string        `json:"colors,omitempty"`
	Customizable           *bool            `json:"customizable,omitempty"`
	CustomizationMaxLength *int             `json:"customization_max_length,omitempty" validate:"omitempty,gte=0,lte=200"`
	ImageURL               *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	ImageObject            *string          `json:"image_object,omitempty"`
}
