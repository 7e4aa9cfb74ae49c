package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.CartLine, error)
	FindByKey(ctx context.Context, ownerID uuid.UUID, key string) (*models.CartLine, error)
	FindByID(ctx context.Context, ownerID, lineID uuid.UUID) (*models.CartLine, error)
	Create(ctx context.Context, line *models.CartLine) error
	AddQuantity(ctx context.Context, lineID uuid.UUID, delta int) error
	Delete(ctx context.Context, ownerID, lineID uuid.UUID) (bool, error)
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	QuantityForProduct(ctx context.Context, ownerID, productID uuid.UUID) (int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductLoader reads the product a line refers to.
type ProductLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
