package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/pkg/db"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
)

// Service exposes cart operations for one owner (customer or guest id).
type Service interface {
	AddItem(ctx context.Context, ownerID uuid.UUID, input AddItemInput) (*CartDTO, error)
	DecreaseItem(ctx context.Context, ownerID, lineID uuid.UUID) (*CartDTO, error)
	RemoveItem(ctx context.Context, ownerID, lineID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, ownerID uuid.UUID) error
	GetCart(ctx context.Context, ownerID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products func(tx *gorm.DB) ProductLoader
	currency string
}

// NewService builds a cart service. products returns a product loader bound
// to the given transaction.
func NewService(repo CartRepository, tx txRunner, products func(tx *gorm.DB) ProductLoader, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products, currency: currency}, nil
}

func (s *service) AddItem(ctx context.Context, ownerID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	customization := input.Customization.Normalize()

	var lines []models.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.products(tx).FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found: "+input.ProductID.String())
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if err := customization.Validate(product.Customizable, product.CustomizationMaxLength); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}

		inCart, err := repo.QuantityForProduct(ctx, ownerID, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum cart quantity")
		}
		if inCart+input.Quantity > product.Stock {
			return pkgerrors.New(pkgerrors.CodeValidation, "not enough stock for "+product.Name).WithDetails(map[string]any{
				"product_id": product.ID,
				"requested":  inCart + input.Quantity,
				"available":  product.Stock,
			})
		}

		key := LineKey(product.ID, customization)
		existing, err := repo.FindByKey(ctx, ownerID, key)
		switch {
		case err == nil:
			if err := repo.AddQuantity(ctx, existing.ID, input.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment cart line")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			line := &models.CartLine{
				OwnerID:       ownerID,
				LineKey:       key,
				ProductID:     product.ID,
				ProductName:   product.Name,
				UnitPrice:     product.Price,
				ImageURL:      product.ImageURL,
				Quantity:      input.Quantity,
				Customization: customization,
			}
			if err := repo.Create(ctx, line); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart changed concurrently, retry")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}

		lines, err = repo.ListByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, asTyped(err, "add cart item")
	}
	return s.summary(lines), nil
}

// DecreaseItem lowers the line quantity by one and drops the line at zero.
func (s *service) DecreaseItem(ctx context.Context, ownerID, lineID uuid.UUID) (*CartDTO, error) {
	var lines []models.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := repo.FindByID(ctx, ownerID, lineID)
		if err != nil {
			return lineNotFoundOr(err, lineID)
		}
		if line.Quantity <= 1 {
			if _, err := repo.Delete(ctx, ownerID, lineID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
			}
		} else if err := repo.AddQuantity(ctx, lineID, -1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement cart line")
		}
		lines, err = repo.ListByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, asTyped(err, "decrease cart item")
	}
	return s.summary(lines), nil
}

// RemoveItem deletes the whole line whatever its quantity.
func (s *service) RemoveItem(ctx context.Context, ownerID, lineID uuid.UUID) (*CartDTO, error) {
	var lines []models.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deleted, err := repo.Delete(ctx, ownerID, lineID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
		}
		if !deleted {
			return lineNotFoundOr(gorm.ErrRecordNotFound, lineID)
		}
		lines, err = repo.ListByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, asTyped(err, "remove cart item")
	}
	return s.summary(lines), nil
}

func (s *service) Clear(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := s.repo.DeleteByOwner(ctx, ownerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) GetCart(ctx context.Context, ownerID uuid.UUID) (*CartDTO, error) {
	lines, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.summary(lines), nil
}

func (s *service) summary(lines []models.CartLine) *CartDTO {
	dto := Summarize(lines, s.currency)
	return &dto
}

func lineNotFoundOr(err error, lineID uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found: "+lineID.String())
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
}

func asTyped(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
