package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/pkg/db"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
)

// Service exposes storefront browsing and admin product management.
type Service interface {
	List(ctx context.Context, filters Filters) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type objectDeleter interface {
	Delete(ctx context.Context, object string) error
}

type service struct {
	repo    *Repository
	db      *db.Client
	objects objectDeleter
	logg    *logger.Logger
}

// NewService wires the catalog service. objects may be nil, in which case
// product images are left in storage on delete.
func NewService(repo *Repository, dbClient *db.Client, objects objectDeleter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, db: dbClient, objects: objects, logg: logg}, nil
}

// List narrows candidates with the tag index when exactly one category is
// requested, then runs the in-memory pipeline.
func (s *service) List(ctx context.Context, filters Filters) ([]ProductDTO, error) {
	var (
		candidates []models.Product
		err        error
	)
	if len(filters.Categories) == 1 {
		candidates, err = s.repo.ListByTag(ctx, filters.Categories[0])
	} else {
		candidates, err = s.repo.ListAll(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return FromModels(ApplyFilters(candidates, filters)), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := models.Product{
		Name:                   strings.TrimSpace(input.Name),
		Description:            strings.TrimSpace(input.Description),
		Price:                  input.Price.Round(2),
		Stock:                  input.Stock,
		Tags:                   ExpandTagList(input.Tags),
		Colors:                 normalizeColors(input.Colors),
		Customizable:           input.Customizable,
		CustomizationMaxLength: input.CustomizationMaxLength,
		ImageURL:               input.ImageURL,
		ImageObject:            input.ImageObject,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, &product)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product created")
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var (
		updated     models.Product
		staleObject *string
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, id)
		}
		previousObject := product.ImageObject
		columns := applyUpdate(product, input)
		if err := validateProduct(*product); err != nil {
			return err
		}
		if err := repo.UpdateColumns(ctx, product, columns); err != nil {
			if db.IsCheckViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "stock cannot be negative")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		if input.ImageObject != nil && previousObject != nil && *previousObject != *input.ImageObject {
			staleObject = previousObject
		}
		fresh, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
		}
		updated = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	if staleObject != nil {
		s.deleteImage(ctx, id, *staleObject)
	}
	dto := FromModel(updated)
	return &dto, nil
}

// Delete removes the product and its index rows, then drops its image from
// storage on a best effort basis.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var object *string
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, id)
		}
		object = product.ImageObject
		if _, err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if object != nil {
		s.deleteImage(ctx, id, *object)
	}
	return nil
}

func (s *service) deleteImage(ctx context.Context, productID uuid.UUID, object string) {
	if s.objects == nil || strings.TrimSpace(object) == "" {
		return
	}
	if err := s.objects.Delete(ctx, object); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"object":     object,
			"error":      err.Error(),
		}), "product image delete failed")
	}
}

// applyUpdate copies the provided fields onto p and returns the columns that
// were touched. stock is only among them when the input sets it, so an edit
// never writes back a stock value a reservation has since decremented.
func applyUpdate(p *models.Product, in UpdateProductInput) []string {
	var columns []string
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
		columns = append(columns, "name")
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
		columns = append(columns, "description")
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
		columns = append(columns, "price")
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
		columns = append(columns, "stock")
	}
	if in.Tags != nil {
		p.Tags = ExpandTagList(*in.Tags)
		columns = append(columns, "tags")
	}
	if in.Colors != nil {
		p.Colors = normalizeColors(*in.Colors)
		columns = append(columns, "colors")
	}
	if in.Customizable != nil {
		p.Customizable = *in.Customizable
		columns = append(columns, "customizable")
	}
	if in.CustomizationMaxLength != nil {
		p.CustomizationMaxLength = *in.CustomizationMaxLength
		columns = append(columns, "customization_max_length")
	}
	if in.ImageURL != nil {
		p.ImageURL = in.ImageURL
		columns = append(columns, "image_url")
	}
	if in.ImageObject != nil {
		p.ImageObject = in.ImageObject
		columns = append(columns, "image_object")
	}
	return columns
}

func validateProduct(p models.Product) error {
	switch {
	case p.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case p.Price.LessThanOrEqual(decimal.Zero):
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	case p.Stock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	case p.CustomizationMaxLength < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "customization_max_length cannot be negative")
	}
	return nil
}

func normalizeColors(colors []string) []string {
	out := make([]string, 0, len(colors))
	seen := make(map[string]struct{}, len(colors))
	for _, c := range colors {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func notFoundOr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found: "+id.String())
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
}
