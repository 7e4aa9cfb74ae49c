package components

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

// Service manages raw-material inventory for the costing tool. Nothing here
// is consumed by order transactions.
type Service interface {
	List(ctx context.Context, filters ListFilters) ([]ComponentDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ComponentDTO, error)
	Create(ctx context.Context, input CreateComponentInput) (*ComponentDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateComponentInput) (*ComponentDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordUsage(ctx context.Context, id uuid.UUID, count int) (*ComponentDTO, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*ComponentDTO, error)
	Estimate(ctx context.Context, input EstimateInput) (*EstimateResult, error)
}

type service struct {
	repo *Repository
	db   *db.Client
	logg *logger.Logger
}

func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("component repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, db: dbClient, logg: logg}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]ComponentDTO, error) {
	filters.Type = strings.TrimSpace(filters.Type)
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list components")
	}
	return FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ComponentDTO, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	dto := FromModel(*c)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateComponentInput) (*ComponentDTO, error) {
	c := models.Component{
		Name:            strings.TrimSpace(input.Name),
		Type:            strings.ToLower(strings.TrimSpace(input.Type)),
		Subtype:         trimmed(input.Subtype),
		Color:           trimmed(input.Color),
		Stock:           input.Stock,
		MinStock:        input.MinStock,
		CostPrice:       input.CostPrice.Round(2),
		SuggestedMargin: input.SuggestedMargin,
		PurchaseUnit:    strings.TrimSpace(input.PurchaseUnit),
		UsageUnit:       strings.TrimSpace(input.UsageUnit),
		UnitEquivalence: input.UnitEquivalence,
		Notes:           trimmed(input.Notes),
	}
	if c.UnitEquivalence.IsZero() {
		c.UnitEquivalence = decimal.NewFromInt(1)
	}
	c.CalculatedPrice = CalculatedPrice(c.CostPrice, c.SuggestedMargin)
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create component")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "component_id", c.ID.String()), "component created")
	}
	dto := FromModel(c)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateComponentInput) (*ComponentDTO, error) {
	var updated models.Component
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, id)
		}
		applyUpdate(c, input)
		c.CalculatedPrice = CalculatedPrice(c.CostPrice, c.SuggestedMargin)
		if err := validate(*c); err != nil {
			return err
		}
		if err := repo.Save(ctx, c); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update component")
		}
		updated = *c
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update component")
	}
	dto := FromModel(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete component")
	}
	if !deleted {
		return notFound(id)
	}
	return nil
}

// RecordUsage bumps the usage counter after a design used the component.
// Stock is adjusted separately.
func (s *service) RecordUsage(ctx context.Context, id uuid.UUID, count int) (*ComponentDTO, error) {
	if count < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "count must be at least 1")
	}
	ok, err := s.repo.IncrementUsage(ctx, id, count)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record usage")
	}
	if !ok {
		return nil, notFound(id)
	}
	return s.Get(ctx, id)
}

// AdjustStock applies a signed delta in purchase units. The result may not go
// below zero.
func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*ComponentDTO, error) {
	if delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	var updated models.Component
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, id)
		}
		next := c.Stock.Add(delta)
		if next.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot go below zero").WithDetails(map[string]any{
				"stock": c.Stock,
				"delta": delta,
			})
		}
		ok, err := repo.AdjustStock(ctx, id, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjust stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "component stock changed, retry")
		}
		c.Stock = next
		updated = *c
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "adjust stock")
	}
	if s.logg != nil && updated.IsLowStock() {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"component_id": updated.ID.String(),
			"stock":        updated.Stock.String(),
			"min_stock":    updated.MinStock.String(),
		})
		s.logg.Warn(logCtx, "component at or below minimum stock")
	}
	dto := FromModel(updated)
	return &dto, nil
}

// Estimate totals the component cost of a design. Each line costs
// quantity × unit_cost. Without an explicit margin every line is priced with
// its component's suggested margin.
func (s *service) Estimate(ctx context.Context, input EstimateInput) (*EstimateResult, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one component is required")
	}
	if input.Margin != nil && input.Margin.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "margin must not be negative")
	}
	ids := make([]uuid.UUID, 0, len(input.Lines))
	for _, l := range input.Lines {
		if l.ComponentID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "component_id is required")
		}
		if !l.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		ids = append(ids, l.ComponentID)
	}
	byID, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load components")
	}

	result := &EstimateResult{
		Lines:          make([]EstimateLineResult, 0, len(input.Lines)),
		TotalCost:      decimal.Zero,
		SuggestedPrice: decimal.Zero,
		Margin:         input.Margin,
	}
	for _, l := range input.Lines {
		c, ok := byID[l.ComponentID]
		if !ok {
			return nil, notFound(l.ComponentID)
		}
		unit := UnitCost(c)
		cost := unit.Mul(l.Quantity).Round(2)
		margin := c.SuggestedMargin
		if input.Margin != nil {
			margin = *input.Margin
		}
		price := CalculatedPrice(cost, margin)
		result.Lines = append(result.Lines, EstimateLineResult{
			ComponentID: c.ID,
			Name:        c.Name,
			Quantity:    l.Quantity,
			UsageUnit:   c.UsageUnit,
			UnitCost:    unit,
			Cost:        cost,
			Price:       price,
		})
		result.TotalCost = result.TotalCost.Add(cost)
		result.SuggestedPrice = result.SuggestedPrice.Add(price)
	}
	return result, nil
}

func applyUpdate(c *models.Component, in UpdateComponentInput) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		c.Type = strings.ToLower(strings.TrimSpace(*in.Type))
	}
	if in.Subtype != nil {
		c.Subtype = trimmed(in.Subtype)
	}
	if in.Color != nil {
		c.Color = trimmed(in.Color)
	}
	if in.MinStock != nil {
		c.MinStock = *in.MinStock
	}
	if in.CostPrice != nil {
		c.CostPrice = in.CostPrice.Round(2)
	}
	if in.SuggestedMargin != nil {
		c.SuggestedMargin = *in.SuggestedMargin
	}
	if in.PurchaseUnit != nil {
		c.PurchaseUnit = strings.TrimSpace(*in.PurchaseUnit)
	}
	if in.UsageUnit != nil {
		c.UsageUnit = strings.TrimSpace(*in.UsageUnit)
	}
	if in.UnitEquivalence != nil {
		c.UnitEquivalence = *in.UnitEquivalence
	}
	if in.Notes != nil {
		c.Notes = trimmed(in.Notes)
	}
}

func validate(c models.Component) error {
	problems := map[string]string{}
	if c.Name == "" {
		problems["name"] = "is required"
	}
	if c.Type == "" {
		problems["type"] = "is required"
	}
	if c.PurchaseUnit == "" {
		problems["purchase_unit"] = "is required"
	}
	if c.UsageUnit == "" {
		problems["usage_unit"] = "is required"
	}
	if c.Stock.IsNegative() {
		problems["stock"] = "must not be negative"
	}
	if c.MinStock.IsNegative() {
		problems["min_stock"] = "must not be negative"
	}
	if c.CostPrice.IsNegative() {
		problems["cost_price"] = "must not be negative"
	}
	if c.SuggestedMargin.IsNegative() {
		problems["suggested_margin"] = "must not be negative"
	}
	if !c.UnitEquivalence.IsPositive() {
		problems["unit_equivalence"] = "must be positive"
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid component").WithDetails(problems)
	}
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func notFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "component not found: "+id.String())
}

func notFoundOr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(id)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load component")
}

func asTyped(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
