package components

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
)

// ListFilters narrows component listings.
type ListFilters struct {
	Type     string
	LowStock bool
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, c *models.Component) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) Save(ctx context.Context, c *models.Component) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Component{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	var c models.Component
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	var c models.Component
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Component, error) {
	out := make(map[uuid.UUID]models.Component, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Component
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}

// List returns components ordered by type then name.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Component, error) {
	q := r.db.WithContext(ctx)
	if filters.Type != "" {
		q = q.Where("type = ?", filters.Type)
	}
	if filters.LowStock {
		q = q.Where("stock <= min_stock")
	}
	var rows []models.Component
	err := q.Order("type ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) IncrementUsage(ctx context.Context, id uuid.UUID, count int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Component{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + ?", count))
	return res.RowsAffected == 1, res.Error
}

// AdjustStock adds delta to stock unless the result would be negative.
func (r *Repository) AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Component{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	return res.RowsAffected == 1, res.Error
}
