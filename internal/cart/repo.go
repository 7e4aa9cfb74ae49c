package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds cart line persistence to db.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) CartRepository {
	return &repository{db: tx}
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *repository) FindByKey(ctx context.Context, ownerID uuid.UUID, key string) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND line_key = ?", ownerID, key).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindByID(ctx context.Context, ownerID, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, lineID).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) Create(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) AddQuantity(ctx context.Context, lineID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", lineID).
		Updates(map[string]any{"quantity": gorm.Expr("quantity + ?", delta)}).Error
}

func (r *repository) Delete(ctx context.Context, ownerID, lineID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, lineID).Delete(&models.CartLine{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// QuantityForProduct sums the quantity of every line of one product, across
// customizations.
func (r *repository) QuantityForProduct(ctx context.Context, ownerID, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Scan(&total).Error
	return total, err
}
