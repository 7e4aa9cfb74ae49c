package catalog

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
)

// Repository persists products and keeps the product_tags index in step.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return err
	}
	return r.ReplaceTags(ctx, product.ID, product.Tags)
}

// UpdateColumns writes only the named columns of product (updated_at follows
// along) and rewrites the tag index when tags are among them.
func (r *Repository) UpdateColumns(ctx context.Context, product *models.Product, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(product).Select(columns).Updates(product).Error; err != nil {
		return err
	}
	if !slices.Contains(columns, "tags") {
		return nil
	}
	return r.ReplaceTags(ctx, product.ID, product.Tags)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&models.ProductTag{}).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// FindByIDForUpdate locks the product row for the rest of the transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products that exist among ids, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// ListAll returns the full catalog in creation order.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// ListByTag resolves candidates through the product_tags index.
func (r *Repository) ListByTag(ctx context.Context, tag string) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN product_tags pt ON pt.product_id = products.id").
		Where("pt.tag = ?", normalizeTag(tag)).
		Order("products.created_at ASC").
		Order("products.id ASC").
		Find(&rows).Error
	return rows, err
}

// ReplaceTags rewrites the index rows for one product.
func (r *Repository) ReplaceTags(ctx context.Context, productID uuid.UUID, tags []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductTag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]models.ProductTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, models.ProductTag{Tag: tag, ProductID: productID})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
