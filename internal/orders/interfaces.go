package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/internal/media"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	"github.com/lunaplata/joyeria-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters ListFilters) ([]models.Order, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// ListFilters narrows order listings. Zero values disable a filter.
type ListFilters struct {
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
	Limit      int
	// After resumes a newest-first listing below this position.
	After *pagination.Cursor
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type proofStore interface {
	Upload(ctx context.Context, kind enums.MediaKind, file media.File) (*media.Object, error)
	Delete(ctx context.Context, object string) error
}

type stockObserver interface {
	ObserveReservation(outcome string, duration time.Duration, units int)
}
