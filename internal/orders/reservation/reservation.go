// Package reservation commits the stock of a verified order.
package reservation

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
)

// Line is one requested product quantity. Several lines may name the same
// product with different customizations.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// Decrement describes the stock change applied to one product.
type Decrement struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Remaining int
}

// Shortfall is attached as details to INSUFFICIENT_STOCK errors.
type Shortfall struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Aggregate sums quantities per product, keeping first-seen order.
func Aggregate(lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if l.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// Reserve validates and decrements stock for every product in lines. It must
// run inside tx; any error leaves the caller to roll back, so either every
// product is decremented or none is.
//
// Product rows are locked FOR UPDATE in id order so two verifications sharing
// products cannot deadlock. Each UPDATE also guards stock >= qty.
func Reserve(ctx context.Context, tx *gorm.DB, lines []Line) ([]Decrement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	wanted, err := Aggregate(lines)
	if err != nil {
		return nil, err
	}
	if len(wanted) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}

	ids := make([]uuid.UUID, 0, len(wanted))
	for _, w := range wanted {
		ids = append(ids, w.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var rows []models.Product
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}

	for _, w := range wanted {
		p, ok := byID[w.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found: "+w.ProductID.String())
		}
		if p.Stock < w.Quantity {
			return nil, insufficient(p, w.Quantity, p.Stock)
		}
	}

	out := make([]Decrement, 0, len(wanted))
	for _, w := range wanted {
		p := byID[w.ProductID]
		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock >= ?", w.ProductID, w.Quantity).
			Update("stock", gorm.Expr("stock - ?", w.Quantity))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrement stock")
		}
		if res.RowsAffected != 1 {
			// Only reachable when the row lock was not honored (sqlite).
			return nil, insufficient(p, w.Quantity, p.Stock)
		}
		out = append(out, Decrement{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  w.Quantity,
			Remaining: p.Stock - w.Quantity,
		})
	}
	return out, nil
}

// LinesFromItems converts order items into reservation lines.
func LinesFromItems(items []models.OrderItem) []Line {
	out := make([]Line, 0, len(items))
	for _, it := range items {
		out = append(out, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func insufficient(p models.Product, requested, available int) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock for "+p.Name).WithDetails(Shortfall{
		ProductID: p.ID,
		Name:      p.Name,
		Requested: requested,
		Available: available,
	})
}
