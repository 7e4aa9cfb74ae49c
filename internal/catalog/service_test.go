package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lunaplata/joyeria-backend/pkg/db/dbtest"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
)

type recordingDeleter struct {
	mu      sync.Mutex
	deleted []string
}

func (r *recordingDeleter) Delete(_ context.Context, object string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, object)
	return nil
}

func newTestService(t *testing.T) (Service, *Repository, *recordingDeleter) {
	t.Helper()
	client := dbtest.Open(t, &models.Product{}, &models.ProductTag{})
	repo := NewRepository(client.DB())
	deleter := &recordingDeleter{}
	svc, err := NewService(repo, client, deleter, nil)
	require.NoError(t, err)
	return svc, repo, deleter
}

func strPtr(s string) *string { return &s }

func TestTagRoundTripThroughIndex(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:  "Pulsera de hilo",
		Price: decimal.RequireFromString("149.90"),
		Stock: 4,
		Tags:  []string{"Pulseras, Para-Parejas"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pulseras", "para-parejas", "para", "parejas"}, created.Tags)

	_, err = svc.Create(ctx, CreateProductInput{Name: "Anillo", Price: decimal.NewFromInt(90), Tags: []string{"anillos"}})
	require.NoError(t, err)

	for _, category := range []string{"para-parejas", "Parejas", "pulseras"} {
		found, err := svc.List(ctx, Filters{Categories: []string{category}})
		require.NoError(t, err, category)
		require.Len(t, found, 1, category)
		assert.Equal(t, created.ID, found[0].ID)
	}

	all, err := svc.List(ctx, Filters{Categories: []string{"parejas", "anillos"}, Sort: SortNameAsc})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anillo", all[0].Name)
}

func TestListCategoryWithExtraSpacesMatchesIndexAndFilter(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:  "Dije doble",
		Price: decimal.NewFromInt(120),
		Tags:  []string{"Para Parejas"},
	})
	require.NoError(t, err)

	for _, categories := range [][]string{{"para  parejas"}, {" Para   Parejas ", "anillos"}} {
		found, err := svc.List(ctx, Filters{Categories: categories})
		require.NoError(t, err, categories)
		require.Len(t, found, 1, categories)
		assert.Equal(t, created.ID, found[0].ID)
	}
}

func TestUpdateRewritesIndexAndDropsOldImage(t *testing.T) {
	svc, repo, deleter := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:        "Collar",
		Price:       decimal.NewFromInt(250),
		Tags:        []string{"collares"},
		ImageObject: strPtr("products/old.png"),
	})
	require.NoError(t, err)

	newTags := []string{"Cadenas"}
	stock := 7
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{
		Tags:        &newTags,
		Stock:       &stock,
		ImageObject: strPtr("products/new.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cadenas"}, updated.Tags)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, []string{"products/old.png"}, deleter.deleted)

	stale, err := repo.ListByTag(ctx, "collares")
	require.NoError(t, err)
	assert.Empty(t, stale)

	negative := -1
	_, err = svc.Update(ctx, created.ID, UpdateProductInput{Stock: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateKeepsConcurrentStockDecrement(t *testing.T) {
	client := dbtest.Open(t, &models.Product{}, &models.ProductTag{})
	svc, err := NewService(NewRepository(client.DB()), client, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Arete", Price: decimal.NewFromInt(80), Stock: 5, Tags: []string{"aretes"}})
	require.NoError(t, err)

	// A payment verification commits its decrement after the edit has read the row.
	fired := false
	require.NoError(t, client.DB().Callback().Update().Before("gorm:update").Register("test:verify_between", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "products" {
			return
		}
		fired = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET stock = stock - 3 WHERE id = ?", created.ID).Error)
	}))

	name := "Arete de plata"
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{Name: &name})
	require.NoError(t, err)
	require.True(t, fired)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 2, updated.Stock)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, []string{"aretes"}, got.Tags)
}

func TestDeleteRemovesProductTagsAndImage(t *testing.T) {
	svc, repo, deleter := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:        "Aretes",
		Price:       decimal.NewFromInt(80),
		Tags:        []string{"aretes"},
		ImageObject: strPtr("products/aretes.png"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Equal(t, []string{"products/aretes.png"}, deleter.deleted)

	rows, err := repo.ListByTag(ctx, "aretes")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, uuid.New()), pkgerrors.CodeNotFound))
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Create(context.Background(), CreateProductInput{Name: "Dije", Price: decimal.Zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
