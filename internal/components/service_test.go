package components

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaplata/joyeria-backend/pkg/db/dbtest"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) Service {
	t.Helper()
	client := dbtest.Open(t, &models.Component{})
	svc, err := NewService(NewRepository(client.DB()), client, nil)
	require.NoError(t, err)
	return svc
}

func beads() CreateComponentInput {
	return CreateComponentInput{
		Name:            "Chaquira checa",
		Type:            "Chaquira",
		Stock:           d("10"),
		MinStock:        d("2"),
		CostPrice:       d("40"),
		SuggestedMargin: d("150"),
		PurchaseUnit:    "gramo",
		UsageUnit:       "pieza",
		UnitEquivalence: d("8"),
	}
}

func TestCostingHelpers(t *testing.T) {
	t.Parallel()
	c := models.Component{CostPrice: d("40"), UnitEquivalence: d("8")}
	assert.True(t, UnitCost(c).Equal(d("5")))

	c.UnitEquivalence = decimal.Zero
	assert.True(t, UnitCost(c).Equal(d("40")))

	assert.True(t, CalculatedPrice(d("40"), d("150")).Equal(d("100")))
	assert.True(t, CalculatedPrice(d("10"), decimal.Zero).Equal(d("10")))
}

func TestCreateDerivesPrices(t *testing.T) {
	svc := newTestService(t)
	dto, err := svc.Create(context.Background(), beads())
	require.NoError(t, err)

	assert.Equal(t, "chaquira", dto.Type)
	assert.True(t, dto.CalculatedPrice.Equal(d("100")), dto.CalculatedPrice.String())
	assert.True(t, dto.UnitCost.Equal(d("5")))
	assert.False(t, dto.LowStock)

	bad := beads()
	bad.UnitEquivalence = d("-1")
	_, err = svc.Create(context.Background(), bad)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListByTypeAndLowStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, beads())
	require.NoError(t, err)

	wire := beads()
	wire.Name = "Alambre de plata"
	wire.Type = "alambre"
	wire.Stock = d("1")
	_, err = svc.Create(ctx, wire)
	require.NoError(t, err)

	byType, err := svc.List(ctx, ListFilters{Type: "chaquira"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Chaquira checa", byType[0].Name)

	low, err := svc.List(ctx, ListFilters{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Alambre de plata", low[0].Name)
	assert.True(t, low[0].LowStock)
}

func TestUpdateRecomputesCalculatedPrice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, beads())
	require.NoError(t, err)

	margin := d("50")
	updated, err := svc.Update(ctx, created.ID, UpdateComponentInput{SuggestedMargin: &margin})
	require.NoError(t, err)
	assert.True(t, updated.CalculatedPrice.Equal(d("60")))

	_, err = svc.Update(ctx, uuid.New(), UpdateComponentInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRecordUsageAndAdjustStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, beads())
	require.NoError(t, err)

	used, err := svc.RecordUsage(ctx, created.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, used.UsageCount)
	assert.True(t, used.Stock.Equal(d("10")))

	_, err = svc.RecordUsage(ctx, created.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.RecordUsage(ctx, uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	adjusted, err := svc.AdjustStock(ctx, created.ID, d("-8.5"))
	require.NoError(t, err)
	assert.True(t, adjusted.Stock.Equal(d("1.5")), adjusted.Stock.String())
	assert.True(t, adjusted.LowStock)

	_, err = svc.AdjustStock(ctx, created.ID, d("-2"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("1.5")))
}

func TestEstimate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	bead, err := svc.Create(ctx, beads())
	require.NoError(t, err)

	clasp := beads()
	clasp.Name = "Broche"
	clasp.Type = "broche"
	clasp.CostPrice = d("12")
	clasp.SuggestedMargin = d("100")
	clasp.PurchaseUnit = "pieza"
	clasp.UnitEquivalence = d("1")
	broche, err := svc.Create(ctx, clasp)
	require.NoError(t, err)

	res, err := svc.Estimate(ctx, EstimateInput{Lines: []EstimateLine{
		{ComponentID: bead.ID, Quantity: d("40")},
		{ComponentID: broche.ID, Quantity: d("1")},
	}})
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.True(t, res.TotalCost.Equal(d("212")), res.TotalCost.String())
	assert.True(t, res.SuggestedPrice.Equal(d("524")), res.SuggestedPrice.String())

	flat := d("0")
	res, err = svc.Estimate(ctx, EstimateInput{
		Lines:  []EstimateLine{{ComponentID: bead.ID, Quantity: d("4")}},
		Margin: &flat,
	})
	require.NoError(t, err)
	assert.True(t, res.SuggestedPrice.Equal(d("20")))

	_, err = svc.Estimate(ctx, EstimateInput{Lines: []EstimateLine{{ComponentID: uuid.New(), Quantity: d("1")}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, beads())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
}
