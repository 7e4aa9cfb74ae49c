package helpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/types"
)

func shop() config.ShopConfig {
	return config.ShopConfig{
		Currency:             "MXN",
		LocalDeliveryCost:    decimal.NewFromInt(60),
		NationalShippingCost: decimal.NewFromInt(150),
	}
}

func TestShippingCost(t *testing.T) {
	t.Parallel()
	cases := map[enums.ShippingMethod]string{
		enums.ShippingMethodPickup:           "0",
		enums.ShippingMethodLocalDelivery:    "60",
		enums.ShippingMethodNationalShipping: "150",
	}
	for method, want := range cases {
		got, err := ShippingCost(method, shop())
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s: %s", method, got)
	}

	_, err := ShippingCost("drone", shop())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestShippingOptionsListsEveryMethod(t *testing.T) {
	t.Parallel()
	opts := ShippingOptions(shop())
	require.Len(t, opts, 3)
	assert.Equal(t, enums.ShippingMethodPickup, opts[0].Method)
	assert.False(t, opts[0].RequiresAddress)
	assert.True(t, opts[2].RequiresAddress)
	assert.Equal(t, "MXN", opts[1].Currency)
}

func TestValidateShipping(t *testing.T) {
	t.Parallel()
	addr := &types.ShippingAddress{
		Street: "Av. Juárez", Number: "12", Colony: "Centro",
		City: "Puebla", State: "Puebla", PostalCode: "72000",
	}

	got, err := ValidateShipping(enums.ShippingMethodPickup, addr)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ValidateShipping(enums.ShippingMethodLocalDelivery, addr)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = ValidateShipping(enums.ShippingMethodNationalShipping, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ValidateShipping(enums.ShippingMethodNationalShipping, &types.ShippingAddress{Street: "x"})
	require.Error(t, err)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "postal_code")
	assert.NotContains(t, details, "street")
}

func TestValidateAvailability(t *testing.T) {
	t.Parallel()
	ok := AvailabilityInput{ProductID: uuid.New(), ProductName: "Anillo", Requested: 2, Stock: 2}
	short := AvailabilityInput{ProductID: uuid.New(), ProductName: "Collar", Requested: 3, Stock: 1}

	require.NoError(t, ValidateAvailability([]AvailabilityInput{ok}))

	err := ValidateAvailability([]AvailabilityInput{ok, short})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeOutOfStock, typed.Code())
	assert.Equal(t, "insufficient stock for Collar", typed.Message())
	details := typed.Details().(map[string]any)
	violations := details["violations"].([]StockViolation)
	require.Len(t, violations, 1)
	assert.Equal(t, 1, violations[0].Available)
}
