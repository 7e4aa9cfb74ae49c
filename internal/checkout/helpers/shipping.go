package helpers

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/types"
)

// ShippingOption is one delivery choice offered at checkout.
type ShippingOption struct {
	Method          enums.ShippingMethod `json:"method"`
	Label           string               `json:"label"`
	Cost            decimal.Decimal      `json:"cost"`
	Currency        string               `json:"currency"`
	RequiresAddress bool                 `json:"requires_address"`
}

var shippingLabels = map[enums.ShippingMethod]string{
	enums.ShippingMethodPickup:           "Recoger en tienda",
	enums.ShippingMethodLocalDelivery:    "Entrega local",
	enums.ShippingMethodNationalShipping: "Envío nacional",
}

// ShippingOptions lists every method with its configured cost.
func ShippingOptions(shop config.ShopConfig) []ShippingOption {
	methods := enums.ShippingMethods()
	out := make([]ShippingOption, 0, len(methods))
	for _, m := range methods {
		cost, _ := ShippingCost(m, shop)
		out = append(out, ShippingOption{
			Method:          m,
			Label:           shippingLabels[m],
			Cost:            cost,
			Currency:        shop.Currency,
			RequiresAddress: m.RequiresAddress(),
		})
	}
	return out
}

// ShippingCost returns the flat cost for method.
func ShippingCost(method enums.ShippingMethod, shop config.ShopConfig) (decimal.Decimal, error) {
	switch method {
	case enums.ShippingMethodPickup:
		return decimal.Zero, nil
	case enums.ShippingMethodLocalDelivery:
		return shop.LocalDeliveryCost.Round(2), nil
	case enums.ShippingMethodNationalShipping:
		return shop.NationalShippingCost.Round(2), nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipping method %q", method))
	}
}

// ValidateShipping requires an address for every method except pickup.
// Pickup orders never keep an address.
func ValidateShipping(method enums.ShippingMethod, address *types.ShippingAddress) (*types.ShippingAddress, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipping method %q", method))
	}
	if !method.RequiresAddress() {
		return nil, nil
	}
	if address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required").
			WithDetails(map[string]string{"shipping_address": "is required"})
	}
	missing := map[string]string{}
	for field, value := range map[string]string{
		"street":      address.Street,
		"number":      address.Number,
		"colony":      address.Colony,
		"city":        address.City,
		"state":       address.State,
		"postal_code": address.PostalCode,
	} {
		if strings.TrimSpace(value) == "" {
			missing[field] = "is required"
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").WithDetails(missing)
	}
	return address, nil
}
