package components

import (
	"github.com/shopspring/decimal"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// UnitCost is the cost of one usage unit: cost_price / unit_equivalence.
// A missing equivalence means purchase and usage units are the same.
func UnitCost(c models.Component) decimal.Decimal {
	if !c.UnitEquivalence.IsPositive() {
		return c.CostPrice
	}
	return c.CostPrice.DivRound(c.UnitEquivalence, 4)
}

// CalculatedPrice applies a percentage margin: cost × (1 + margin/100).
func CalculatedPrice(cost, margin decimal.Decimal) decimal.Decimal {
	return cost.Mul(hundred.Add(margin)).Div(hundred).Round(2)
}
