package cart

import (
	"github.com/google/uuid"

	"github.com/lunaplata/joyeria-backend/pkg/types"
)

// LineKey derives the cart line identity for a product and customization.
// Identical customizations share a key and merge; distinct ones do not.
// A color and a text with the same value collide on one product and merge.
func LineKey(productID uuid.UUID, c types.Customization) string {
	switch c.Kind() {
	case types.CustomizationNone:
		return productID.String()
	case types.CustomizationColor, types.CustomizationText, types.CustomizationBoth:
		return productID.String() + "-" + c.Discriminator()
	default:
		return productID.String()
	}
}
