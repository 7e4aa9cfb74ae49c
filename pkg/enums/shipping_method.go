package enums

type ShippingMethod string

const (
	ShippingMethodPickup           ShippingMethod = "pickup"
	ShippingMethodLocalDelivery    ShippingMethod = "local_delivery"
	ShippingMethodNationalShipping ShippingMethod = "national_shipping"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodPickup,
	ShippingMethodLocalDelivery,
	ShippingMethodNationalShipping,
}

// ShippingMethods lists every method in display order.
func ShippingMethods() []ShippingMethod {
	out := make([]ShippingMethod, len(validShippingMethods))
	copy(out, validShippingMethods)
	return out
}

func (s ShippingMethod) String() string {
	return string(s)
}

func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// RequiresAddress reports whether the method ships to the customer.
func (s ShippingMethod) RequiresAddress() bool {
	return s != ShippingMethodPickup
}
