package types

import "strings"

// CustomerInfo is the contact snapshot stored on an order.
type CustomerInfo struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"required,min=7,max=20"`
}

// ShippingAddress is stored as json on orders shipped to the customer.
type ShippingAddress struct {
	Street     string  `json:"street" validate:"required"`
	Number     string  `json:"number" validate:"required"`
	Interior   *string `json:"interior,omitempty"`
	Colony     string  `json:"colony" validate:"required"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required,len=5,numeric"`
	References *string `json:"references,omitempty"`
}

// OneLine formats the address for logs and receipts.
func (a ShippingAddress) OneLine() string {
	parts := []string{strings.TrimSpace(a.Street + " " + a.Number)}
	if a.Interior != nil && strings.TrimSpace(*a.Interior) != "" {
		parts = append(parts, "Int. "+strings.TrimSpace(*a.Interior))
	}
	parts = append(parts, a.Colony, a.City, a.State, a.PostalCode)
	return strings.Join(parts, ", ")
}
