package enums

import "fmt"

// OrderStatus mirrors the order_status check constraint.
type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "pending_payment"
	OrderStatusPendingWhatsApp OrderStatus = "pending_whatsapp"
	OrderStatusPaymentInReview OrderStatus = "payment_in_review"
	OrderStatusPaymentVerified OrderStatus = "payment_verified"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCanceled        OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPendingWhatsApp,
	OrderStatusPaymentInReview,
	OrderStatusPaymentVerified,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order lifecycle ended.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

// AwaitingPayment reports whether the customer still owes a payment.
func (s OrderStatus) AwaitingPayment() bool {
	return s == OrderStatusPendingPayment || s == OrderStatusPendingWhatsApp
}

// AcceptsProof reports whether a payment proof may be attached in this status.
func (s OrderStatus) AcceptsProof() bool {
	return s == OrderStatusPendingPayment || s == OrderStatusPaymentInReview
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
