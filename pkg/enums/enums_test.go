package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("payment_verified")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaymentVerified, status)

	_, err = ParseOrderStatus("refunded")
	assert.Error(t, err)
}

func TestOrderStatusPredicates(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCanceled.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())

	assert.True(t, OrderStatusPendingPayment.AcceptsProof())
	assert.True(t, OrderStatusPaymentInReview.AcceptsProof())
	assert.False(t, OrderStatusPendingWhatsApp.AcceptsProof())
	assert.False(t, OrderStatusPaymentVerified.AcceptsProof())

	assert.True(t, OrderStatusPendingWhatsApp.AwaitingPayment())
	assert.False(t, OrderStatusPaymentInReview.AwaitingPayment())
}

func TestPaymentMethodInitialStatus(t *testing.T) {
	assert.Equal(t, OrderStatusPendingPayment, PaymentMethodBankTransfer.InitialOrderStatus())
	assert.Equal(t, OrderStatusPendingWhatsApp, PaymentMethodWhatsApp.InitialOrderStatus())

	_, err := ParsePaymentMethod("card")
	assert.Error(t, err)
}

func TestShippingMethods(t *testing.T) {
	methods := ShippingMethods()
	require.Len(t, methods, 3)
	assert.Equal(t, ShippingMethodPickup, methods[0])
	assert.False(t, ShippingMethodPickup.RequiresAddress())
	assert.True(t, ShippingMethodNationalShipping.RequiresAddress())

	methods[0] = "mutated"
	assert.Equal(t, ShippingMethodPickup, ShippingMethods()[0])
}

func TestUserRolePersistable(t *testing.T) {
	assert.True(t, UserRoleAdmin.Persistable())
	assert.False(t, UserRoleGuest.Persistable())
	assert.True(t, UserRoleGuest.IsValid())
}

func TestMediaKindPrefixes(t *testing.T) {
	assert.Equal(t, "products", MediaKindProductImage.ObjectPrefix())
	assert.Equal(t, "proofs", MediaKindPaymentProof.ObjectPrefix())

	kind, err := ParseMediaKind("payment_proof")
	require.NoError(t, err)
	assert.Equal(t, MediaKindPaymentProof, kind)
}

func TestOutboxEnums(t *testing.T) {
	assert.True(t, AggregateOrder.IsValid())
	assert.True(t, EventOrderPaymentVerified.IsValid())
	_, err := ParseOutboxEventType("license_expired")
	assert.Error(t, err)
}
