package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to QuoteStatus
		want     bool
	}{
		{QuotePending, QuoteResponded, true},
		{QuotePending, QuoteExpired, true},
		{QuotePending, QuoteAccepted, false},
		{QuoteResponded, QuoteAccepted, true},
		{QuoteResponded, QuoteRejected, true},
		{QuoteResponded, QuoteExpired, true},
		{QuoteResponded, QuotePending, false},
		{QuoteAccepted, QuoteRejected, false},
		{QuoteRejected, QuoteResponded, false},
		{QuoteExpired, QuoteResponded, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderShipped, false},
		{OrderConfirmed, OrderShipped, true},
		{OrderConfirmed, OrderCancelled, true},
		{OrderProcessing, OrderShipped, true},
		{OrderProcessing, OrderCancelled, false},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderRefunded, true},
		{OrderDelivered, OrderShipped, false},
		{OrderCancelled, OrderConfirmed, false},
		{OrderRefunded, OrderPending, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestOrderCanCancel(t *testing.T) {
	assert.True(t, OrderPending.CanCancel())
	assert.True(t, OrderConfirmed.CanCancel())
	assert.False(t, OrderProcessing.CanCancel())
	assert.False(t, OrderShipped.CanCancel())
	assert.False(t, OrderDelivered.CanCancel())
	assert.False(t, OrderCancelled.CanCancel())
}

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentProcessing, true},
		{PaymentPending, PaymentCompleted, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPending, PaymentRefunded, false},
		{PaymentProcessing, PaymentCompleted, true},
		{PaymentProcessing, PaymentCancelled, true},
		{PaymentCompleted, PaymentRefunded, true},
		{PaymentCompleted, PaymentFailed, false},
		{PaymentFailed, PaymentPending, false},
		{PaymentRefunded, PaymentCompleted, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}

	assert.True(t, PaymentCompleted.CanRefund())
	assert.False(t, PaymentPending.CanRefund())
	assert.False(t, PaymentRefunded.CanRefund())
}

func TestShipmentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ShipmentStatus
		want     bool
	}{
		{ShipmentPendingPickup, ShipmentPickedUp, true},
		{ShipmentPendingPickup, ShipmentInTransit, false},
		{ShipmentPickedUp, ShipmentInTransit, true},
		{ShipmentPickedUp, ShipmentDelayed, true},
		{ShipmentInTransit, ShipmentCustomsClearance, true},
		{ShipmentInTransit, ShipmentOutForDelivery, true},
		{ShipmentCustomsClearance, ShipmentInTransit, true},
		{ShipmentOutForDelivery, ShipmentDelivered, true},
		{ShipmentOutForDelivery, ShipmentFailedDelivery, true},
		{ShipmentDelayed, ShipmentInTransit, true},
		{ShipmentFailedDelivery, ShipmentOutForDelivery, true},
		{ShipmentFailedDelivery, ShipmentReturned, true},
		{ShipmentDelivered, ShipmentReturned, false},
		{ShipmentReturned, ShipmentOutForDelivery, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, QuotePending.IsValid())
	assert.False(t, QuoteStatus("bogus").IsValid())
	assert.True(t, OrderShipped.IsValid())
	assert.False(t, OrderStatus("").IsValid())
	assert.True(t, PaymentCompleted.IsValid())
	assert.False(t, PaymentStatus("done").IsValid())
	assert.True(t, ShipmentCustomsClearance.IsValid())
	assert.False(t, ShipmentStatus("lost").IsValid())
	assert.True(t, RoleSupplier.IsValid())
	assert.False(t, UserRole("root").IsValid())
}

func TestComputeTotals(t *testing.T) {
	items := []OrderItem{
		{Quantity: 10, UnitPrice: 2.5, LineTotal: 25},
		{Quantity: 3, UnitPrice: 100, LineTotal: 300},
	}

	subtotal, total := ComputeTotals(items, 50, 32.5)
	assert.Equal(t, 325.0, subtotal)
	assert.Equal(t, 407.5, total)

	subtotal, total = ComputeTotals(nil, 0, 0)
	assert.Zero(t, subtotal)
	assert.Zero(t, total)
}

func TestPushRecentlyViewed(t *testing.T) {
	list := PushRecentlyViewed(nil, "a")
	assert.Equal(t, []string{"a"}, list)

	list = PushRecentlyViewed(list, "b")
	assert.Equal(t, []string{"b", "a"}, list)

	// Re-viewing moves the product to the front without duplicating it.
	list = PushRecentlyViewed(list, "a")
	assert.Equal(t, []string{"a", "b"}, list)

	full := make([]string, 0, RecentlyViewedCap)
	for i := 0; i < RecentlyViewedCap; i++ {
		full = append(full, fmt.Sprintf("p%d", i))
	}
	pushed := PushRecentlyViewed(full, "new")
	assert.Len(t, pushed, RecentlyViewedCap)
	assert.Equal(t, "new", pushed[0])
	assert.NotContains(t, pushed, fmt.Sprintf("p%d", RecentlyViewedCap-1))
}
