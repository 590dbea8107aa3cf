package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusProcessing, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusConfirmed, false},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusDisputed, true},
		{OrderStatusDisputed, OrderStatusDelivered, true},
		{OrderStatusDisputed, OrderStatusCancelled, true},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_Flags(t *testing.T) {
	assert.True(t, OrderStatusProcessing.IsCancellable())
	assert.False(t, OrderStatusShipped.IsCancellable())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.False(t, OrderStatusDisputed.IsTerminal())

	_, err := NewOrderStatus("lost")
	assert.True(t, apperror.IsValidation(err))
}

func TestDisputeStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusUnderReview))
	assert.True(t, DisputeStatusUnderReview.CanTransitionTo(DisputeStatusEscalated))
	assert.False(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusEscalated))
	assert.True(t, DisputeStatusEscalated.CanTransitionTo(DisputeStatusResolved))
	assert.False(t, DisputeStatusResolved.CanTransitionTo(DisputeStatusRejected))
}

func TestNewAmount(t *testing.T) {
	_, err := NewAmount(decimal.Zero)
	assert.True(t, apperror.IsValidation(err))

	_, err = NewAmount(decimal.RequireFromString("-5"))
	assert.True(t, apperror.IsValidation(err))

	_, err = NewAmount(decimal.RequireFromString("1.005"))
	assert.True(t, apperror.IsValidation(err))

	amount, err := NewAmount(decimal.RequireFromString("30.50"))
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("30.5")))

	_, err = ParseAmount("abc")
	assert.True(t, apperror.IsValidation(err))
}

func TestCommission_BankersRounding(t *testing.T) {
	rate := decimal.RequireFromString("0.10")

	// 0.125 -> 0.12, 0.135 -> 0.14
	assert.Equal(t, "0.12", Commission(decimal.RequireFromString("1.25"), rate).StringFixed(2))
	assert.Equal(t, "0.14", Commission(decimal.RequireFromString("1.35"), rate).StringFixed(2))
	assert.Equal(t, "45.00", Commission(decimal.RequireFromString("450"), rate).StringFixed(2))

	assert.NoError(t, ValidateCommissionRate(rate))
	assert.Error(t, ValidateCommissionRate(decimal.NewFromInt(1)))
	assert.Error(t, ValidateCommissionRate(decimal.RequireFromString("-0.01")))
}
