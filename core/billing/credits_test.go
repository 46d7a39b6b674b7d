package billing

import (
	"context"
	"testing"

	"tunesmith/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	credits map[int64]int
	err     error
}

func (l *fakeLedger) Credit(ctx context.Context, userID int64, amount int) error {
	if l.err != nil {
		return l.err
	}
	if l.credits == nil {
		l.credits = make(map[int64]int)
	}
	l.credits[userID] += amount
	return nil
}

func TestCreditsFor(t *testing.T) {
	cases := map[string]int{
		"small":  10,
		"medium": 25,
		"large":  50,
	}
	for product, want := range cases {
		got, ok := CreditsFor(product)
		require.True(t, ok, product)
		assert.Equal(t, want, got, product)
	}

	_, ok := CreditsFor("enterprise")
	assert.False(t, ok)
}

func TestSettleGrantsCredits(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(ledger)

	err := svc.Settle(context.Background(), CheckoutEvent{
		Type:               "order.paid",
		ProductID:          "medium",
		ExternalCustomerID: "42",
	})
	require.NoError(t, err)
	assert.Equal(t, 25, ledger.credits[42])
}

func TestSettleAccumulates(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(ledger)

	for i := 0; i < 2; i++ {
		err := svc.Settle(context.Background(), CheckoutEvent{
			ProductID:          "small",
			ExternalCustomerID: "42",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 20, ledger.credits[42])
}

func TestSettleMissingCustomer(t *testing.T) {
	svc := NewService(&fakeLedger{})

	err := svc.Settle(context.Background(), CheckoutEvent{ProductID: "small"})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestSettleMalformedCustomer(t *testing.T) {
	svc := NewService(&fakeLedger{})

	err := svc.Settle(context.Background(), CheckoutEvent{
		ProductID:          "small",
		ExternalCustomerID: "not-a-number",
	})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestSettleUnknownProduct(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(ledger)

	err := svc.Settle(context.Background(), CheckoutEvent{
		ProductID:          "mega",
		ExternalCustomerID: "42",
	})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Empty(t, ledger.credits)
}

func TestSettleUnknownUser(t *testing.T) {
	ledger := &fakeLedger{err: model.ErrNotFound}
	svc := NewService(ledger)

	err := svc.Settle(context.Background(), CheckoutEvent{
		ProductID:          "small",
		ExternalCustomerID: "42",
	})
	require.ErrorIs(t, err, model.ErrNotFound)
}
