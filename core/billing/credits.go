package billing

import (
	"context"
	"fmt"
	"strconv"

	"tunesmith/logger"
	"tunesmith/model"
)

// creditPacks maps a checkout product to the number of credits it grants.
var creditPacks = map[string]int{
	"small":  10,
	"medium": 25,
	"large":  50,
}

// CheckoutEvent is the payment provider's notification of a paid order.
// ExternalCustomerID carries the user id handed to the provider at
// checkout time.
type CheckoutEvent struct {
	Type               string `json:"type"`
	ProductID          string `json:"productId"`
	ExternalCustomerID string `json:"externalCustomerId"`
}

// Ledger is the slice of the credit ledger billing needs.
type Ledger interface {
	Credit(ctx context.Context, userID int64, amount int) error
}

// Service settles paid checkouts into credit balances.
type Service struct {
	ledger Ledger
}

func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

// CreditsFor returns the credit amount a product grants, or false for an
// unknown product.
func CreditsFor(productID string) (int, bool) {
	amount, ok := creditPacks[productID]
	return amount, ok
}

// Settle applies one paid checkout to the customer's balance. An event
// without a customer reference is a provider misconfiguration, never a
// silent skip: the credits were paid for and must land somewhere.
func (s *Service) Settle(ctx context.Context, event CheckoutEvent) error {
	if event.ExternalCustomerID == "" {
		return model.NewValidationError("externalCustomerId",
			"checkout event carries no customer reference")
	}
	userID, err := strconv.ParseInt(event.ExternalCustomerID, 10, 64)
	if err != nil {
		return model.NewValidationError("externalCustomerId",
			fmt.Sprintf("malformed customer reference %q", event.ExternalCustomerID))
	}

	amount, ok := CreditsFor(event.ProductID)
	if !ok {
		return model.NewValidationError("productId",
			fmt.Sprintf("unknown product %q", event.ProductID))
	}

	if err := s.ledger.Credit(ctx, userID, amount); err != nil {
		return fmt.Errorf("credit user %d: %w", userID, err)
	}

	logger.Info("checkout settled",
		logger.Int64("userId", userID),
		logger.String("productId", event.ProductID),
		logger.Int("credits", amount))
	return nil
}
