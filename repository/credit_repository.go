package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tunesmith/model"
)

// CreditLedger defines the per-user credit balance operations. Reservation
// must be a single atomic check-and-decrement: a read-then-write here would
// let two concurrent submissions both spend the last credit.
type CreditLedger interface {
	// ReserveTx atomically decrements the balance by one inside an open
	// transaction. Returns model.ErrInsufficientCredits when the balance
	// is zero, in which case nothing was decremented.
	ReserveTx(ctx context.Context, tx *sql.Tx, userID int64) error

	// Refund increments the balance by one. Used exactly once per failed
	// dispatch or failed execution.
	Refund(ctx context.Context, userID int64) error

	// Credit adds a purchased amount to the balance. Additive only.
	Credit(ctx context.Context, userID int64, amount int) error

	// Balance returns the current balance.
	Balance(ctx context.Context, userID int64) (int, error)
}

// mysqlCreditLedger implements CreditLedger for MySQL.
type mysqlCreditLedger struct {
	db *sql.DB
}

// NewMySQLCreditLedger creates a new mysqlCreditLedger.
func NewMySQLCreditLedger(db *sql.DB) CreditLedger {
	return &mysqlCreditLedger{db: db}
}

// ReserveTx performs the conditional decrement. The WHERE clause carries the
// balance check so the store serializes concurrent reservations.
func (r *mysqlCreditLedger) ReserveTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET credits = credits - 1 WHERE id = ? AND credits >= 1", userID)
	if err != nil {
		return fmt.Errorf("failed to reserve credit for user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for credit reservation: %w", err)
	}
	if affected == 0 {
		return model.ErrInsufficientCredits
	}
	return nil
}

// Refund returns one credit to the user.
func (r *mysqlCreditLedger) Refund(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE users SET credits = credits + 1 WHERE id = ?", userID); err != nil {
		return fmt.Errorf("failed to refund credit for user %d: %w", userID, err)
	}
	return nil
}

// Credit adds amount credits to the user's balance.
func (r *mysqlCreditLedger) Credit(ctx context.Context, userID int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET credits = credits + ? WHERE id = ?", amount, userID)
	if err != nil {
		return fmt.Errorf("failed to credit user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for credit top-up: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Balance returns the user's current credit balance.
func (r *mysqlCreditLedger) Balance(ctx context.Context, userID int64) (int, error) {
	var balance int
	err := r.db.QueryRowContext(ctx,
		"SELECT credits FROM users WHERE id = ?", userID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, model.ErrNotFound
		}
		return 0, fmt.Errorf("failed to read credit balance for user %d: %w", userID, err)
	}
	return balance, nil
}
