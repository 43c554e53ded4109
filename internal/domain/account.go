/**
 * @description
 * This file defines the Account aggregate. An account holds a customer's
 * balance and is the only place where that balance can legally change.
 * Deposit and Withdraw are in-memory state transitions; durability is the
 * store's responsibility, invoked by the caller after the mutation. The
 * Version field is the optimistic-concurrency token checked by the store
 * on every save.
 */

package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Account is the aggregate root for a customer's monetary account.
// This struct maps directly to the `accounts` table in the database.
type Account struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"account_number"`
	OwnerName     string    `json:"owner_name"`
	Balance       Money     `json:"balance"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OpenAccount creates a new account with a zero balance in the given currency.
func OpenAccount(ownerName, currency string) (*Account, error) {
	if ownerName == "" {
		return nil, fmt.Errorf("account: owner name is required")
	}
	now := time.Now().UTC()
	return &Account{
		ID:            uuid.New(),
		AccountNumber: generateAccountNumber(),
		OwnerName:     ownerName,
		Balance:       ZeroMoney(currency),
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Deposit adds a positive amount to the balance.
func (a *Account) Deposit(amount Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("account %s: deposit %s: %w", a.ID, amount, ErrInvalidAmount)
	}
	balance, err := a.Balance.Add(amount)
	if err != nil {
		return fmt.Errorf("account %s: deposit: %w", a.ID, err)
	}
	a.Balance = balance
	return nil
}

// Withdraw removes a positive amount from the balance, rejecting overdrafts.
func (a *Account) Withdraw(amount Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("account %s: withdraw %s: %w", a.ID, amount, ErrInvalidAmount)
	}
	if a.Balance.Currency != amount.Currency {
		return fmt.Errorf("account %s: withdraw %s from %s balance: %w", a.ID, amount.Currency, a.Balance.Currency, ErrCurrencyMismatch)
	}
	if a.Balance.IsLessThan(amount) {
		return fmt.Errorf("account %s: balance %s, requested %s: %w", a.ID, a.Balance, amount, ErrInsufficientBalance)
	}
	balance, err := a.Balance.Subtract(amount)
	if err != nil {
		return fmt.Errorf("account %s: withdraw: %w", a.ID, err)
	}
	a.Balance = balance
	return nil
}

// generateAccountNumber produces the short numeric business identifier shown
// to customers. Uniqueness is enforced by the database constraint, not here.
func generateAccountNumber() string {
	return fmt.Sprintf("%010d", rand.Int63n(1_000_000_0000))
}
