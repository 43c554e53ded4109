/**
 * @description
 * This file defines the Money value object used for every balance and transfer
 * amount in the service. Amounts are modeled with shopspring/decimal to avoid
 * floating-point inaccuracies with financial data, and are tagged with an ISO
 * currency code. A Money value is never negative; a debit that would go below
 * zero is rejected as an error rather than represented as negative money.
 *
 * @notes
 * - Money is immutable. Every operation returns a fresh value.
 * - Two Money values can only be combined when their currencies match.
 */

package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// JPY is the default currency for newly opened accounts.
const JPY = "JPY"

// Money represents a non-negative monetary amount in a single currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney builds a Money value, rejecting negative amounts and blank
// currency codes.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return Money{}, fmt.Errorf("money: currency is required: %w", ErrInvalidAmount)
	}
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("money: %s %s: %w", amount, currency, ErrNegativeAmount)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// MoneyFromString parses a decimal string into a Money value.
func MoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", amount, ErrInvalidAmount)
	}
	return NewMoney(d, currency)
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	m, _ := NewMoney(decimal.Zero, currency)
	return m
}

// Add returns the sum of two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("money: add %s to %s: %w", other.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return NewMoney(m.Amount.Add(other.Amount), m.Currency)
}

// Subtract returns the difference of two amounts of the same currency. The
// result must remain non-negative; a larger subtrahend is an error.
func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("money: subtract %s from %s: %w", other.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return NewMoney(m.Amount.Sub(other.Amount), m.Currency)
}

// IsLessThan reports whether m is numerically smaller than other.
func (m Money) IsLessThan(other Money) bool {
	return m.Amount.LessThan(other.Amount)
}

// IsLessThanOrEqual reports whether m is numerically at most other.
func (m Money) IsLessThanOrEqual(other Money) bool {
	return m.Amount.LessThanOrEqual(other.Amount)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// Equals reports whether two Money values have the same currency and amount.
func (m Money) Equals(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount, m.Currency)
}
