package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	// ErrCurrencyMismatch is returned when arithmetic combines two currencies.
	ErrCurrencyMismatch = errors.New("amounts have different currencies")
	// ErrInvalidCurrency is returned for currency codes that are not ISO 4217.
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// Amount is an immutable monetary value paired with an ISO 4217 currency code.
// Operations never mutate; they return a new Amount.
type Amount struct {
	Value        decimal.Decimal `json:"value"`
	CurrencyCode string          `json:"currencyCode"`
}

// New validates the currency code and builds an Amount.
func New(value decimal.Decimal, currencyCode string) (Amount, error) {
	if _, err := currency.ParseISO(currencyCode); err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currencyCode)
	}
	return Amount{Value: value, CurrencyCode: currencyCode}, nil
}

// Zero returns the zero amount in the given currency.
func Zero(currencyCode string) (Amount, error) {
	return New(decimal.Zero, currencyCode)
}

// Parse builds an Amount from its string form "value currencyCode",
// e.g. "10.50 EUR".
func Parse(s string) (Amount, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) != 2 {
		return Amount{}, fmt.Errorf("invalid amount string %q: expected \"value currencyCode\"", s)
	}
	value, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount value %q: %w", parts[0], err)
	}
	return New(value, parts[1])
}

// MustParse is Parse for trusted literals; it panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns the sum of both amounts. Both must share a currency.
func (a Amount) Add(other Amount) (Amount, error) {
	if a.CurrencyCode != other.CurrencyCode {
		return Amount{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a.CurrencyCode, other.CurrencyCode)
	}
	return Amount{Value: a.Value.Add(other.Value), CurrencyCode: a.CurrencyCode}, nil
}

// Negate returns the amount with its sign flipped.
func (a Amount) Negate() Amount {
	return Amount{Value: a.Value.Neg(), CurrencyCode: a.CurrencyCode}
}

// IsZero reports whether the value is exactly zero.
func (a Amount) IsZero() bool { return a.Value.IsZero() }

// IsPositive reports whether the value is greater than zero.
func (a Amount) IsPositive() bool { return a.Value.IsPositive() }

// IsNegative reports whether the value is less than zero.
func (a Amount) IsNegative() bool { return a.Value.IsNegative() }

// Equal reports value and currency equality.
func (a Amount) Equal(other Amount) bool {
	return a.CurrencyCode == other.CurrencyCode && a.Value.Equal(other.Value)
}

func (a Amount) String() string {
	return a.Value.String() + " " + a.CurrencyCode
}
