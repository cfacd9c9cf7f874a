// Package money provides fixed-scale monetary amounts backed by integer minor units.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by every amount.
const Scale = 2

var (
	ErrInvalidAmount    = errors.New("invalid monetary amount")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidQuantity  = errors.New("quantity must not be negative")
)

// Money is an immutable amount expressed in minor units (cents) of a currency.
type Money struct {
	minor    int64
	currency string
}

// Of builds an amount from minor units. The currency must be a three letter ISO-4217 code.
func Of(minorUnits int64, currency string) (Money, error) {
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{minor: minorUnits, currency: code}, nil
}

// MustOf is Of for package-level defaults and tests. It panics on an invalid currency.
func MustOf(minorUnits int64, currency string) Money {
	m, err := Of(minorUnits, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{currency: strings.ToUpper(strings.TrimSpace(currency))}
	}
	return Money{currency: code}
}

// Parse reads a decimal string such as "12.34". More than two fractional digits are rejected
// rather than rounded.
func Parse(raw, currency string) (Money, error) {
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !d.Equal(d.Truncate(Scale)) {
		return Money{}, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, raw, Scale)
	}
	minor := d.Shift(Scale)
	if !minor.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, raw)
	}
	return Money{minor: minor.IntPart(), currency: code}, nil
}

// RoundHalfUp converts an exact decimal into Money, rounding half away from zero to the
// nearest minor unit. It is the single rounding point for derived amounts and fails with
// ErrInvalidAmount when the result does not fit in minor units.
func RoundHalfUp(d decimal.Decimal, currency string) (Money, error) {
	minor := d.Round(Scale).Shift(Scale)
	if !minor.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: %s overflows", ErrInvalidAmount, d.String())
	}
	return Money{minor: minor.IntPart(), currency: strings.ToUpper(strings.TrimSpace(currency))}, nil
}

// NormalizeCurrency upper-cases a currency code and checks its shape.
func NormalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: currency %q", ErrInvalidAmount, currency)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency %q", ErrInvalidAmount, currency)
		}
	}
	return code, nil
}

func (m Money) MinorUnits() int64 { return m.minor }

func (m Money) Currency() string { return m.currency }

// Decimal exposes the exact value for rate arithmetic.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minor, -Scale)
}

// String renders the amount with exactly two fractional digits, without the currency.
func (m Money) String() string {
	return m.Decimal().StringFixed(Scale)
}

func (m Money) IsNegative() bool { return m.minor < 0 }

func (m Money) IsZero() bool { return m.minor == 0 }

func (m Money) IsPositive() bool { return m.minor > 0 }

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	sum := m.minor + other.minor
	if (other.minor > 0 && sum < m.minor) || (other.minor < 0 && sum > m.minor) {
		return Money{}, fmt.Errorf("%w: %s + %s overflows", ErrInvalidAmount, m, other)
	}
	return Money{minor: sum, currency: m.currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	diff := m.minor - other.minor
	if (other.minor < 0 && diff < m.minor) || (other.minor > 0 && diff > m.minor) {
		return Money{}, fmt.Errorf("%w: %s - %s overflows", ErrInvalidAmount, m, other)
	}
	return Money{minor: diff, currency: m.currency}, nil
}

// MultiplyByQuantity is exact; no rounding is involved. A product that does not fit in minor
// units fails with ErrInvalidAmount.
func (m Money) MultiplyByQuantity(q Quantity) (Money, error) {
	if q < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, q)
	}
	product := m.minor * int64(q)
	if q != 0 && product/int64(q) != m.minor {
		return Money{}, fmt.Errorf("%w: %s x %d overflows", ErrInvalidAmount, m, q)
	}
	return Money{minor: product, currency: m.currency}, nil
}

// MultiplyByRate multiplies by a fractional rate and rounds half up to the nearest minor unit.
func (m Money) MultiplyByRate(rate decimal.Decimal) (Money, error) {
	return RoundHalfUp(m.Decimal().Mul(rate), m.currency)
}

// Compare returns -1, 0 or 1. Amounts in different currencies are not ordered.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	switch {
	case m.minor < other.minor:
		return -1, nil
	case m.minor > other.minor:
		return 1, nil
	default:
		return 0, nil
	}
}

// Max returns the larger of a and b.
func Max(a, b Money) (Money, error) {
	cmp, err := a.Compare(b)
	if err != nil {
		return Money{}, err
	}
	if cmp >= 0 {
		return a, nil
	}
	return b, nil
}

// Min returns the smaller of a and b.
func Min(a, b Money) (Money, error) {
	cmp, err := a.Compare(b)
	if err != nil {
		return Money{}, err
	}
	if cmp <= 0 {
		return a, nil
	}
	return b, nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

// Quantity counts units of a product.
type Quantity int64

// NewQuantity rejects negative counts.
func NewQuantity(n int64) (Quantity, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, n)
	}
	return Quantity(n), nil
}

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) Int64() int64 { return int64(q) }
