package valueobjects

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a price or provider payload omits the currency.
const DefaultCurrency = "ARS"

// Money is an amount in the currency's minor unit (cents for ARS/USD).
type Money struct {
	amountMinor int64
	currency    string
}

func NewMoney(amountMinor int64, cur string) Money {
	if cur == "" {
		cur = DefaultCurrency
	}
	return Money{
		amountMinor: amountMinor,
		currency:    strings.ToUpper(cur),
	}
}

// NewMoneyFromDecimal converts a provider decimal amount into minor units,
// rounding half-up at the currency's standard scale.
func NewMoneyFromDecimal(amount float64, cur string) (Money, error) {
	if cur == "" {
		cur = DefaultCurrency
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return Money{}, fmt.Errorf("invalid amount: %v", amount)
	}
	unit, err := currency.ParseISO(cur)
	if err != nil {
		return Money{}, fmt.Errorf("invalid currency %q: %w", cur, err)
	}

	scale, _ := currency.Standard.Rounding(unit)
	shifted := amount * math.Pow10(scale)
	// 1e-9 absorbs binary representation error such as 1.005*100 = 100.4999...
	minor := int64(math.Floor(shifted + 0.5 + 1e-9))
	return Money{amountMinor: minor, currency: unit.String()}, nil
}

func (m Money) AmountMinor() int64 {
	return m.amountMinor
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) IsZero() bool {
	return m.amountMinor == 0
}

func (m Money) Equals(other Money) bool {
	return m.amountMinor == other.amountMinor && m.currency == other.currency
}

// ApplyDiscount returns the amount reduced by percent (0-100). The discount
// itself is rounded half-up to the nearest minor unit.
func (m Money) ApplyDiscount(percent int) (Money, error) {
	if percent < 0 || percent > 100 {
		return Money{}, fmt.Errorf("discount percent out of range: %d", percent)
	}
	discount := (m.amountMinor*int64(percent) + 50) / 100
	return Money{amountMinor: m.amountMinor - discount, currency: m.currency}, nil
}

// Decimal returns the amount in major units, for provider requests only.
func (m Money) Decimal() float64 {
	return float64(m.amountMinor) / math.Pow10(m.scale())
}

func (m Money) scale() int {
	unit, err := currency.ParseISO(m.currency)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// String renders a stable, locale independent form like "ARS 1500.00".
func (m Money) String() string {
	return fmt.Sprintf("%s %.*f", m.currency, m.scale(), m.Decimal())
}

// Format renders the amount with the currency symbol for the given locale.
func (m Money) Format(tag language.Tag) string {
	unit, err := currency.ParseISO(m.currency)
	if err != nil {
		return m.String()
	}
	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(m.Decimal())))
}
