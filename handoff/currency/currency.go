// Package currency formats the fixed negotiation fee for display. Amounts
// are decimals end to end; the rate table comes from configuration and is
// treated as opaque by the engine.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeSchedule is the negotiation fee in its base currency plus the
// conversion rates for supported display currencies.
type FeeSchedule struct {
	amount   decimal.Decimal
	currency string
	rates    map[string]decimal.Decimal
}

func NewFeeSchedule(amount, baseCurrency string, rates map[string]string) (*FeeSchedule, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid fee amount %q: %w", amount, err)
	}

	parsed := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		r, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", code, err)
		}
		parsed[code] = r
	}

	return &FeeSchedule{
		amount:   amt,
		currency: baseCurrency,
		rates:    parsed,
	}, nil
}

// Amount returns the fee in the base currency.
func (f *FeeSchedule) Amount() decimal.Decimal {
	return f.amount
}

// Convert returns the fee in the given currency. The base currency needs no
// rate entry.
func (f *FeeSchedule) Convert(code string) (decimal.Decimal, error) {
	if code == f.currency {
		return f.amount, nil
	}
	rate, ok := f.rates[code]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no conversion rate for %s", code)
	}
	return f.amount.Mul(rate).Round(2), nil
}

// Format renders the fee in the given currency, e.g. "2.50 EUR". Falls back
// to the base currency when no rate is configured.
func (f *FeeSchedule) Format(code string) string {
	converted, err := f.Convert(code)
	if err != nil {
		return fmt.Sprintf("%s %s", f.amount.StringFixed(2), f.currency)
	}
	return fmt.Sprintf("%s %s", converted.StringFixed(2), code)
}
