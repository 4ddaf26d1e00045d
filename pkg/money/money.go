// Package money centralizes the decimal arithmetic used across the order,
// charge, and refund models. All amounts are shopspring/decimal values with
// explicit scale; float64 never appears on a money-carrying field.
package money

import "github.com/shopspring/decimal"

// Amount bundles a unit price and an extended total, mirroring the
// {unit, total} pairs that recur throughout the data model.
type Amount struct {
	Unit  decimal.Decimal `json:"unit"`
	Total decimal.Decimal `json:"total"`
}

// Zero returns the zero Amount.
func Zero() Amount {
	return Amount{Unit: decimal.Zero, Total: decimal.Zero}
}

// LineTotal computes unit * qty, the invariant `total = unit × reserved`
// that order lines and charge lines establish at creation time.
func LineTotal(unit decimal.Decimal, qty uint32) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// Convert applies an OrderCurrencySnapshot rate to an amount denominated in
// the buyer's currency, producing the merchant-currency equivalent.
func Convert(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}
