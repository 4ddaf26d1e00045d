package postgres

import "github.com/shopspring/decimal"

// decimalFromString parses a stored decimal column, which Postgres NUMERIC
// columns round-trip through sqlx as strings to avoid float precision loss.
func decimalFromString(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
