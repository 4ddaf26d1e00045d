package services

import "github.com/shopspring/decimal"

// decimalFromDtoString parses a decimal string field from an inbound RPC
// DTO, mirroring postgres.decimalFromString for non-database callers.
func decimalFromDtoString(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
