package models

import "github.com/shopspring/decimal"

// CreateOrderResponse is returned from a successful create-order call.
type CreateOrderResponse struct {
	OrderID string `json:"order_id"`
}

// RefundRejectionSummary is the per-reason rejected-quantity map in a
// completion response line.
type RefundRejectionSummary struct {
	Damaged uint32 `json:"damaged,omitempty"`
	Fraud   uint32 `json:"fraud,omitempty"`
}

// RefundCompletionLineResponse reports what was actually approved and
// persisted for one requested line — never more than the processor
// actually charged (§4.6 step 8).
type RefundCompletionLineResponse struct {
	ProductType  uint8                   `json:"product_type"`
	ProductID    uint64                  `json:"product_id"`
	ApprovedQty  uint32                  `json:"approved_qty"`
	ApprovedTotal decimal.Decimal        `json:"approved_total"`
	Rejected     RefundRejectionSummary  `json:"rejected"`
}

// RefundCompletionResponse is the full response to a finalize-refund call,
// alongside any non-fatal processor errors collected along the way.
type RefundCompletionResponse struct {
	Lines        []RefundCompletionLineResponse `json:"lines"`
	Errors3Party []string                       `json:"errors_3party,omitempty"`
}
