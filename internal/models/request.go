package models

import "time"

// CreateOrderLineRequest is one requested line of a create-order call:
// which seller/product/quantity the buyer wants reserved.
type CreateOrderLineRequest struct {
	SellerID    uint32 `json:"seller_id" validate:"required"`
	ProductType uint8  `json:"product_type" validate:"required"`
	ProductID   uint64 `json:"product_id" validate:"required"`
	Quantity    uint32 `json:"quantity" validate:"required,min=1"`
}

// ContactRequest is the wire shape of ContactInfo.
type ContactRequest struct {
	Name   string              `json:"name" validate:"required"`
	Emails []string            `json:"emails" validate:"omitempty,dive,email"`
	Phones []PhoneNumberRequest `json:"phones" validate:"omitempty,dive"`
}

type PhoneNumberRequest struct {
	NationCode string `json:"nation_code" validate:"required"`
	Number     string `json:"number" validate:"required"`
}

type AddressRequest struct {
	Country string  `json:"country" validate:"required,len=2"`
	City    string  `json:"city" validate:"required"`
	Street  *string `json:"street" validate:"omitempty"`
	Detail  *string `json:"detail" validate:"omitempty"`
}

type BillingRequest struct {
	Contact ContactRequest  `json:"contact" validate:"required"`
	Address *AddressRequest `json:"address" validate:"omitempty"`
}

type ShippingOptionRequest struct {
	SellerID uint32 `json:"seller_id" validate:"required"`
	Method   string `json:"method" validate:"required"`
}

// ShippingRequest must carry at least one option — a shipping model with
// zero options fails validation (§3).
type ShippingRequest struct {
	Contact ContactRequest          `json:"contact" validate:"required"`
	Address *AddressRequest         `json:"address" validate:"omitempty"`
	Options []ShippingOptionRequest `json:"options" validate:"required,min=1,dive"`
}

// CreateOrderRequest is the HTTP payload for the create-order use case
// (§4.4): up to MAX_ORDER_LINES_PER_REQUEST lines plus billing/shipping.
type CreateOrderRequest struct {
	Lines    []CreateOrderLineRequest `json:"lines" validate:"required,min=1,max=65535,dive"`
	Billing  BillingRequest           `json:"billing" validate:"required"`
	Shipping ShippingRequest          `json:"shipping" validate:"required"`
}

// RefundCompletionLineRequest is one staff-resolved line of a refund
// completion request (§4.6): how much of a previously-flagged refund is
// approved vs. rejected for cause.
type RefundCompletionLineRequest struct {
	ProductType        uint8     `json:"product_type" validate:"required"`
	ProductID          uint64    `json:"product_id" validate:"required"`
	TimeIssued         time.Time `json:"time_issued" validate:"required"`
	QtyApproved        uint32    `json:"qty_approved"`
	QtyRejectedDamaged uint32    `json:"qty_rejected_damaged"`
	QtyRejectedFraud   uint32    `json:"qty_rejected_fraud"`
}

// RefundCompletionRequest is the HTTP payload for POST
// /orders/{order_id}/merchants/{merchant_id}/refund.
type RefundCompletionRequest struct {
	Lines []RefundCompletionLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// StockLevelEditItemRequest is one entry of the stock-level edit payload (§6).
type StockLevelEditItemRequest struct {
	StoreID     uint32    `json:"store_id" validate:"required"`
	ProductID   uint64    `json:"product_id" validate:"required"`
	ProductType uint8     `json:"product_type" validate:"required"`
	QtyAdd      uint32    `json:"qty_add" validate:"required,min=1"`
	Expiry      time.Time `json:"expiry" validate:"required"`
}

// StockLevelEditRequest is the wire shape of the `stock_level_edit` RPC handler.
type StockLevelEditRequest struct {
	Items []StockLevelEditItemRequest `json:"items" validate:"required,min=1,dive"`
}
