package models

import (
	"fmt"
	"time"

	"github.com/halvorsen/ecom-order-core/pkg/money"
)

// OrderLineID identifies one line within an order: the (store, product)
// pair it was reserved against.
type OrderLineID struct {
	StoreID     uint32
	ProductType ProductType
	ProductID   uint64
}

// Key returns a comparable string for deduplicating lines that target the
// same (store, product) pair, independent of expiry.
func (id OrderLineID) Key() string {
	return fmt.Sprintf("%d:%d:%d", id.StoreID, id.ProductType, id.ProductID)
}

// OrderLineQty tracks how much of a line is reserved vs. actually paid.
// Invariant: Paid <= Reserved.
type OrderLineQty struct {
	Reserved       uint32
	Paid           uint32
	PaidLastUpdate *time.Time
}

// OrderLinePolicy captures the time bounds applied to a line at creation:
// when its reservation auto-cancels, and how long its warranty runs.
// Invariant: WarrantyUntil >= ReservedUntil.
type OrderLinePolicy struct {
	ReservedUntil time.Time
	WarrantyUntil time.Time
}

// OrderLine is one line of an order: what was reserved, at what price,
// under what policy.
type OrderLine struct {
	ID     OrderLineID
	Price  money.Amount
	Qty    OrderLineQty
	Policy OrderLinePolicy
}

// Validate checks the per-line invariants from §3: total = unit * reserved
// at creation, paid <= reserved, warranty_until >= reserved_until.
func (l OrderLine) Validate() error {
	if !l.Price.Total.Equal(money.LineTotal(l.Price.Unit, l.Qty.Reserved)) {
		return fmt.Errorf("order line invariant violated: total(%s) != unit(%s) * reserved(%d)", l.Price.Total, l.Price.Unit, l.Qty.Reserved)
	}
	if l.Qty.Paid > l.Qty.Reserved {
		return fmt.Errorf("order line invariant violated: paid(%d) > reserved(%d)", l.Qty.Paid, l.Qty.Reserved)
	}
	if l.Policy.WarrantyUntil.Before(l.Policy.ReservedUntil) {
		return fmt.Errorf("order line invariant violated: warranty_until before reserved_until")
	}
	return nil
}

// OrderLineModelSet is an order id paired with its lines — the unit the
// stock repository's try_reserve operates on.
type OrderLineModelSet struct {
	OrderID string
	Lines   []OrderLine
}

// ContactInfo is the shared shape for billing/shipping contacts.
type ContactInfo struct {
	Name   string
	Emails []string
	Phones []PhoneNumber
}

// PhoneNumber pairs a nation code with the local number.
type PhoneNumber struct {
	NationCode string
	Number     string
}

// Address is optional on a contact; Country is a free-form ISO country code
// here (validated at the HTTP boundary, not in the model).
type Address struct {
	Country string
	City    string
	Street  *string
	Detail  *string
}

// BillingModel is the buyer's billing contact and optional address.
type BillingModel struct {
	Contact ContactInfo
	Address *Address
}

// ShippingOption pairs a seller with the fulfillment method chosen for
// that seller's lines within the order.
type ShippingOption struct {
	SellerID uint32
	Method   string
}

// ShippingModel is the buyer's shipping contact, optional address, and the
// per-seller shipping options. A shipping model with zero options fails
// validation — see Validate.
type ShippingModel struct {
	Contact ContactInfo
	Address *Address
	Options []ShippingOption
}

func (s ShippingModel) Validate() error {
	if len(s.Options) == 0 {
		return fmt.Errorf("shipping model has no shipping options")
	}
	return nil
}
