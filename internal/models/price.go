package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductPriceKey identifies a price entry by the seller and product it
// quotes — the same (product_type, product_id) can carry different prices
// per seller.
type ProductPriceKey struct {
	SellerID    uint32
	ProductType ProductType
	ProductID   uint64
}

// ProductPriceModel is one seller's quoted unit price for a product over a
// bounded validity window.
type ProductPriceModel struct {
	Key         ProductPriceKey
	UnitPrice   decimal.Decimal
	StartAfter  time.Time
	EndBefore   time.Time
}

// Covers reports whether at falls within [StartAfter, EndBefore].
func (p ProductPriceModel) Covers(at time.Time) bool {
	return !at.Before(p.StartAfter) && !at.After(p.EndBefore)
}

// ProductPriceModelSet is the full set of quoted prices a create-order call
// is evaluated against, grouped by seller for lookup.
type ProductPriceModelSet struct {
	Entries map[ProductPriceKey][]ProductPriceModel
}

// Find returns the entry for (sellerID, ptype, pid) whose validity window
// contains at, or false if none exists — §4.4 step 2's
// "nonexist.product_price" condition.
func (s ProductPriceModelSet) Find(sellerID uint32, ptype ProductType, pid uint64, at time.Time) (ProductPriceModel, bool) {
	key := ProductPriceKey{SellerID: sellerID, ProductType: ptype, ProductID: pid}
	for _, p := range s.Entries[key] {
		if p.Covers(at) {
			return p, true
		}
	}
	return ProductPriceModel{}, false
}
