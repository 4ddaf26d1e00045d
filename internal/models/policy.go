package models

import "time"

// ProductPolicyKey identifies a policy entry by the product it governs.
type ProductPolicyKey struct {
	ProductType ProductType
	ProductID   uint64
}

// ProductPolicyModel carries the auto-cancel and warranty windows applied
// to a freshly reserved order line for this product (§4.4 step 3).
type ProductPolicyModel struct {
	Key           ProductPolicyKey
	AutoCancel    time.Duration
	WarrantyHours time.Duration
}

// ProductPolicyModelSet is the full policy catalog a create-order call is
// evaluated against.
type ProductPolicyModelSet struct {
	Entries map[ProductPolicyKey]ProductPolicyModel
}

// Find returns the policy entry for (ptype, pid), or false if none exists —
// §4.4 step 1's "nonexist.product_policy" condition.
func (s ProductPolicyModelSet) Find(ptype ProductType, pid uint64) (ProductPolicyModel, bool) {
	p, ok := s.Entries[ProductPolicyKey{ProductType: ptype, ProductID: pid}]
	return p, ok
}
