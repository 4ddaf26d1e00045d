package models

import (
	"fmt"
	"time"
)

// ProductStockIdentity names one physical stock bucket: a store's holding
// of a product that expires at a given instant.
type ProductStockIdentity struct {
	StoreID     uint32
	ProductType ProductType
	ProductID   uint64
	Expiry      time.Time
}

// Key returns the bucket's persistence key, truncating expiry to seconds —
// "within a store the tuple (product_type, product_id, expiry_truncated_to_
// seconds) is unique" (§3).
func (id ProductStockIdentity) Key() string {
	return fmt.Sprintf("%d:%d:%d:%d", id.StoreID, id.ProductType, id.ProductID, id.Expiry.Truncate(time.Second).Unix())
}

// StockQuantity holds a bucket's total, cancelled, and per-order reservation
// state. Invariant: sum(Reservation) + Cancelled <= Total.
type StockQuantity struct {
	Total          uint32
	Cancelled      uint32
	Reservation    map[string]uint32 // order_id -> reserved qty
	PaidLastUpdate *time.Time
}

// Reserved sums the current per-order reservations.
func (q StockQuantity) Reserved() uint32 {
	var sum uint32
	for _, v := range q.Reservation {
		sum += v
	}
	return sum
}

// Available is how much of the bucket remains unclaimed.
func (q StockQuantity) Available() uint32 {
	reserved := q.Reserved()
	claimed := q.Cancelled + reserved
	if claimed >= q.Total {
		return 0
	}
	return q.Total - claimed
}

// Validate enforces the stock invariant from §8: reservation + cancelled <= total.
func (q StockQuantity) Validate() error {
	if q.Reserved()+q.Cancelled > q.Total {
		return fmt.Errorf("stock invariant violated: reserved(%d)+cancelled(%d) > total(%d)", q.Reserved(), q.Cancelled, q.Total)
	}
	return nil
}

// Reserve records qty against orderID, merging with any existing
// reservation for that order (a repeated reserve call for the same order
// adds to its claim rather than overwriting it).
func (q *StockQuantity) Reserve(orderID string, qty uint32) {
	if q.Reservation == nil {
		q.Reservation = make(map[string]uint32)
	}
	q.Reservation[orderID] += qty
}

// Return releases up to qty previously reserved by orderID, clamping to
// what is actually held and removing the map entry once it reaches zero.
// It reports how much was actually released.
func (q *StockQuantity) Return(orderID string, qty uint32) uint32 {
	held, ok := q.Reservation[orderID]
	if !ok {
		return 0
	}
	released := qty
	if released > held {
		released = held
	}
	remaining := held - released
	if remaining == 0 {
		delete(q.Reservation, orderID)
	} else {
		q.Reservation[orderID] = remaining
	}
	return released
}

// ProductStockModel is one bucket within a store: identity, current
// quantity state, and whether it is a brand-new bucket being created by
// this mutation (vs. an update to an existing row).
type ProductStockModel struct {
	Identity ProductStockIdentity
	Quantity StockQuantity
	IsCreate bool
}

// StoreStockModel groups the buckets belonging to one store.
type StoreStockModel struct {
	StoreID  uint32
	Products []ProductStockModel
}

// StockLevelModelSet is the aggregate root for reserve/return batches: a set
// of stores, each holding a list of product buckets.
type StockLevelModelSet struct {
	Stores []StoreStockModel
}

// FindProduct locates the bucket exactly matching the given identity,
// comparing expiry truncated to seconds per the bucket-identity contract.
func (s *StockLevelModelSet) FindProduct(storeID uint32, ptype ProductType, productID uint64, expiry time.Time) *ProductStockModel {
	want := ProductStockIdentity{StoreID: storeID, ProductType: ptype, ProductID: productID, Expiry: expiry}.Key()
	for si := range s.Stores {
		if s.Stores[si].StoreID != storeID {
			continue
		}
		for pi := range s.Stores[si].Products {
			if s.Stores[si].Products[pi].Identity.Key() == want {
				return &s.Stores[si].Products[pi]
			}
		}
	}
	return nil
}

// StockReturnItem targets one bucket for a reservation release: release
// Qty previously reserved under OrderID from the (store, product, expiry)
// bucket. try_return applies no expiry filter — it may target buckets that
// have since expired.
type StockReturnItem struct {
	StoreID     uint32
	ProductType ProductType
	ProductID   uint64
	Expiry      time.Time
	OrderID     string
	Qty         uint32
}

// StockReturnDto is the batch of releases a single try_return call applies.
type StockReturnDto struct {
	Items []StockReturnItem
}

// BucketsForProduct returns every bucket at storeID for (ptype, productID),
// regardless of expiry, in the order they appear — the reservation
// algorithm sorts these by ascending expiry itself.
func (s *StockLevelModelSet) BucketsForProduct(storeID uint32, ptype ProductType, productID uint64) []*ProductStockModel {
	var out []*ProductStockModel
	for si := range s.Stores {
		if s.Stores[si].StoreID != storeID {
			continue
		}
		for pi := range s.Stores[si].Products {
			p := &s.Stores[si].Products[pi]
			if p.Identity.ProductType == ptype && p.Identity.ProductID == productID {
				out = append(out, p)
			}
		}
	}
	return out
}
