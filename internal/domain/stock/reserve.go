// Package stock holds the pure reservation/return algorithms the stock
// repository's try_reserve/try_return invoke as callbacks inside their
// datastore lock (§4.2). None of this package touches a database; it only
// mutates an in-memory *models.StockLevelModelSet.
package stock

import (
	"sort"
	"time"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
)

// ReserveLines applies req against set, claiming nearest-expiry buckets
// first and never drawing from a bucket whose expiry is at or before now.
// It mutates set in place and returns one NotEnoughToClaim error per line
// that could not be fully satisfied; set is left with whatever partial
// reservations succeeded (the repository discards them unless the error
// list is empty).
func ReserveLines(set *models.StockLevelModelSet, req *models.OrderLineModelSet, now time.Time) []apperr.StockLevelError {
	var errs []apperr.StockLevelError

	for _, line := range req.Lines {
		buckets := set.BucketsForProduct(line.ID.StoreID, line.ID.ProductType, line.ID.ProductID)

		eligible := make([]*models.ProductStockModel, 0, len(buckets))
		for _, b := range buckets {
			if b.Identity.Expiry.After(now) {
				eligible = append(eligible, b)
			}
		}
		sort.Slice(eligible, func(i, j int) bool {
			return eligible[i].Identity.Expiry.Before(eligible[j].Identity.Expiry)
		})

		need := line.Qty.Reserved
		var claimed uint32
		for _, b := range eligible {
			if need == 0 {
				break
			}
			avail := b.Quantity.Available()
			if avail == 0 {
				continue
			}
			take := need
			if take > avail {
				take = avail
			}
			b.Quantity.Reserve(req.OrderID, take)
			need -= take
			claimed += take
		}

		if need > 0 {
			errs = append(errs, apperr.NotEnoughToClaim(apperr.ProductStockRef{
				StoreID:     line.ID.StoreID,
				ProductType: uint8(line.ID.ProductType),
				ProductID:   line.ID.ProductID,
			}, line.Qty.Reserved, claimed))
		}
	}

	return errs
}
