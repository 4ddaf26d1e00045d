package stock

import (
	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
)

// ReturnAll releases every item in dto against set, regardless of bucket
// expiry (try_return applies no expiry filter, per §4.2). It returns one
// StockReturnError per item whose target bucket is missing or whose
// reservation under the item's order id does not cover the requested qty.
func ReturnAll(set *models.StockLevelModelSet, dto *models.StockReturnDto) []apperr.StockReturnError {
	var errs []apperr.StockReturnError

	for _, item := range dto.Items {
		pid := apperr.ProductStockRef{StoreID: item.StoreID, ProductType: uint8(item.ProductType), ProductID: item.ProductID}

		bucket := set.FindProduct(item.StoreID, item.ProductType, item.ProductID, item.Expiry)
		if bucket == nil {
			errs = append(errs, apperr.StockReturnError{
				Kind:    "BucketNotFound",
				Pid:     pid,
				OrderID: item.OrderID,
			})
			continue
		}

		released := bucket.Quantity.Return(item.OrderID, item.Qty)
		if released < item.Qty {
			errs = append(errs, apperr.StockReturnError{
				Kind:    "ReservationShortfall",
				Pid:     pid,
				OrderID: item.OrderID,
				Detail:  "requested release exceeds held reservation",
			})
		}
	}

	return errs
}

// ReturnAllByOrder releases dto's items the way the discard-unpaid sweep
// needs: it does not know which specific expiry bucket an order's
// reservation landed in (an order line's reservation may itself span
// several buckets), so unlike ReturnAll it ignores each item's Expiry and
// instead walks every bucket for (store, product), draining whatever is
// reserved under the item's order id until the requested qty is released or
// no matching buckets remain.
func ReturnAllByOrder(set *models.StockLevelModelSet, dto *models.StockReturnDto) []apperr.StockReturnError {
	var errs []apperr.StockReturnError

	for _, item := range dto.Items {
		pid := apperr.ProductStockRef{StoreID: item.StoreID, ProductType: uint8(item.ProductType), ProductID: item.ProductID}

		buckets := set.BucketsForProduct(item.StoreID, item.ProductType, item.ProductID)
		if len(buckets) == 0 {
			errs = append(errs, apperr.StockReturnError{
				Kind:    "BucketNotFound",
				Pid:     pid,
				OrderID: item.OrderID,
			})
			continue
		}

		need := item.Qty
		for _, bucket := range buckets {
			if need == 0 {
				break
			}
			need -= bucket.Quantity.Return(item.OrderID, need)
		}
		if need > 0 {
			errs = append(errs, apperr.StockReturnError{
				Kind:    "ReservationShortfall",
				Pid:     pid,
				OrderID: item.OrderID,
				Detail:  "requested release exceeds held reservation",
			})
		}
	}

	return errs
}
