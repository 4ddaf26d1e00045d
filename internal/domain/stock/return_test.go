package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/ecom-order-core/internal/models"
)

func TestReturnAllReleasesReservation(t *testing.T) {
	expiry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := models.StockLevelModelSet{
		Stores: []models.StoreStockModel{
			{
				StoreID: 1,
				Products: []models.ProductStockModel{
					{
						Identity: models.ProductStockIdentity{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, Expiry: expiry},
						Quantity: models.StockQuantity{Total: 10, Reservation: map[string]uint32{"order-1": 4}},
					},
				},
			},
		},
	}

	dto := &models.StockReturnDto{
		Items: []models.StockReturnItem{
			{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, Expiry: expiry, OrderID: "order-1", Qty: 4},
		},
	}

	errs := ReturnAll(&set, dto)
	require.Empty(t, errs)

	b := set.FindProduct(1, models.ProductTypeItem, 5, expiry)
	assert.Equal(t, uint32(0), b.Quantity.Reserved())
	assert.Equal(t, uint32(10), b.Quantity.Available())
}

func TestReturnAllBucketNotFound(t *testing.T) {
	set := models.StockLevelModelSet{}
	dto := &models.StockReturnDto{
		Items: []models.StockReturnItem{
			{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, OrderID: "order-1", Qty: 1},
		},
	}

	errs := ReturnAll(&set, dto)
	require.Len(t, errs, 1)
	assert.Equal(t, "BucketNotFound", errs[0].Kind)
}

// TestReturnAllByOrderDrainsAcrossBuckets covers the one behavior that sets
// ReturnAllByOrder apart from ReturnAll: an order's reservation for a single
// product can land in more than one expiry bucket, so the discard-unpaid
// sweep (which does not track which bucket an order landed in) must drain
// across all of them rather than targeting one bucket by exact expiry.
func TestReturnAllByOrderDrainsAcrossBuckets(t *testing.T) {
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(24 * time.Hour)

	set := models.StockLevelModelSet{
		Stores: []models.StoreStockModel{
			{
				StoreID: 1,
				Products: []models.ProductStockModel{
					{
						Identity: models.ProductStockIdentity{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, Expiry: earlier},
						Quantity: models.StockQuantity{Total: 10, Reservation: map[string]uint32{"order-1": 3}},
					},
					{
						Identity: models.ProductStockIdentity{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, Expiry: later},
						Quantity: models.StockQuantity{Total: 10, Reservation: map[string]uint32{"order-1": 4}},
					},
				},
			},
		},
	}

	dto := &models.StockReturnDto{
		Items: []models.StockReturnItem{
			{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, OrderID: "order-1", Qty: 7},
		},
	}

	errs := ReturnAllByOrder(&set, dto)
	require.Empty(t, errs)

	early := set.FindProduct(1, models.ProductTypeItem, 5, earlier)
	late := set.FindProduct(1, models.ProductTypeItem, 5, later)
	assert.Equal(t, uint32(0), early.Quantity.Reserved())
	assert.Equal(t, uint32(0), late.Quantity.Reserved())
}

// TestReturnAllByOrderShortfallWhenUnderReserved asserts the aggregate
// requested quantity exceeding what is held anywhere under the order still
// reports ReservationShortfall, same as the single-bucket case.
func TestReturnAllByOrderShortfallWhenUnderReserved(t *testing.T) {
	expiry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := models.StockLevelModelSet{
		Stores: []models.StoreStockModel{
			{
				StoreID: 1,
				Products: []models.ProductStockModel{
					{
						Identity: models.ProductStockIdentity{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, Expiry: expiry},
						Quantity: models.StockQuantity{Total: 10, Reservation: map[string]uint32{"order-1": 2}},
					},
				},
			},
		},
	}
	dto := &models.StockReturnDto{
		Items: []models.StockReturnItem{
			{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, OrderID: "order-1", Qty: 5},
		},
	}

	errs := ReturnAllByOrder(&set, dto)
	require.Len(t, errs, 1)
	assert.Equal(t, "ReservationShortfall", errs[0].Kind)
}
