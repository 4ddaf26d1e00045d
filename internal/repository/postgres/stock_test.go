package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/domain/stock"
	"github.com/halvorsen/ecom-order-core/internal/models"
)

var pastExpiry = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

var stockLockColumns = []string{
	"store_id", "product_type", "product_id", "expiry", "total", "cancelled", "reservation", "paid_last_update",
}

func TestStockTryReserve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewStockRepository(sqlxDB)

	req := &models.OrderLineModelSet{
		OrderID: "d003bea7",
		Lines: []models.OrderLine{
			{ID: models.OrderLineID{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5}, Qty: models.OrderLineQty{Reserved: 2}},
		},
	}

	noopCallback := func(set *models.StockLevelModelSet, req *models.OrderLineModelSet) []apperr.StockLevelError {
		return nil
	}

	t.Run("no rejection commits", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT store_id, product_type, product_id, expiry, total, cancelled, reservation, paid_last_update (.+) FOR UPDATE").
			WithArgs(uint32(1), uint8(models.ProductTypeItem), uint64(5)).
			WillReturnRows(sqlmock.NewRows(stockLockColumns))
		mock.ExpectCommit()

		err := repo.TryReserve(context.Background(), noopCallback, req)
		require.NoError(t, err)
	})

	t.Run("callback rejection rolls back", func(t *testing.T) {
		rejecting := func(set *models.StockLevelModelSet, req *models.OrderLineModelSet) []apperr.StockLevelError {
			return []apperr.StockLevelError{apperr.NotEnoughToClaim(apperr.ProductStockRef{StoreID: 1, ProductID: 5}, 0, 2)}
		}

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT store_id, product_type, product_id, expiry, total, cancelled, reservation, paid_last_update (.+) FOR UPDATE").
			WithArgs(uint32(1), uint8(models.ProductTypeItem), uint64(5)).
			WillReturnRows(sqlmock.NewRows(stockLockColumns))
		mock.ExpectRollback()

		err := repo.TryReserve(context.Background(), rejecting, req)
		require.Error(t, err)
		var rejected *apperr.ReserveRejected
		require.ErrorAs(t, err, &rejected)
		assert.Len(t, rejected.Errors, 1)
	})
}

func TestStockTryReturn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewStockRepository(sqlxDB)

	dto := &models.StockReturnDto{
		Items: []models.StockReturnItem{
			{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 5, Expiry: pastExpiry, OrderID: "d003bea7", Qty: 2},
		},
	}

	t.Run("releases and persists", func(t *testing.T) {
		rows := sqlmock.NewRows(stockLockColumns).
			AddRow(uint32(1), uint8(models.ProductTypeItem), uint64(5), pastExpiry, uint32(10), uint32(0), []byte(`{"d003bea7":2}`), nil)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT store_id, product_type, product_id, expiry, total, cancelled, reservation, paid_last_update (.+) FOR UPDATE").
			WithArgs(uint32(1), uint8(models.ProductTypeItem), uint64(5)).
			WillReturnRows(rows)
		mock.ExpectExec("INSERT INTO order_stock_lvl").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		cbErrs, err := repo.TryReturn(context.Background(), stock.ReturnAll, dto)
		require.NoError(t, err)
		assert.Empty(t, cbErrs)
	})
}
