package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
)

func TestFetchChargesByMerchant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewChargeRepository(sqlxDB)

	owner := uint32(900)
	merchantID := uint32(127)
	createTime := time.Now().Truncate(time.Second)

	t.Run("success", func(t *testing.T) {
		metaRows := sqlmock.NewRows([]string{"owner", "create_time", "order_id", "state", "state_at", "method"}).
			AddRow(owner, createTime, "d003bea7", "pending", nil, "stripe")

		mock.ExpectQuery("SELECT DISTINCT m.owner(.+) FROM charge_meta m").
			WithArgs("d003bea7", merchantID).
			WillReturnRows(metaRows)

		lineRows := sqlmock.NewRows([]string{
			"merchant_id", "product_type", "product_id", "amount_unit", "amount_total", "amount_qty",
			"refunded_total", "refunded_qty", "rejected_damaged", "rejected_fraud",
		}).AddRow(merchantID, 1, 8454, "90.9", "454.5", 5, "0", 0, 0, 0)

		mock.ExpectQuery("SELECT merchant_id, product_type, product_id(.+) FROM charge_line").
			WithArgs(owner, createTime).
			WillReturnRows(lineRows)

		charges, err := repo.FetchChargesByMerchant(context.Background(), "d003bea7", merchantID)
		require.NoError(t, err)
		require.Len(t, charges, 1)
		assert.Equal(t, owner, charges[0].Meta.Owner)
		require.Len(t, charges[0].Lines, 1)
		assert.Equal(t, uint64(8454), charges[0].Lines[0].Pid.ProductID)
	})

	t.Run("no charges", func(t *testing.T) {
		mock.ExpectQuery("SELECT DISTINCT m.owner(.+) FROM charge_meta m").
			WithArgs("missing-order", merchantID).
			WillReturnRows(sqlmock.NewRows([]string{"owner", "create_time", "order_id", "state", "state_at", "method"}))

		charges, err := repo.FetchChargesByMerchant(context.Background(), "missing-order", merchantID)
		require.NoError(t, err)
		assert.Empty(t, charges)
	})
}

func TestUpdateLinesRefund(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewChargeRepository(sqlxDB)

	update := interfaces.ChargeLineUpdate{
		Owner:      900,
		CreateTime: time.Now().Truncate(time.Second),
		Pid:        models.ChargeLinePid{MerchantID: 127, ProductType: models.ProductTypeItem, ProductID: 8454},
		RefundedQty: 2,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE charge_line SET").
			WithArgs(
				update.RefundedQty, update.RefundedAmt.Total.Total.String(),
				update.Rejected.QtyDamaged, update.Rejected.QtyFraud,
				update.Owner, update.CreateTime, update.Pid.MerchantID,
				uint8(update.Pid.ProductType), update.Pid.ProductID,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateLinesRefund(context.Background(), []interfaces.ChargeLineUpdate{update})
		require.NoError(t, err)
	})

	t.Run("exec failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE charge_line SET").
			WithArgs(
				update.RefundedQty, update.RefundedAmt.Total.Total.String(),
				update.Rejected.QtyDamaged, update.Rejected.QtyFraud,
				update.Owner, update.CreateTime, update.Pid.MerchantID,
				uint8(update.Pid.ProductType), update.Pid.ProductID,
			).
			WillReturnError(sqlmock.ErrCancelled)
		mock.ExpectRollback()

		err := repo.UpdateLinesRefund(context.Background(), []interfaces.ChargeLineUpdate{update})
		assert.Error(t, err)
	})
}
