package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/pkg/database"
	"github.com/halvorsen/ecom-order-core/pkg/money"
)

// matchTolerance bounds how far apart a completion request's time_issued may
// be from a stored refund line's create_time and still be considered the
// same line (§4.6 step 4: "pid, create_time ≈ request.time_issued").
const matchTolerance = time.Second

// RefundRepository persists refund models and the sync-refund-req watermark
// (§4.8).
type RefundRepository struct {
	db *sqlx.DB
}

func NewRefundRepository(db *sqlx.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) LastTimeSynced(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := r.db.GetContext(ctx, &t, `SELECT last_synced FROM refund_sync_watermark WHERE id = 1`)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.KindRemoteDbServerFail, "RefundRepository.LastTimeSynced", err)
	}
	return t, nil
}

func (r *RefundRepository) UpdateSyncedTime(ctx context.Context, t time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refund_sync_watermark (id, last_synced) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_synced = EXCLUDED.last_synced`, t)
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "RefundRepository.UpdateSyncedTime", err)
	}
	return nil
}

// SaveRequest merges incoming refund models into whatever is already stored
// for the same order id — at-least-once delivery from the RPC pull loop
// makes this merge load-bearing: a redelivered line must not double its
// remaining quantity.
func (r *RefundRepository) SaveRequest(ctx context.Context, incoming []models.OrderRefundModel) error {
	return database.Transaction(r.db, func(tx *sqlx.Tx) error {
		for _, model := range incoming {
			for _, line := range model.Lines {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO refund_line (order_id, merchant_id, product_type, product_id,
					                         create_time, amount_unit, amount_total, qty)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
					ON CONFLICT (order_id, merchant_id, product_type, product_id, create_time) DO UPDATE SET
						qty = EXCLUDED.qty,
						amount_unit = EXCLUDED.amount_unit,
						amount_total = EXCLUDED.amount_total`,
					model.OrderID, line.Pid.MerchantID, uint8(line.Pid.ProductType), line.Pid.ProductID,
					line.CreateTime, line.Amount.Unit.String(), line.Amount.Total.String(), line.Qty)
				if err != nil {
					return apperr.Wrap(apperr.KindRemoteDbServerFail, "RefundRepository.SaveRequest", err)
				}
			}
		}
		return nil
	})
}

type refundLineRow struct {
	MerchantID  uint32    `db:"merchant_id"`
	ProductType uint8     `db:"product_type"`
	ProductID   uint64    `db:"product_id"`
	CreateTime  time.Time `db:"create_time"`
	AmountUnit  string    `db:"amount_unit"`
	AmountTotal string    `db:"amount_total"`
	Qty         uint32    `db:"qty"`
}

func (r *RefundRepository) FetchByOrder(ctx context.Context, orderID string) (models.OrderRefundModel, error) {
	var rows []refundLineRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT merchant_id, product_type, product_id, create_time, amount_unit, amount_total, qty
		FROM refund_line WHERE order_id = $1`, orderID)
	if err != nil {
		return models.OrderRefundModel{}, apperr.Wrap(apperr.KindRemoteDbServerFail, "RefundRepository.FetchByOrder", err)
	}

	model := models.OrderRefundModel{OrderID: orderID}
	for _, row := range rows {
		line, err := refundLineFromRow(row)
		if err != nil {
			return models.OrderRefundModel{}, err
		}
		model.Lines = append(model.Lines, line)
	}
	return model, nil
}

func refundLineFromRow(row refundLineRow) (models.RefundLine, error) {
	unit, err := decimalFromString(row.AmountUnit)
	if err != nil {
		return models.RefundLine{}, apperr.Wrap(apperr.KindDataCorruption, "RefundRepository.refundLineFromRow", err)
	}
	total, err := decimalFromString(row.AmountTotal)
	if err != nil {
		return models.RefundLine{}, apperr.Wrap(apperr.KindDataCorruption, "RefundRepository.refundLineFromRow", err)
	}
	return models.RefundLine{
		Pid:        models.RefundLinePid{MerchantID: row.MerchantID, ProductType: models.ProductType(row.ProductType), ProductID: row.ProductID},
		CreateTime: row.CreateTime,
		Amount:     money.Amount{Unit: unit, Total: total},
		Qty:        row.Qty,
	}, nil
}

// ResolveCompletion debits req's quantities from orderID's refund model
// within a single row-locked transaction. If any line would overdraw, no
// mutation is applied at all — §4.6 step 4's all-or-nothing debit.
func (r *RefundRepository) ResolveCompletion(ctx context.Context, orderID string, merchantID uint32, req []interfaces.RefundDebit) ([]apperr.RefundModelError, error) {
	var rejections []apperr.RefundModelError

	err := database.Transaction(r.db, func(tx *sqlx.Tx) error {
		var rows []refundLineRow
		err := tx.SelectContext(ctx, &rows, `
			SELECT merchant_id, product_type, product_id, create_time, amount_unit, amount_total, qty
			FROM refund_line WHERE order_id = $1 AND merchant_id = $2 FOR UPDATE`, orderID, merchantID)
		if err != nil {
			return apperr.Wrap(apperr.KindRemoteDbServerFail, "RefundRepository.ResolveCompletion", err)
		}

		model := models.OrderRefundModel{OrderID: orderID}
		for _, row := range rows {
			line, err := refundLineFromRow(row)
			if err != nil {
				return err
			}
			model.Lines = append(model.Lines, line)
		}

		rejections = nil
		for _, debit := range req {
			line := model.FindLine(debit.Pid, debit.TimeIssued, matchTolerance)
			if line == nil || line.Qty < debit.Qty {
				avail := uint32(0)
				if line != nil {
					avail = line.Qty
				}
				pid := apperr.ProductStockRef{StoreID: debit.Pid.MerchantID, ProductType: uint8(debit.Pid.ProductType), ProductID: debit.Pid.ProductID}
				rejections = append(rejections, apperr.QtyInsufficient(pid, avail, debit.Qty))
			}
		}
		if len(rejections) > 0 {
			return nil // caller inspects rejections; no mutation performed
		}

		for _, debit := range req {
			line := model.FindLine(debit.Pid, debit.TimeIssued, matchTolerance)
			line.Debit(debit.Qty)
			_, err := tx.ExecContext(ctx, `
				UPDATE refund_line SET qty = $1
				WHERE order_id = $2 AND merchant_id = $3 AND product_type = $4 AND product_id = $5 AND create_time = $6`,
				line.Qty, orderID, line.Pid.MerchantID, uint8(line.Pid.ProductType), line.Pid.ProductID, line.CreateTime)
			if err != nil {
				return apperr.Wrap(apperr.KindRemoteDbServerFail, "RefundRepository.ResolveCompletion", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejections, nil
}
