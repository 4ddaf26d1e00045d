package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/pkg/database"
	"github.com/halvorsen/ecom-order-core/pkg/money"
)

// ChargeRepository persists buyer charges and their per-(merchant,
// product) lines (§4.8).
type ChargeRepository struct {
	db *sqlx.DB
}

func NewChargeRepository(db *sqlx.DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

func (r *ChargeRepository) CreateOrder(ctx context.Context, lines models.OrderLineModelSet, billing models.BillingModel) error {
	billingJSON, err := json.Marshal(billing)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "ChargeRepository.CreateOrder", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO charge_order_scaffold (order_id, billing) VALUES ($1, $2)
		ON CONFLICT (order_id) DO UPDATE SET billing = EXCLUDED.billing`,
		lines.OrderID, string(billingJSON))
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "ChargeRepository.CreateOrder", err)
	}
	return nil
}

func (r *ChargeRepository) CreateCharge(ctx context.Context, meta models.ChargeBuyerMeta, lines []models.ChargeLineBuyer) error {
	return database.Transaction(r.db, func(tx *sqlx.Tx) error {
		if err := insertChargeMeta(ctx, tx, meta); err != nil {
			return err
		}
		for _, line := range lines {
			if err := upsertChargeLine(ctx, tx, meta.Owner, meta.CreateTime, line); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertChargeMeta(ctx context.Context, tx *sqlx.Tx, meta models.ChargeBuyerMeta) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO charge_meta (owner, create_time, order_id, state, state_at, method)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		meta.Owner, meta.CreateTime, meta.OrderID, string(meta.State.Kind), meta.State.At, string(meta.Method.Kind))
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "ChargeRepository.CreateCharge", err)
	}
	return nil
}

func upsertChargeLine(ctx context.Context, tx *sqlx.Tx, owner uint32, createTime time.Time, line models.ChargeLineBuyer) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO charge_line (owner, create_time, merchant_id, product_type, product_id,
		                         amount_unit, amount_total, amount_qty,
		                         refunded_total, refunded_qty, rejected_damaged, rejected_fraud)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (owner, create_time, merchant_id, product_type, product_id) DO UPDATE SET
			refunded_total = EXCLUDED.refunded_total,
			refunded_qty = EXCLUDED.refunded_qty,
			rejected_damaged = EXCLUDED.rejected_damaged,
			rejected_fraud = EXCLUDED.rejected_fraud`,
		owner, createTime, line.Pid.MerchantID, uint8(line.Pid.ProductType), line.Pid.ProductID,
		line.Amount.Total.Unit.String(), line.Amount.Total.Total.String(), line.Amount.Qty,
		line.Refunded.Total.Total.String(), line.Refunded.Qty, line.Rejected.QtyDamaged, line.Rejected.QtyFraud)
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "ChargeRepository.upsertChargeLine", err)
	}
	return nil
}

type chargeMetaRow struct {
	Owner      uint32    `db:"owner"`
	CreateTime time.Time `db:"create_time"`
	OrderID    string    `db:"order_id"`
	State      string    `db:"state"`
	StateAt    *time.Time `db:"state_at"`
	Method     string    `db:"method"`
}

func (r *ChargeRepository) FetchChargeMeta(ctx context.Context, owner uint32, createTime time.Time) (models.ChargeBuyerMeta, error) {
	var row chargeMetaRow
	err := r.db.GetContext(ctx, &row, `
		SELECT owner, create_time, order_id, state, state_at, method
		FROM charge_meta WHERE owner = $1 AND create_time = $2`, owner, createTime)
	if err != nil {
		return models.ChargeBuyerMeta{}, apperr.New(apperr.KindNotFound, "ChargeRepository.FetchChargeMeta", "")
	}
	return models.ChargeBuyerMeta{
		Owner:      row.Owner,
		CreateTime: row.CreateTime,
		OrderID:    row.OrderID,
		State:      models.BuyerPayInState{Kind: models.BuyerPayInStateKind(row.State), At: row.StateAt},
		Method:     models.Charge3partyModel{Kind: models.Charge3partyKind(row.Method)},
	}, nil
}

type chargeLineRow struct {
	MerchantID      uint32 `db:"merchant_id"`
	ProductType     uint8  `db:"product_type"`
	ProductID       uint64 `db:"product_id"`
	AmountUnit      string `db:"amount_unit"`
	AmountTotal     string `db:"amount_total"`
	AmountQty       uint32 `db:"amount_qty"`
	RefundedTotal   string `db:"refunded_total"`
	RefundedQty     uint32 `db:"refunded_qty"`
	RejectedDamaged uint32 `db:"rejected_damaged"`
	RejectedFraud   uint32 `db:"rejected_fraud"`
}

func (r *ChargeRepository) FetchAllChargeLines(ctx context.Context, owner uint32, createTime time.Time) ([]models.ChargeLineBuyer, error) {
	var rows []chargeLineRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT merchant_id, product_type, product_id, amount_unit, amount_total, amount_qty,
		       refunded_total, refunded_qty, rejected_damaged, rejected_fraud
		FROM charge_line WHERE owner = $1 AND create_time = $2`, owner, createTime)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteDbServerFail, "ChargeRepository.FetchAllChargeLines", err)
	}

	lines := make([]models.ChargeLineBuyer, 0, len(rows))
	for _, row := range rows {
		line, err := chargeLineFromRow(row)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func chargeLineFromRow(row chargeLineRow) (models.ChargeLineBuyer, error) {
	unit, err := decimalFromString(row.AmountUnit)
	if err != nil {
		return models.ChargeLineBuyer{}, apperr.Wrap(apperr.KindDataCorruption, "ChargeRepository.chargeLineFromRow", err)
	}
	total, err := decimalFromString(row.AmountTotal)
	if err != nil {
		return models.ChargeLineBuyer{}, apperr.Wrap(apperr.KindDataCorruption, "ChargeRepository.chargeLineFromRow", err)
	}
	refundedTotal, err := decimalFromString(row.RefundedTotal)
	if err != nil {
		return models.ChargeLineBuyer{}, apperr.Wrap(apperr.KindDataCorruption, "ChargeRepository.chargeLineFromRow", err)
	}

	return models.ChargeLineBuyer{
		Pid: models.ChargeLinePid{MerchantID: row.MerchantID, ProductType: models.ProductType(row.ProductType), ProductID: row.ProductID},
		Amount: models.ChargeLineQty{
			Total: money.Amount{Unit: unit, Total: total},
			Qty:   row.AmountQty,
		},
		Refunded: models.ChargeLineQty{
			Total: money.Amount{Total: refundedTotal},
			Qty:   row.RefundedQty,
		},
		Rejected: models.ChargeRejected{QtyDamaged: row.RejectedDamaged, QtyFraud: row.RejectedFraud},
	}, nil
}

func (r *ChargeRepository) UpdateChargeProgress(ctx context.Context, meta models.ChargeBuyerMeta) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE charge_meta SET state = $1, state_at = $2 WHERE owner = $3 AND create_time = $4`,
		string(meta.State.Kind), meta.State.At, meta.Owner, meta.CreateTime)
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "ChargeRepository.UpdateChargeProgress", err)
	}
	return nil
}

// FetchChargesByMerchant returns every charge for orderID touching
// merchantID, ordered by create_time ascending.
func (r *ChargeRepository) FetchChargesByMerchant(ctx context.Context, orderID string, merchantID uint32) ([]models.ChargeBuyerModel, error) {
	var metaRows []chargeMetaRow
	err := r.db.SelectContext(ctx, &metaRows, `
		SELECT DISTINCT m.owner, m.create_time, m.order_id, m.state, m.state_at, m.method
		FROM charge_meta m
		JOIN charge_line l ON l.owner = m.owner AND l.create_time = m.create_time
		WHERE m.order_id = $1 AND l.merchant_id = $2
		ORDER BY m.create_time ASC`, orderID, merchantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteDbServerFail, "ChargeRepository.FetchChargesByMerchant", err)
	}

	charges := make([]models.ChargeBuyerModel, 0, len(metaRows))
	for _, row := range metaRows {
		lines, err := r.FetchAllChargeLines(ctx, row.Owner, row.CreateTime)
		if err != nil {
			return nil, err
		}
		var merchantLines []models.ChargeLineBuyer
		for _, l := range lines {
			if l.Pid.MerchantID == merchantID {
				merchantLines = append(merchantLines, l)
			}
		}
		charges = append(charges, models.ChargeBuyerModel{
			Meta: models.ChargeBuyerMeta{
				Owner:      row.Owner,
				CreateTime: row.CreateTime,
				OrderID:    row.OrderID,
				State:      models.BuyerPayInState{Kind: models.BuyerPayInStateKind(row.State), At: row.StateAt},
				Method:     models.Charge3partyModel{Kind: models.Charge3partyKind(row.Method)},
			},
			Lines: merchantLines,
		})
	}
	return charges, nil
}

func (r *ChargeRepository) UpdateLinesRefund(ctx context.Context, updates []interfaces.ChargeLineUpdate) error {
	return database.Transaction(r.db, func(tx *sqlx.Tx) error {
		for _, u := range updates {
			_, err := tx.ExecContext(ctx, `
				UPDATE charge_line SET
					refunded_qty = refunded_qty + $1,
					refunded_total = (refunded_total::numeric + $2::numeric)::text,
					rejected_damaged = rejected_damaged + $3,
					rejected_fraud = rejected_fraud + $4
				WHERE owner = $5 AND create_time = $6 AND merchant_id = $7 AND product_type = $8 AND product_id = $9`,
				u.RefundedQty, u.RefundedAmt.Total.Total.String(), u.Rejected.QtyDamaged, u.Rejected.QtyFraud,
				u.Owner, u.CreateTime, u.Pid.MerchantID, uint8(u.Pid.ProductType), u.Pid.ProductID)
			if err != nil {
				return apperr.Wrap(apperr.KindRemoteDbServerFail, "ChargeRepository.UpdateLinesRefund", err)
			}
		}
		return nil
	})
}
