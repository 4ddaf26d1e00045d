package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/pkg/database"
	"github.com/halvorsen/ecom-order-core/pkg/money"
	"github.com/halvorsen/ecom-order-core/pkg/oid"
)

// orderIDKey encodes a client-facing order id (a hex string up to 32
// characters) into the fixed 16-byte key order_id columns are keyed on.
func orderIDKey(orderID string) ([]byte, error) {
	key, err := oid.Encode(orderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "OrderRepository.orderIDKey", err)
	}
	return key[:], nil
}

// OrderRepository persists order lines, billing, and shipping (§4.3).
type OrderRepository struct {
	db    *sqlx.DB
	stock *StockRepository
}

func NewOrderRepository(db *sqlx.DB, stock *StockRepository) *OrderRepository {
	return &OrderRepository{db: db, stock: stock}
}

func (r *OrderRepository) Stock() interfaces.StockRepository { return r.stock }

type contactRow struct {
	OrderID      []byte         `db:"order_id"`
	BillingJSON  sql.NullString `db:"billing"`
	ShippingJSON sql.NullString `db:"shipping"`
}

// SaveContact persists billing and shipping together. Fails with
// KindInvalidInput if shipping has no options.
func (r *OrderRepository) SaveContact(ctx context.Context, orderID string, billing models.BillingModel, shipping models.ShippingModel) error {
	if err := shipping.Validate(); err != nil {
		return apperr.New(apperr.KindInvalidInput, "OrderRepository.SaveContact", err.Error())
	}

	key, err := orderIDKey(orderID)
	if err != nil {
		return err
	}

	billingJSON, err := json.Marshal(billing)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "OrderRepository.SaveContact", err)
	}
	shippingJSON, err := json.Marshal(shipping)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "OrderRepository.SaveContact", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO order_contact (order_id, billing, shipping)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO UPDATE SET billing = EXCLUDED.billing, shipping = EXCLUDED.shipping`,
		key, string(billingJSON), string(shippingJSON))
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteDbServerFail, "OrderRepository.SaveContact", err)
	}
	return nil
}

func (r *OrderRepository) FetchBilling(ctx context.Context, orderID string) (models.BillingModel, error) {
	key, err := orderIDKey(orderID)
	if err != nil {
		return models.BillingModel{}, err
	}

	var row contactRow
	err = r.db.GetContext(ctx, &row, `SELECT order_id, billing, shipping FROM order_contact WHERE order_id = $1`, key)
	if err != nil {
		return models.BillingModel{}, apperr.New(apperr.KindNotFound, "OrderRepository.FetchBilling", orderID)
	}

	var billing models.BillingModel
	if row.BillingJSON.Valid {
		if err := json.Unmarshal([]byte(row.BillingJSON.String), &billing); err != nil {
			return models.BillingModel{}, apperr.Wrap(apperr.KindDataCorruption, "OrderRepository.FetchBilling", err)
		}
	}
	return billing, nil
}

func (r *OrderRepository) FetchShipping(ctx context.Context, orderID string) (models.ShippingModel, error) {
	key, err := orderIDKey(orderID)
	if err != nil {
		return models.ShippingModel{}, err
	}

	var row contactRow
	err = r.db.GetContext(ctx, &row, `SELECT order_id, billing, shipping FROM order_contact WHERE order_id = $1`, key)
	if err != nil {
		return models.ShippingModel{}, apperr.New(apperr.KindNotFound, "OrderRepository.FetchShipping", orderID)
	}

	var shipping models.ShippingModel
	if row.ShippingJSON.Valid {
		if err := json.Unmarshal([]byte(row.ShippingJSON.String), &shipping); err != nil {
			return models.ShippingModel{}, apperr.Wrap(apperr.KindDataCorruption, "OrderRepository.FetchShipping", err)
		}
	}
	return shipping, nil
}

type orderLineRow struct {
	OrderID          []byte     `db:"order_id"`
	StoreID          uint32     `db:"store_id"`
	ProductType      uint8      `db:"product_type"`
	ProductID        uint64     `db:"product_id"`
	UnitPrice        string     `db:"unit_price"`
	TotalPrice       string     `db:"total_price"`
	Reserved         uint32     `db:"reserved"`
	Paid             uint32     `db:"paid"`
	PaidLastUpdate   *time.Time `db:"paid_last_update"`
	ReservedUntil    time.Time  `db:"reserved_until"`
	WarrantyUntil    time.Time  `db:"warranty_until"`
	Cancelled        bool       `db:"cancelled"`
}

func (r *OrderRepository) FetchAllLines(ctx context.Context, orderID string) (models.OrderLineModelSet, error) {
	key, err := orderIDKey(orderID)
	if err != nil {
		return models.OrderLineModelSet{}, err
	}

	var rows []orderLineRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT order_id, store_id, product_type, product_id, unit_price, total_price, reserved, paid,
		       paid_last_update, reserved_until, warranty_until, cancelled
		FROM order_line WHERE order_id = $1`, key)
	if err != nil {
		return models.OrderLineModelSet{}, apperr.Wrap(apperr.KindRemoteDbServerFail, "OrderRepository.FetchAllLines", err)
	}
	if len(rows) == 0 {
		return models.OrderLineModelSet{}, apperr.New(apperr.KindNotFound, "OrderRepository.FetchAllLines", orderID)
	}

	set := models.OrderLineModelSet{OrderID: orderID}
	for _, row := range rows {
		line, err := lineFromRow(row)
		if err != nil {
			return models.OrderLineModelSet{}, err
		}
		set.Lines = append(set.Lines, line)
	}
	return set, nil
}

func lineFromRow(row orderLineRow) (models.OrderLine, error) {
	unit, err := decimalFromString(row.UnitPrice)
	if err != nil {
		return models.OrderLine{}, apperr.Wrap(apperr.KindDataCorruption, "OrderRepository.lineFromRow", err)
	}
	total, err := decimalFromString(row.TotalPrice)
	if err != nil {
		return models.OrderLine{}, apperr.Wrap(apperr.KindDataCorruption, "OrderRepository.lineFromRow", err)
	}

	return models.OrderLine{
		ID:    models.OrderLineID{StoreID: row.StoreID, ProductType: models.ProductType(row.ProductType), ProductID: row.ProductID},
		Price: money.Amount{Unit: unit, Total: total},
		Qty: models.OrderLineQty{
			Reserved:       row.Reserved,
			Paid:           row.Paid,
			PaidLastUpdate: row.PaidLastUpdate,
		},
		Policy: models.OrderLinePolicy{ReservedUntil: row.ReservedUntil, WarrantyUntil: row.WarrantyUntil},
	}, nil
}

// UpdateLinesCancelled marks lineIDs cancelled for orderID atomically.
func (r *OrderRepository) UpdateLinesCancelled(ctx context.Context, orderID string, lineIDs []models.OrderLineID) error {
	key, err := orderIDKey(orderID)
	if err != nil {
		return err
	}

	return database.Transaction(r.db, func(tx *sqlx.Tx) error {
		for _, id := range lineIDs {
			_, err := tx.ExecContext(ctx, `
				UPDATE order_line SET cancelled = true
				WHERE order_id = $1 AND store_id = $2 AND product_type = $3 AND product_id = $4`,
				key, id.StoreID, uint8(id.ProductType), id.ProductID)
			if err != nil {
				return apperr.Wrap(apperr.KindRemoteDbServerFail, "OrderRepository.UpdateLinesCancelled", err)
			}
		}
		return nil
	})
}

// FetchLinesByRsvpExpiry returns up to limit order-line sets whose
// reserved_until < before and whose paid == 0 across all lines.
func (r *OrderRepository) FetchLinesByRsvpExpiry(ctx context.Context, before time.Time, limit int) ([]models.OrderLineModelSet, error) {
	var keys [][]byte
	err := r.db.SelectContext(ctx, &keys, `
		SELECT DISTINCT order_id FROM order_line
		WHERE reserved_until < $1 AND cancelled = false
		GROUP BY order_id HAVING SUM(paid) = 0
		LIMIT $2`, before, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteDbServerFail, "OrderRepository.FetchLinesByRsvpExpiry", err)
	}

	sets := make([]models.OrderLineModelSet, 0, len(keys))
	for _, key := range keys {
		orderID, err := oid.Decode(key)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindDataCorruption, "OrderRepository.FetchLinesByRsvpExpiry", err)
		}
		set, err := r.FetchAllLines(ctx, orderID)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, lines models.OrderLineModelSet) error {
	key, err := orderIDKey(lines.OrderID)
	if err != nil {
		return err
	}

	return database.Transaction(r.db, func(tx *sqlx.Tx) error {
		for _, line := range lines.Lines {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_line (order_id, store_id, product_type, product_id, unit_price, total_price,
				                        reserved, paid, reserved_until, warranty_until, cancelled)
				VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, false)`,
				key, line.ID.StoreID, uint8(line.ID.ProductType), line.ID.ProductID,
				line.Price.Unit.String(), line.Price.Total.String(),
				line.Qty.Reserved, line.Policy.ReservedUntil, line.Policy.WarrantyUntil)
			if err != nil {
				return apperr.Wrap(apperr.KindRemoteDbServerFail, "OrderRepository.CreateOrder", err)
			}
		}
		return nil
	})
}
