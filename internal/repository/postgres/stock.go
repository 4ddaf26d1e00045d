package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
)

// StockRepository persists stock buckets in order_stock_lvl, taking a
// SELECT ... FOR UPDATE row lock over the affected rows inside a
// transaction for the duration of a reserve/return cycle — the Postgres
// realization of the "datastore-scoped exclusive lock" §4.2/§5 describe.
type StockRepository struct {
	db *sqlx.DB
}

func NewStockRepository(db *sqlx.DB) *StockRepository {
	return &StockRepository{db: db}
}

type stockRow struct {
	StoreID         uint32    `db:"store_id"`
	ProductType     uint8     `db:"product_type"`
	ProductID       uint64    `db:"product_id"`
	Expiry          time.Time `db:"expiry"`
	Total           uint32    `db:"total"`
	Cancelled       uint32    `db:"cancelled"`
	Reservation     []byte    `db:"reservation"`
	PaidLastUpdate  *time.Time `db:"paid_last_update"`
}

func rowToModel(r stockRow) (models.ProductStockModel, error) {
	reservation := map[string]uint32{}
	if len(r.Reservation) > 0 {
		if err := json.Unmarshal(r.Reservation, &reservation); err != nil {
			return models.ProductStockModel{}, apperr.Wrap(apperr.KindDataCorruption, "StockRepository.rowToModel", err)
		}
	}
	return models.ProductStockModel{
		Identity: models.ProductStockIdentity{
			StoreID:     r.StoreID,
			ProductType: models.ProductType(r.ProductType),
			ProductID:   r.ProductID,
			Expiry:      r.Expiry,
		},
		Quantity: models.StockQuantity{
			Total:          r.Total,
			Cancelled:      r.Cancelled,
			Reservation:    reservation,
			PaidLastUpdate: r.PaidLastUpdate,
		},
	}, nil
}

func groupByStore(products []models.ProductStockModel) models.StockLevelModelSet {
	byStore := map[uint32][]models.ProductStockModel{}
	var order []uint32
	for _, p := range products {
		if _, seen := byStore[p.Identity.StoreID]; !seen {
			order = append(order, p.Identity.StoreID)
		}
		byStore[p.Identity.StoreID] = append(byStore[p.Identity.StoreID], p)
	}
	set := models.StockLevelModelSet{}
	for _, storeID := range order {
		set.Stores = append(set.Stores, models.StoreStockModel{StoreID: storeID, Products: byStore[storeID]})
	}
	return set
}

// Fetch performs an exact-identity lookup with no lock.
func (r *StockRepository) Fetch(ctx context.Context, identities []models.ProductStockIdentity) (models.StockLevelModelSet, error) {
	if len(identities) == 0 {
		return models.StockLevelModelSet{}, nil
	}

	var products []models.ProductStockModel
	for _, id := range identities {
		var row stockRow
		err := r.db.GetContext(ctx, &row, `
			SELECT store_id, product_type, product_id, expiry, total, cancelled, reservation, paid_last_update
			FROM order_stock_lvl
			WHERE store_id = $1 AND product_type = $2 AND product_id = $3 AND expiry = $4`,
			id.StoreID, uint8(id.ProductType), id.ProductID, id.Expiry)
		if err != nil {
			continue
		}
		model, err := rowToModel(row)
		if err != nil {
			return models.StockLevelModelSet{}, err
		}
		products = append(products, model)
	}

	return groupByStore(products), nil
}

// TryReserve acquires a row lock over the buckets the request touches,
// fetches the snapshot filtered to expiry > now, runs cb, and persists only
// if cb returns no errors.
func (r *StockRepository) TryReserve(ctx context.Context, cb interfaces.ReserveCallback, req *models.OrderLineModelSet) error {
	return withRetry(ctx, "StockRepository.TryReserve", func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return apperr.Wrap(apperr.KindAcquireLockFailure, "StockRepository.TryReserve", err)
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		rows, err := r.lockRowsForLines(ctx, tx, req.Lines)
		if err != nil {
			return apperr.Wrap(apperr.KindRemoteDbServerFail, "StockRepository.TryReserve", err)
		}

		products := make([]models.ProductStockModel, 0, len(rows))
		now := time.Now()
		for _, row := range rows {
			if !row.Expiry.After(now) {
				continue
			}
			m, err := rowToModel(row)
			if err != nil {
				return err
			}
			products = append(products, m)
		}
		set := groupByStore(products)

		cbErrs := cb(&set, req)
		if len(cbErrs) > 0 {
			return &apperr.ReserveRejected{Errors: cbErrs}
		}

		for _, store := range set.Stores {
			for _, p := range store.Products {
				if err := upsertBucket(ctx, tx, p); err != nil {
					return apperr.Wrap(apperr.KindRemoteDbServerFail, "StockRepository.TryReserve", err)
				}
			}
		}

		if err := tx.Commit(); err != nil {
			return apperr.Wrap(apperr.KindRemoteDbServerFail, "StockRepository.TryReserve", err)
		}
		committed = true
		return nil
	})
}

// TryReturn applies the same lock discipline with no expiry filter.
func (r *StockRepository) TryReturn(ctx context.Context, cb interfaces.ReturnCallback, dto *models.StockReturnDto) ([]apperr.StockReturnError, error) {
	var cbErrs []apperr.StockReturnError

	err := withRetry(ctx, "StockRepository.TryReturn", func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return apperr.Wrap(apperr.KindAcquireLockFailure, "StockRepository.TryReturn", err)
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		lines := make([]models.OrderLine, 0, len(dto.Items))
		for _, item := range dto.Items {
			lines = append(lines, models.OrderLine{ID: models.OrderLineID{StoreID: item.StoreID, ProductType: item.ProductType, ProductID: item.ProductID}})
		}
		rows, err := r.lockRowsForLines(ctx, tx, lines)
		if err != nil {
			return apperr.Wrap(apperr.KindRemoteDbServerFail, "StockRepository.TryReturn", err)
		}

		products := make([]models.ProductStockModel, 0, len(rows))
		for _, row := range rows {
			m, err := rowToModel(row)
			if err != nil {
				return err
			}
			products = append(products, m)
		}
		set := groupByStore(products)

		cbErrs = cb(&set, dto)

		for _, store := range set.Stores {
			for _, p := range store.Products {
				if err := upsertBucket(ctx, tx, p); err != nil {
					return apperr.Wrap(apperr.KindRemoteDbServerFail, "StockRepository.TryReturn", err)
				}
			}
		}

		if err := tx.Commit(); err != nil {
			return apperr.Wrap(apperr.KindRemoteDbServerFail, "StockRepository.TryReturn", err)
		}
		committed = true
		return nil
	})

	return cbErrs, err
}

func (r *StockRepository) lockRowsForLines(ctx context.Context, tx *sqlx.Tx, lines []models.OrderLine) ([]stockRow, error) {
	seen := map[string]struct{}{}
	var rows []stockRow

	for _, line := range lines {
		key := line.ID.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		var bucketRows []stockRow
		err := tx.SelectContext(ctx, &bucketRows, `
			SELECT store_id, product_type, product_id, expiry, total, cancelled, reservation, paid_last_update
			FROM order_stock_lvl
			WHERE store_id = $1 AND product_type = $2 AND product_id = $3
			FOR UPDATE`,
			line.ID.StoreID, uint8(line.ID.ProductType), line.ID.ProductID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, bucketRows...)
	}

	return rows, nil
}

func upsertBucket(ctx context.Context, tx *sqlx.Tx, p models.ProductStockModel) error {
	reservation, err := json.Marshal(p.Quantity.Reservation)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_stock_lvl (store_id, product_type, product_id, expiry, total, cancelled, reservation, paid_last_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (store_id, product_type, product_id, expiry) DO UPDATE SET
			total = EXCLUDED.total,
			cancelled = EXCLUDED.cancelled,
			reservation = EXCLUDED.reservation,
			paid_last_update = EXCLUDED.paid_last_update`,
		p.Identity.StoreID, uint8(p.Identity.ProductType), p.Identity.ProductID, p.Identity.Expiry,
		p.Quantity.Total, p.Quantity.Cancelled, reservation, p.Quantity.PaidLastUpdate)
	return err
}
