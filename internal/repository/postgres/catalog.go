package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
)

// CatalogRepository is the read-only view into the staff portal's
// product-policy/price tables that create-order needs to assemble its
// inputs (§4.4); the staff portal owns writing these tables.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

type policyRow struct {
	ProductType   uint8         `db:"product_type"`
	ProductID     uint64        `db:"product_id"`
	AutoCancel    time.Duration `db:"auto_cancel_secs"`
	WarrantyHours time.Duration `db:"warranty_hours"`
}

func (r *CatalogRepository) FetchPolicies(ctx context.Context) (models.ProductPolicyModelSet, error) {
	var rows []policyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT product_type, product_id, auto_cancel_secs, warranty_hours
		FROM product_policy`)
	if err != nil {
		return models.ProductPolicyModelSet{}, apperr.Wrap(apperr.KindRemoteDbServerFail, "CatalogRepository.FetchPolicies", err)
	}

	set := models.ProductPolicyModelSet{Entries: make(map[models.ProductPolicyKey]models.ProductPolicyModel, len(rows))}
	for _, row := range rows {
		key := models.ProductPolicyKey{ProductType: models.ProductType(row.ProductType), ProductID: row.ProductID}
		set.Entries[key] = models.ProductPolicyModel{
			Key:           key,
			AutoCancel:    row.AutoCancel * time.Second,
			WarrantyHours: row.WarrantyHours * time.Hour,
		}
	}
	return set, nil
}

type priceRow struct {
	SellerID    uint32    `db:"seller_id"`
	ProductType uint8     `db:"product_type"`
	ProductID   uint64    `db:"product_id"`
	UnitPrice   string    `db:"unit_price"`
	StartAfter  time.Time `db:"start_after"`
	EndBefore   time.Time `db:"end_before"`
}

func (r *CatalogRepository) FetchPrices(ctx context.Context, sellerIDs []uint32) (models.ProductPriceModelSet, error) {
	if len(sellerIDs) == 0 {
		return models.ProductPriceModelSet{Entries: map[models.ProductPriceKey][]models.ProductPriceModel{}}, nil
	}

	query, args, err := sqlx.In(`
		SELECT seller_id, product_type, product_id, unit_price, start_after, end_before
		FROM product_price WHERE seller_id IN (?)`, sellerIDs)
	if err != nil {
		return models.ProductPriceModelSet{}, apperr.Wrap(apperr.KindInvalidInput, "CatalogRepository.FetchPrices", err)
	}
	query = r.db.Rebind(query)

	var rows []priceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return models.ProductPriceModelSet{}, apperr.Wrap(apperr.KindRemoteDbServerFail, "CatalogRepository.FetchPrices", err)
	}

	set := models.ProductPriceModelSet{Entries: make(map[models.ProductPriceKey][]models.ProductPriceModel)}
	for _, row := range rows {
		unitPrice, err := decimalFromString(row.UnitPrice)
		if err != nil {
			return models.ProductPriceModelSet{}, apperr.Wrap(apperr.KindDataCorruption, "CatalogRepository.FetchPrices", err)
		}
		key := models.ProductPriceKey{SellerID: row.SellerID, ProductType: models.ProductType(row.ProductType), ProductID: row.ProductID}
		set.Entries[key] = append(set.Entries[key], models.ProductPriceModel{
			Key:        key,
			UnitPrice:  unitPrice,
			StartAfter: row.StartAfter,
			EndBefore:  row.EndBefore,
		})
	}
	return set, nil
}
