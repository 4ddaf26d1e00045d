// Package interfaces declares the repository contracts the use-case layer
// depends on. Each file here mirrors one aggregate from §3/§4.8; Postgres
// implementations live in internal/repository/postgres.
package interfaces

import (
	"context"
	"time"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
)

// ReserveCallback is the user-supplied reservation algorithm invoked inside
// TryReserve's lock. It mutates set in place and returns one error per line
// it could not fully satisfy.
type ReserveCallback func(set *models.StockLevelModelSet, req *models.OrderLineModelSet) []apperr.StockLevelError

// ReturnCallback is the user-supplied release algorithm invoked inside
// TryReturn's lock.
type ReturnCallback func(set *models.StockLevelModelSet, dto *models.StockReturnDto) []apperr.StockReturnError

// StockRepository is the transactional store of stock buckets (§4.2).
type StockRepository interface {
	// Fetch returns the exact-identity lookup for the given buckets.
	Fetch(ctx context.Context, identities []models.ProductStockIdentity) (models.StockLevelModelSet, error)

	// TryReserve locks the affected (store, product) rows, fetches the
	// current set filtered to buckets with expiry > now, invokes cb, and
	// persists only if cb returns no errors. On rejection it returns
	// *apperr.ReserveRejected carrying cb's errors verbatim; lock/transport
	// failures return an *apperr.Error with KindAcquireLockFailure or
	// KindRemoteDbServerFailure.
	TryReserve(ctx context.Context, cb ReserveCallback, req *models.OrderLineModelSet) error

	// TryReturn applies the same lock discipline with no expiry filter and
	// returns cb's per-item errors directly (the call itself only fails on
	// lock/transport errors).
	TryReturn(ctx context.Context, cb ReturnCallback, dto *models.StockReturnDto) ([]apperr.StockReturnError, error)
}

// Clock abstracts time.Now so use cases and tests can inject a fixed time.
type Clock interface {
	Now() time.Time
}
