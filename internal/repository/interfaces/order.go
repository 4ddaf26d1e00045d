package interfaces

import (
	"context"
	"time"

	"github.com/halvorsen/ecom-order-core/internal/models"
)

// OrderRepository is the persistence contract for order headers, lines,
// billing, and shipping (§4.3).
type OrderRepository interface {
	// SaveContact persists billing and shipping for orderID. Fails with
	// KindInvalidInput if shipping has no options.
	SaveContact(ctx context.Context, orderID string, billing models.BillingModel, shipping models.ShippingModel) error

	// FetchBilling/FetchShipping return KindNotFound on an unknown order id
	// rather than a zero value, so callers can distinguish missing from empty.
	FetchBilling(ctx context.Context, orderID string) (models.BillingModel, error)
	FetchShipping(ctx context.Context, orderID string) (models.ShippingModel, error)

	FetchAllLines(ctx context.Context, orderID string) (models.OrderLineModelSet, error)

	// UpdateLinesCancelled marks the given lines of orderID cancelled,
	// atomically per order.
	UpdateLinesCancelled(ctx context.Context, orderID string, lineIDs []models.OrderLineID) error

	// FetchLinesByRsvpExpiry returns up to limit order-line sets whose
	// reserved_until < before and whose paid == 0 across all lines.
	FetchLinesByRsvpExpiry(ctx context.Context, before time.Time, limit int) ([]models.OrderLineModelSet, error)

	// CreateOrder persists a freshly reserved order's lines.
	CreateOrder(ctx context.Context, lines models.OrderLineModelSet) error

	// Stock returns the stock repository this order repository is scoped to.
	Stock() StockRepository
}
