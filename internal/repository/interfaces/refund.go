package interfaces

import (
	"context"
	"time"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
)

// RefundRepository is the persistence contract for refund models and the
// sync-refund-req watermark (§4.8).
type RefundRepository interface {
	LastTimeSynced(ctx context.Context) (time.Time, error)
	UpdateSyncedTime(ctx context.Context, t time.Time) error

	// SaveRequest persists the given refund models, merging idempotently
	// with whatever is already stored for the same order id (at-least-once
	// delivery from the RPC pull loop makes this merge load-bearing).
	SaveRequest(ctx context.Context, models []models.OrderRefundModel) error

	// ResolveCompletion debits the given completion request's quantities
	// from the order's refund model, returning one QtyInsufficient error
	// per line that would overdraw — and performing no mutation at all if
	// any line fails (§4.6 step 4's all-or-nothing debit).
	ResolveCompletion(ctx context.Context, orderID string, merchantID uint32, req []RefundDebit) ([]apperr.RefundModelError, error)

	FetchByOrder(ctx context.Context, orderID string) (models.OrderRefundModel, error)
}

// RefundDebit is one line of a completion request translated into the
// (pid, issued-at, qty) triple ResolveCompletion needs to locate and debit
// a refund line.
type RefundDebit struct {
	Pid        models.RefundLinePid
	TimeIssued time.Time
	Qty        uint32
}
