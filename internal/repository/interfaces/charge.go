package interfaces

import (
	"context"
	"time"

	"github.com/halvorsen/ecom-order-core/internal/models"
)

// ChargeLineUpdate is one (charge_key, line delta) pair applied by
// UpdateLinesRefund — the accumulated debits finalize-refund persists after
// driving the payment processor (§4.6 step 7).
type ChargeLineUpdate struct {
	Owner       uint32
	CreateTime  time.Time
	Pid         models.ChargeLinePid
	RefundedQty uint32
	RefundedAmt models.ChargeLineQty
	Rejected    models.ChargeRejected
}

// ChargeRepository is the persistence contract for buyer charges (§4.8).
type ChargeRepository interface {
	// CreateOrder records the order-creation-time charge scaffolding
	// alongside the order's lines and billing contact.
	CreateOrder(ctx context.Context, lines models.OrderLineModelSet, billing models.BillingModel) error

	CreateCharge(ctx context.Context, meta models.ChargeBuyerMeta, lines []models.ChargeLineBuyer) error

	FetchChargeMeta(ctx context.Context, owner uint32, createTime time.Time) (models.ChargeBuyerMeta, error)
	FetchAllChargeLines(ctx context.Context, owner uint32, createTime time.Time) ([]models.ChargeLineBuyer, error)

	UpdateChargeProgress(ctx context.Context, meta models.ChargeBuyerMeta) error

	// FetchChargesByMerchant returns every charge for orderID touching
	// merchantID, ordered by create_time ascending.
	FetchChargesByMerchant(ctx context.Context, orderID string, merchantID uint32) ([]models.ChargeBuyerModel, error)

	UpdateLinesRefund(ctx context.Context, updates []ChargeLineUpdate) error
}
