package models

import (
	"time"

	"github.com/halvorsen/ecom-order-core/pkg/money"
)

// RefundLinePid identifies a refund line's (merchant, product) dimension,
// mirroring ChargeLinePid.
type RefundLinePid struct {
	MerchantID  uint32
	ProductType ProductType
	ProductID   uint64
}

// RefundLine is the remaining refundable quantity for one product returned
// against an order. CreateTime distinguishes re-refunds of the same
// product submitted at different times.
type RefundLine struct {
	Pid        RefundLinePid
	CreateTime time.Time
	Amount     money.Amount
	Qty        uint32
}

// OrderRefundModel is the refund aggregate for one order: the remaining
// refundable quantities derived from items the buyer returned.
type OrderRefundModel struct {
	OrderID string
	Lines   []RefundLine
}

// FindLine locates the refund line matching pid whose CreateTime is within
// tolerance of issuedAt — §4.6 step 4 resolves a completion line against
// "(pid, create_time ≈ request.time_issued)".
func (m *OrderRefundModel) FindLine(pid RefundLinePid, issuedAt time.Time, tolerance time.Duration) *RefundLine {
	for i := range m.Lines {
		l := &m.Lines[i]
		if l.Pid != pid {
			continue
		}
		delta := l.CreateTime.Sub(issuedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= tolerance {
			return l
		}
	}
	return nil
}

// Debit removes qty from the line's remaining quantity, clamping at zero
// and reporting how much was actually debited.
func (l *RefundLine) Debit(qty uint32) uint32 {
	debited := qty
	if debited > l.Qty {
		debited = l.Qty
	}
	l.Qty -= debited
	return debited
}
