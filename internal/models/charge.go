package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/halvorsen/ecom-order-core/pkg/money"
)

// CurrencyCode is an ISO 4217 alphabetic currency code ("USD", "KRW", ...).
type CurrencyCode string

// OrderCurrencySnapshot captures the exchange rate in effect when a charge
// was created, for one (buyer, merchant) pair. Immutable thereafter.
type OrderCurrencySnapshot struct {
	Label CurrencyCode
	Rate  decimal.Decimal
}

// BuyerPayInStateKind enumerates the charge state machine's named states.
// Initialized -> OrderAppSynced(t) -> ProcessorAccepted(t) ->
// ProcessorCompleted(t) -> OrderAppExpired | OrderAppSynced. Terminal
// failure: Unknown.
type BuyerPayInStateKind string

const (
	PayInInitialized        BuyerPayInStateKind = "Initialized"
	PayInOrderAppSynced     BuyerPayInStateKind = "OrderAppSynced"
	PayInProcessorAccepted  BuyerPayInStateKind = "ProcessorAccepted"
	PayInProcessorCompleted BuyerPayInStateKind = "ProcessorCompleted"
	PayInOrderAppExpired    BuyerPayInStateKind = "OrderAppExpired"
	PayInUnknown            BuyerPayInStateKind = "Unknown"
)

// BuyerPayInState is the tagged-variant state of a buyer's pay-in attempt:
// the Kind discriminator plus the timestamp payload the timed arms carry.
// The zero value (Kind == "") is treated as Initialized.
type BuyerPayInState struct {
	Kind BuyerPayInStateKind
	At   *time.Time
}

// Charge3partyKind enumerates the three-party payment method used.
type Charge3partyKind string

const (
	Charge3partyStripe Charge3partyKind = "Stripe"
	Charge3partyPaypal Charge3partyKind = "Paypal"
	Charge3partyManual Charge3partyKind = "Manual"
)

// Charge3partyModel is the tagged variant identifying which external
// processor handles a charge, plus that processor's own reference id once
// known.
type Charge3partyModel struct {
	Kind      Charge3partyKind
	Reference string
}

// ChargeBuyerMeta is the header of a buyer's charge attempt. (Owner,
// CreateTime) is the charge's primary key.
type ChargeBuyerMeta struct {
	Owner      uint32
	CreateTime time.Time
	OrderID    string
	State      BuyerPayInState
	Method     Charge3partyModel
}

// ChargeLineQty bundles a total amount with its quantity.
type ChargeLineQty struct {
	Total money.Amount
	Qty   uint32
}

// ChargeRejected tracks quantities rejected for cause rather than refunded.
type ChargeRejected struct {
	QtyDamaged uint32
	QtyFraud   uint32
}

// ChargeLineBuyer is one (merchant, product) line within a buyer's charge.
// Invariant: refunded.qty + rejected.qty_* <= amount.qty; refunded.total <= amount.total.
type ChargeLineBuyer struct {
	Pid      ChargeLinePid
	Amount   ChargeLineQty
	Refunded ChargeLineQty
	Rejected ChargeRejected
}

// ChargeLinePid identifies a charge line's (merchant, product) dimension.
type ChargeLinePid struct {
	MerchantID  uint32
	ProductType ProductType
	ProductID   uint64
}

// RemainingRefundableQty is how much of this line's purchased quantity has
// neither been refunded nor rejected.
func (l ChargeLineBuyer) RemainingRefundableQty() uint32 {
	claimed := l.Refunded.Qty + l.Rejected.QtyDamaged + l.Rejected.QtyFraud
	if claimed >= l.Amount.Qty {
		return 0
	}
	return l.Amount.Qty - claimed
}

// ChargeBuyerModel is a full charge: header plus its per-(merchant,
// product) lines and currency snapshots keyed by merchant id.
type ChargeBuyerModel struct {
	Meta      ChargeBuyerMeta
	Lines     []ChargeLineBuyer
	Currency  map[uint32]OrderCurrencySnapshot
}

// Key returns the charge's primary key as a comparable string.
func (m ChargeBuyerModel) Key() string {
	return ChargeKey(m.Meta.Owner, m.Meta.CreateTime)
}

func ChargeKey(owner uint32, createTime time.Time) string {
	return createTime.UTC().Format(time.RFC3339Nano) + "#" + strconv.FormatUint(uint64(owner), 10)
}
