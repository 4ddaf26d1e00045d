package apperr

import "fmt"

// ProductStockRef identifies a stock bucket's product dimension for error
// reporting, independent of expiry (a NotEnoughToClaim/QtyInsufficient error
// is reported per product, not per bucket).
type ProductStockRef struct {
	StoreID     uint32
	ProductType uint8
	ProductID   uint64
}

// StockLevelError is the tagged-variant result of the reservation algorithm
// (§4.2): today the only arm is NotEnoughToClaim, but it is modelled as a
// Kind + payload struct so new arms don't require touching every caller.
type StockLevelError struct {
	Kind    string // "NotEnoughToClaim"
	Pid     ProductStockRef
	NumReq  uint32
	NumAvail uint32
}

func NotEnoughToClaim(pid ProductStockRef, numReq, numAvail uint32) StockLevelError {
	return StockLevelError{Kind: "NotEnoughToClaim", Pid: pid, NumReq: numReq, NumAvail: numAvail}
}

func (e StockLevelError) Error() string {
	return fmt.Sprintf("NotEnoughToClaim{pid=%+v, num_req=%d, num_avail=%d}", e.Pid, e.NumReq, e.NumAvail)
}

// StockReturnError reports a failed return against a specific bucket, e.g.
// the reservation referenced by order id no longer holds the requested qty.
type StockReturnError struct {
	Kind    string // "ReservationNotFound", "DataStore"
	Pid     ProductStockRef
	OrderID string
	Detail  string
}

func (e StockReturnError) Error() string {
	return fmt.Sprintf("%s{pid=%+v, order_id=%s, detail=%s}", e.Kind, e.Pid, e.OrderID, e.Detail)
}

// RefundModelError is the tagged-variant result of resolving a completion
// request against an OrderRefundModel (§4.6 step 4).
type RefundModelError struct {
	Kind     string // "QtyInsufficient"
	Pid      ProductStockRef
	NumAvail uint32
	NumReq   uint32
}

func QtyInsufficient(pid ProductStockRef, numAvail, numReq uint32) RefundModelError {
	return RefundModelError{Kind: "QtyInsufficient", Pid: pid, NumAvail: numAvail, NumReq: numReq}
}

func (e RefundModelError) Error() string {
	return fmt.Sprintf("QtyInsufficient{pid=%+v, num_avail=%d, num_req=%d}", e.Pid, e.NumAvail, e.NumReq)
}

// ReserveRejected is returned verbatim by Stock.TryReserve when the
// reservation callback could not satisfy every line — it carries the
// callback's own error type rather than being folded into a generic
// datastore error (§4.2: "the callback's error type is surfaced to the
// caller verbatim").
type ReserveRejected struct {
	Errors []StockLevelError
}

func (e *ReserveRejected) Error() string {
	return fmt.Sprintf("reservation rejected: %d line(s) short", len(e.Errors))
}

// LineNonexist reports one create-order line missing its policy and/or
// price entry (§4.4 steps 1-2).
type LineNonexist struct {
	SellerID           uint32
	ProductType        uint8
	ProductID          uint64
	NonexistPolicy     bool
	NonexistPrice      bool
}

// CreateOrderRejected is the client error create-order fails with when any
// requested line is missing its policy or price entry — carries one
// LineNonexist per such line, distinct from a server-side stock/persistence
// failure.
type CreateOrderRejected struct {
	Lines []LineNonexist
}

func (e CreateOrderRejected) Error() string {
	return fmt.Sprintf("create order rejected: %d line(s) missing policy/price", len(e.Lines))
}

// RefundResolutionFailed is returned when resolving a completion request
// against the refund model would overdraw one or more lines — §4.6 step 4:
// "fail with RefundResolution([QtyInsufficient...]) and perform no
// mutation."
type RefundResolutionFailed struct {
	Errors []RefundModelError
}

func (e RefundResolutionFailed) Error() string {
	return fmt.Sprintf("refund resolution failed: %d line(s) insufficient", len(e.Errors))
}

// ProcessorErrorReason tags a non-fatal payment-processor failure collected
// into errors_3party during finalize-refund (§4.6 step 6).
type ProcessorErrorReason struct {
	Kind   string // "InvalidMethod", "DeclinedByIssuer", ...
	Detail string
}

func InvalidMethod(detail string) ProcessorErrorReason {
	return ProcessorErrorReason{Kind: "InvalidMethod", Detail: detail}
}

func (e ProcessorErrorReason) Error() string {
	return fmt.Sprintf("%s(%q)", e.Kind, e.Detail)
}
