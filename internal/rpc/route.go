// Package rpc implements the envelope and route-label contract described in
// §6: `{usr_id, time, route, message}` over route strings of the form
// `rpc.<service>.<handler>`. Grounded exactly on
// services/order/src/constant.rs's handler-label constants and
// extract_handler_label parser.
package rpc

import (
	"strings"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
)

// ServiceLabel is the second route token this deployment answers to.
const ServiceLabel = "order"

// Handler labels for this core (§6).
const (
	HandlerUpdateStoreProducts           = "update_store_products"
	HandlerStockLevelEdit                = "stock_level_edit"
	HandlerStockReturnCancelled          = "stock_return_cancelled"
	HandlerOrderReservedReplicaInventory = "order_reserved_replica_inventory"
	HandlerOrderReservedReplicaPayment   = "order_reserved_replica_payment"
	HandlerOrderReturnedReplicaRefund    = "order_returned_replica_refund"
	HandlerOrderReservedUpdatePayment    = "order_reserved_update_payment"
	HandlerOrderReservedDiscardUnpaid    = "order_reserved_discard_unpaid"
)

var allowedHandlers = map[string]struct{}{
	HandlerUpdateStoreProducts:           {},
	HandlerStockLevelEdit:                {},
	HandlerStockReturnCancelled:          {},
	HandlerOrderReservedReplicaInventory: {},
	HandlerOrderReservedReplicaPayment:   {},
	HandlerOrderReturnedReplicaRefund:    {},
	HandlerOrderReservedUpdatePayment:    {},
	HandlerOrderReservedDiscardUnpaid:    {},
}

// ExtractHandlerLabel parses route into its handler label. route must be
// exactly three dot-separated tokens: "rpc", ServiceLabel, then a label in
// the allowed set — any other shape fails with KindInvalidInput.
func ExtractHandlerLabel(route string) (string, error) {
	tokens := strings.Split(route, ".")
	if len(tokens) != 3 {
		return "", apperr.New(apperr.KindInvalidInput, "rpc.ExtractHandlerLabel", "route must have exactly 3 dot-separated tokens")
	}
	if tokens[0] != "rpc" {
		return "", apperr.New(apperr.KindInvalidInput, "rpc.ExtractHandlerLabel", "first token must be \"rpc\"")
	}
	if tokens[1] != ServiceLabel {
		return "", apperr.New(apperr.KindInvalidInput, "rpc.ExtractHandlerLabel", "second token must be \""+ServiceLabel+"\"")
	}
	if _, ok := allowedHandlers[tokens[2]]; !ok {
		return "", apperr.New(apperr.KindInvalidInput, "rpc.ExtractHandlerLabel", "unknown handler label \""+tokens[2]+"\"")
	}
	return tokens[2], nil
}

// Route builds a "rpc.<service>.<handler>" string for an outbound call.
func Route(handler string) string {
	return "rpc." + ServiceLabel + "." + handler
}
