package services

import (
	"context"
	"time"

	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/internal/rpc"
	"github.com/halvorsen/ecom-order-core/pkg/money"
)

// replicaRefundRequest is the body sent on rpc.order.order_returned_replica_refund
// — the time window since the watermark was last advanced (§4.7).
type replicaRefundRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// replicaAmountDto is the wire {unit, total} decimal-string pair (§6).
type replicaAmountDto struct {
	Unit  string `json:"unit"`
	Total string `json:"total"`
}

// replicaRefundLineDto is one returned line in the replica's response (§6:
// "{seller_id, product_id, product_type, create_time, amount, qty}").
type replicaRefundLineDto struct {
	SellerID    uint32           `json:"seller_id"`
	ProductType uint8            `json:"product_type"`
	ProductID   uint64           `json:"product_id"`
	CreateTime  time.Time        `json:"create_time"`
	Amount      replicaAmountDto `json:"amount"`
	Qty         uint32           `json:"qty"`
}

// replicaRefundDto maps order id to the lines returned against it (§6:
// "response {order_id → [...]}").
type replicaRefundDto map[string][]replicaRefundLineDto

// SyncRefundService pulls newly-returned items from the replica since the
// last synced watermark and merges them into local refund models (§4.7).
type SyncRefundService struct {
	refundRepo interfaces.RefundRepository
	rpcClient  *rpc.Client
	clock      interfaces.Clock
}

func NewSyncRefundService(refundRepo interfaces.RefundRepository, rpcClient *rpc.Client, clock interfaces.Clock) *SyncRefundService {
	return &SyncRefundService{refundRepo: refundRepo, rpcClient: rpcClient, clock: clock}
}

// Execute runs one pull cycle: fetch the watermark, pull everything since,
// convert the response into refund models, and only on full success persist
// the models and advance the watermark (§4.7: "the watermark only advances
// once the whole batch round-trips without error").
func (s *SyncRefundService) Execute(ctx context.Context) error {
	start, err := s.refundRepo.LastTimeSynced(ctx)
	if err != nil {
		return err
	}
	end := s.clock.Now()

	var dto replicaRefundDto
	req := replicaRefundRequest{Start: start, End: end}
	if err := s.rpcClient.Call(ctx, rpc.Route(rpc.HandlerOrderReturnedReplicaRefund), req, &dto); err != nil {
		return err
	}

	refundModels := make([]models.OrderRefundModel, 0, len(dto))
	for orderID, lines := range dto {
		model := models.OrderRefundModel{OrderID: orderID}
		for _, l := range lines {
			unit, err := decimalFromDtoString(l.Amount.Unit)
			if err != nil {
				return err
			}
			total, err := decimalFromDtoString(l.Amount.Total)
			if err != nil {
				return err
			}
			model.Lines = append(model.Lines, models.RefundLine{
				Pid: models.RefundLinePid{
					MerchantID:  l.SellerID,
					ProductType: models.ProductType(l.ProductType),
					ProductID:   l.ProductID,
				},
				CreateTime: l.CreateTime,
				Amount:     money.Amount{Unit: unit, Total: total},
				Qty:        l.Qty,
			})
		}
		refundModels = append(refundModels, model)
	}

	if len(refundModels) > 0 {
		if err := s.refundRepo.SaveRequest(ctx, refundModels); err != nil {
			return err
		}
	}

	return s.refundRepo.UpdateSyncedTime(ctx, end)
}
