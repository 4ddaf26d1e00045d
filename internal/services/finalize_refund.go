package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/processor"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/pkg/money"
)

// OrderSyncLockCache is the AbstractOrderSyncLockCache contract from §5,
// narrowed to what finalize-refund needs to guard concurrent
// charge-mutation attempts for the same (staff_user, order).
type OrderSyncLockCache interface {
	Acquire(usrID uint32, orderID string) (bool, error)
	Release(usrID uint32, orderID string) error
}

// FinalizeRefundInput is the (order, merchant, acting staff, requested
// lines) tuple finalize-refund resolves (§4.6).
type FinalizeRefundInput struct {
	OrderID     string
	MerchantID  uint32
	StaffUserID uint32
	Lines       []models.RefundCompletionLineRequest
}

// FinalizeRefundService drives the staff-resolved refund completion flow:
// authorize staff, validate against the outstanding refund model, debit
// approved quantities from the oldest unresolved charges, and invoke the
// payment processor per charge with pending debits (§4.6).
type FinalizeRefundService struct {
	merchantRepo interfaces.MerchantRepository
	refundRepo   interfaces.RefundRepository
	chargeRepo   interfaces.ChargeRepository
	proc         processor.PaymentProcessor
	clock        interfaces.Clock
	lockCache    OrderSyncLockCache
}

func NewFinalizeRefundService(
	merchantRepo interfaces.MerchantRepository,
	refundRepo interfaces.RefundRepository,
	chargeRepo interfaces.ChargeRepository,
	proc processor.PaymentProcessor,
	clock interfaces.Clock,
	lockCache OrderSyncLockCache,
) *FinalizeRefundService {
	return &FinalizeRefundService{
		merchantRepo: merchantRepo,
		refundRepo:   refundRepo,
		chargeRepo:   chargeRepo,
		proc:         proc,
		clock:        clock,
		lockCache:    lockCache,
	}
}

// Execute runs the full finalize-refund algorithm (§4.6 steps 1-8) and
// returns the completion response alongside any non-fatal processor
// failures collected along the way.
func (s *FinalizeRefundService) Execute(ctx context.Context, in FinalizeRefundInput) (models.RefundCompletionResponse, error) {
	acquired, err := s.lockCache.Acquire(in.StaffUserID, in.OrderID)
	if err != nil {
		return models.RefundCompletionResponse{}, apperr.Wrap(apperr.KindAcquireLockFailure, "FinalizeRefundService.Execute", err)
	}
	if !acquired {
		return models.RefundCompletionResponse{}, apperr.New(apperr.KindAcquireLockFailure, "FinalizeRefundService.Execute", "refund finalization already in progress for this order")
	}
	defer s.lockCache.Release(in.StaffUserID, in.OrderID)

	merchant, err := s.merchantRepo.Fetch(ctx, in.MerchantID)
	if err != nil {
		return models.RefundCompletionResponse{}, apperr.New(apperr.KindNotFound, "FinalizeRefundService.Execute", "MerchantNotFound")
	}
	if !merchant.IsAuthorizedStaff(in.StaffUserID) {
		return models.RefundCompletionResponse{}, apperr.New(apperr.KindPermissionDenied, "FinalizeRefundService.Execute", "staff not authorized for merchant")
	}

	refundModel, err := s.refundRepo.FetchByOrder(ctx, in.OrderID)
	if err != nil {
		return models.RefundCompletionResponse{}, err
	}
	if len(refundModel.Lines) == 0 {
		return models.RefundCompletionResponse{}, apperr.New(apperr.KindNotFound, "FinalizeRefundService.Execute", "MissingRefundReq")
	}

	charges, err := s.chargeRepo.FetchChargesByMerchant(ctx, in.OrderID, in.MerchantID)
	if err != nil {
		return models.RefundCompletionResponse{}, err
	}
	if len(charges) == 0 {
		return models.RefundCompletionResponse{}, apperr.New(apperr.KindNotFound, "FinalizeRefundService.Execute", "MissingChargeId("+in.OrderID+")")
	}
	sort.SliceStable(charges, func(i, j int) bool {
		return charges[i].Meta.CreateTime.Before(charges[j].Meta.CreateTime)
	})

	debits := make([]interfaces.RefundDebit, 0, len(in.Lines))
	for _, line := range in.Lines {
		pid := models.RefundLinePid{MerchantID: in.MerchantID, ProductType: models.ProductType(line.ProductType), ProductID: line.ProductID}
		total := line.QtyApproved + line.QtyRejectedDamaged + line.QtyRejectedFraud
		debits = append(debits, interfaces.RefundDebit{Pid: pid, TimeIssued: line.TimeIssued, Qty: total})
	}

	rejections, err := s.refundRepo.ResolveCompletion(ctx, in.OrderID, in.MerchantID, debits)
	if err != nil {
		return models.RefundCompletionResponse{}, err
	}
	if len(rejections) > 0 {
		return models.RefundCompletionResponse{}, apperr.RefundResolutionFailed{Errors: rejections}
	}

	// Step 5: distribute each line's approved qty across charges oldest
	// first, recomputing the amount from each charge line's own unit price.
	// consumed tracks, per (charge index, charge-line index), how much this
	// call has already drawn from that charge line — two requested lines
	// sharing a product (distinguished only by time_issued) must not both
	// see the charge line's full, un-decremented capacity.
	consumed := make([][]uint32, len(charges))
	for ci := range charges {
		consumed[ci] = make([]uint32, len(charges[ci].Lines))
	}

	type planEntry struct {
		update  interfaces.ChargeLineUpdate
		lineIdx int
	}
	plan := make(map[string][]planEntry)
	responseLines := make([]models.RefundCompletionLineResponse, len(in.Lines))

	for li, line := range in.Lines {
		pid := models.ChargeLinePid{MerchantID: in.MerchantID, ProductType: models.ProductType(line.ProductType), ProductID: line.ProductID}
		need := line.QtyApproved

		var approvedQty uint32
		approvedTotal := decimal.Zero

		for ci := range charges {
			if need == 0 {
				break
			}
			charge := &charges[ci]
			for cli := range charge.Lines {
				cl := &charge.Lines[cli]
				if cl.Pid != pid {
					continue
				}
				remaining := cl.RemainingRefundableQty()
				if consumed[ci][cli] >= remaining {
					continue
				}
				avail := remaining - consumed[ci][cli]
				take := need
				if take > avail {
					take = avail
				}

				key := models.ChargeKey(charge.Meta.Owner, charge.Meta.CreateTime)
				plan[key] = append(plan[key], planEntry{
					lineIdx: li,
					update: interfaces.ChargeLineUpdate{
						Owner:       charge.Meta.Owner,
						CreateTime:  charge.Meta.CreateTime,
						Pid:         pid,
						RefundedQty: take,
						RefundedAmt: models.ChargeLineQty{Total: money.Amount{Unit: cl.Amount.Total.Unit, Total: money.LineTotal(cl.Amount.Total.Unit, take)}, Qty: take},
					},
				})

				consumed[ci][cli] += take
				need -= take
				approvedQty += take
				approvedTotal = approvedTotal.Add(money.LineTotal(cl.Amount.Total.Unit, take))
			}
		}

		responseLines[li] = models.RefundCompletionLineResponse{
			ProductType:   line.ProductType,
			ProductID:     line.ProductID,
			ApprovedQty:   approvedQty,
			ApprovedTotal: approvedTotal,
			Rejected:      models.RefundRejectionSummary{Damaged: line.QtyRejectedDamaged, Fraud: line.QtyRejectedFraud},
		}
	}

	// Step 6: invoke the processor per charge with pending debits. A
	// failure here is non-fatal — it is collected and the debits it would
	// have produced are rolled back from both the persistence plan and the
	// reported response totals.
	chargeByKey := make(map[string]models.ChargeBuyerModel, len(charges))
	for _, c := range charges {
		chargeByKey[models.ChargeKey(c.Meta.Owner, c.Meta.CreateTime)] = c
	}

	var errors3Party []string
	finalUpdates := make([]interfaces.ChargeLineUpdate, 0, len(plan))

	for key, entries := range plan {
		charge := chargeByKey[key]

		secret, err := s.merchantRepo.FetchSecret(ctx, in.MerchantID)
		if err != nil {
			return models.RefundCompletionResponse{}, err
		}

		deltas := make([]processor.RefundDelta, 0, len(entries))
		for _, e := range entries {
			deltas = append(deltas, processor.RefundDelta{Pid: e.update.Pid, Qty: e.update.RefundedQty})
		}

		if err := s.proc.Refund(ctx, secret, charge.Meta, deltas); err != nil {
			errors3Party = append(errors3Party, err.Error())
			for _, e := range entries {
				responseLines[e.lineIdx].ApprovedQty -= e.update.RefundedQty
				responseLines[e.lineIdx].ApprovedTotal = responseLines[e.lineIdx].ApprovedTotal.Sub(e.update.RefundedAmt.Total.Total)
			}
			continue
		}

		for _, e := range entries {
			finalUpdates = append(finalUpdates, e.update)
		}
	}

	// Step 7: persist the (possibly partial) plan.
	if len(finalUpdates) > 0 {
		if err := s.chargeRepo.UpdateLinesRefund(ctx, finalUpdates); err != nil {
			return models.RefundCompletionResponse{}, err
		}
	}

	return models.RefundCompletionResponse{Lines: responseLines, Errors3Party: errors3Party}, nil
}
