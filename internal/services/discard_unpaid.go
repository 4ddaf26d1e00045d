package services

import (
	"context"
	"errors"

	"github.com/halvorsen/ecom-order-core/internal/domain/stock"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
)

// DiscardUnpaidResult aggregates what the sweep did across every fetched
// order-line set — it does not short-circuit on a single failure, so a
// caller needs the per-kind error slices to know what succeeded anyway.
type DiscardUnpaidResult struct {
	SetsProcessed int
	ReturnErrors  []error
	CancelErrors  []error
}

// Err returns the first error of each kind encountered, joined, or nil if
// the sweep ran clean — §4.5: "the sweep does not short-circuit... but
// returns a non-ok result to the caller."
func (r DiscardUnpaidResult) Err() error {
	var firsts []error
	if len(r.ReturnErrors) > 0 {
		firsts = append(firsts, r.ReturnErrors[0])
	}
	if len(r.CancelErrors) > 0 {
		firsts = append(firsts, r.CancelErrors[0])
	}
	switch len(firsts) {
	case 0:
		return nil
	case 1:
		return firsts[0]
	default:
		return errors.Join(firsts...)
	}
}

// DiscardUnpaidService is the scheduled sweep that releases stock held by
// reservations whose window lapsed without payment (§4.5).
type DiscardUnpaidService struct {
	orderRepo interfaces.OrderRepository
	clock     interfaces.Clock
}

func NewDiscardUnpaidService(orderRepo interfaces.OrderRepository, clock interfaces.Clock) *DiscardUnpaidService {
	return &DiscardUnpaidService{orderRepo: orderRepo, clock: clock}
}

// Execute fetches up to limit lapsed order-line sets and, for each,
// releases its stock reservation and marks its lines cancelled — attempting
// every fetched set regardless of earlier failures.
func (s *DiscardUnpaidService) Execute(ctx context.Context, limit int) (DiscardUnpaidResult, error) {
	now := s.clock.Now()

	sets, err := s.orderRepo.FetchLinesByRsvpExpiry(ctx, now, limit)
	if err != nil {
		return DiscardUnpaidResult{}, err
	}

	var result DiscardUnpaidResult
	for _, set := range sets {
		result.SetsProcessed++

		dto := stockReturnDtoFor(set)
		if _, err := s.orderRepo.Stock().TryReturn(ctx, stock.ReturnAllByOrder, dto); err != nil {
			result.ReturnErrors = append(result.ReturnErrors, err)
		}

		ids := make([]models.OrderLineID, 0, len(set.Lines))
		for _, line := range set.Lines {
			ids = append(ids, line.ID)
		}
		if err := s.orderRepo.UpdateLinesCancelled(ctx, set.OrderID, ids); err != nil {
			result.CancelErrors = append(result.CancelErrors, err)
		}
	}

	return result, result.Err()
}

func stockReturnDtoFor(set models.OrderLineModelSet) *models.StockReturnDto {
	items := make([]models.StockReturnItem, 0, len(set.Lines))
	for _, line := range set.Lines {
		items = append(items, models.StockReturnItem{
			StoreID:     line.ID.StoreID,
			ProductType: line.ID.ProductType,
			ProductID:   line.ID.ProductID,
			OrderID:     set.OrderID,
			Qty:         line.Qty.Reserved,
		})
	}
	return &models.StockReturnDto{Items: items}
}
