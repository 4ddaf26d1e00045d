package services

import (
	"context"
	"crypto/rand"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/domain/stock"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/pkg/money"
	"github.com/halvorsen/ecom-order-core/pkg/oid"
)

// CreateOrderInput is what the HTTP handler assembles from the request
// body plus the policy/price catalogs it loaded to evaluate it (§4.4).
type CreateOrderInput struct {
	Lines    []models.CreateOrderLineRequest
	Policies models.ProductPolicyModelSet
	Prices   models.ProductPriceModelSet
	Billing  models.BillingModel
	Shipping models.ShippingModel
}

// CreateOrderService reserves stock for a buyer's requested lines and, on
// success, persists the order, billing, and shipping (§4.4).
type CreateOrderService struct {
	orderRepo interfaces.OrderRepository
	clock     interfaces.Clock
}

func NewCreateOrderService(orderRepo interfaces.OrderRepository, clock interfaces.Clock) *CreateOrderService {
	return &CreateOrderService{orderRepo: orderRepo, clock: clock}
}

// Execute evaluates each requested line against the supplied policy/price
// catalogs, reserves stock for every resolvable line, and on success
// persists the order contact and lines. A line missing its policy or price
// entry fails the whole call with apperr.CreateOrderRejected — a client
// error distinct from a stock or persistence failure.
func (s *CreateOrderService) Execute(ctx context.Context, in CreateOrderInput) (models.CreateOrderResponse, error) {
	now := s.clock.Now()

	var nonexist []apperr.LineNonexist
	lines := make([]models.OrderLine, 0, len(in.Lines))

	for _, req := range in.Lines {
		ptype := models.ProductType(req.ProductType)

		policy, hasPolicy := in.Policies.Find(ptype, req.ProductID)
		price, hasPrice := in.Prices.Find(req.SellerID, ptype, req.ProductID, now)

		if !hasPolicy || !hasPrice {
			nonexist = append(nonexist, apperr.LineNonexist{
				SellerID:       req.SellerID,
				ProductType:    req.ProductType,
				ProductID:      req.ProductID,
				NonexistPolicy: !hasPolicy,
				NonexistPrice:  !hasPrice,
			})
			continue
		}

		lines = append(lines, models.OrderLine{
			ID:    models.OrderLineID{StoreID: req.SellerID, ProductType: ptype, ProductID: req.ProductID},
			Price: money.Amount{Unit: price.UnitPrice, Total: money.LineTotal(price.UnitPrice, req.Quantity)},
			Qty:   models.OrderLineQty{Reserved: req.Quantity},
			Policy: models.OrderLinePolicy{
				ReservedUntil: now.Add(policy.AutoCancel),
				WarrantyUntil: now.Add(policy.WarrantyHours),
			},
		})
	}

	if len(nonexist) > 0 {
		return models.CreateOrderResponse{}, apperr.CreateOrderRejected{Lines: nonexist}
	}

	orderID, err := newOrderID()
	if err != nil {
		return models.CreateOrderResponse{}, err
	}
	set := &models.OrderLineModelSet{OrderID: orderID, Lines: lines}

	err = s.orderRepo.Stock().TryReserve(ctx, func(set *models.StockLevelModelSet, req *models.OrderLineModelSet) []apperr.StockLevelError {
		return stock.ReserveLines(set, req, now)
	}, set)
	if err != nil {
		return models.CreateOrderResponse{}, err
	}

	if err := s.orderRepo.CreateOrder(ctx, *set); err != nil {
		return models.CreateOrderResponse{}, err
	}
	if err := s.orderRepo.SaveContact(ctx, orderID, in.Billing, in.Shipping); err != nil {
		return models.CreateOrderResponse{}, err
	}

	return models.CreateOrderResponse{OrderID: orderID}, nil
}

// newOrderID mints a fresh order id as the hex encoding of 16 random bytes —
// a value pkg/oid.Encode accepts unchanged and round-trips through the
// datastore's fixed-width BINARY(16) representation (§4.3/§6).
func newOrderID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", apperr.Wrap(apperr.KindInvalidInput, "newOrderID", err)
	}
	id, err := oid.Decode(b[:])
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalidInput, "newOrderID", err)
	}
	return id, nil
}
