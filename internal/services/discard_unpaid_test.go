package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
)

type mockStockRepo struct{ mock.Mock }

func (m *mockStockRepo) Fetch(ctx context.Context, identities []models.ProductStockIdentity) (models.StockLevelModelSet, error) {
	args := m.Called(ctx, identities)
	return args.Get(0).(models.StockLevelModelSet), args.Error(1)
}

func (m *mockStockRepo) TryReserve(ctx context.Context, cb interfaces.ReserveCallback, req *models.OrderLineModelSet) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockStockRepo) TryReturn(ctx context.Context, cb interfaces.ReturnCallback, dto *models.StockReturnDto) ([]apperr.StockReturnError, error) {
	args := m.Called(ctx, dto)
	return args.Get(0).([]apperr.StockReturnError), args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
	stock *mockStockRepo
}

func (m *mockOrderRepo) SaveContact(ctx context.Context, orderID string, billing models.BillingModel, shipping models.ShippingModel) error {
	args := m.Called(ctx, orderID, billing, shipping)
	return args.Error(0)
}

func (m *mockOrderRepo) FetchBilling(ctx context.Context, orderID string) (models.BillingModel, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.BillingModel), args.Error(1)
}

func (m *mockOrderRepo) FetchShipping(ctx context.Context, orderID string) (models.ShippingModel, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.ShippingModel), args.Error(1)
}

func (m *mockOrderRepo) FetchAllLines(ctx context.Context, orderID string) (models.OrderLineModelSet, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.OrderLineModelSet), args.Error(1)
}

func (m *mockOrderRepo) UpdateLinesCancelled(ctx context.Context, orderID string, lineIDs []models.OrderLineID) error {
	args := m.Called(ctx, orderID, lineIDs)
	return args.Error(0)
}

func (m *mockOrderRepo) FetchLinesByRsvpExpiry(ctx context.Context, before time.Time, limit int) ([]models.OrderLineModelSet, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]models.OrderLineModelSet), args.Error(1)
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, lines models.OrderLineModelSet) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *mockOrderRepo) Stock() interfaces.StockRepository {
	return m.stock
}

// TestDiscardUnpaid_PartialFailureStillAttemptsRemainingSets is scenario 6:
// two fetched sets, stock return fails on the second with
// DataCorruption("unit-test") — the sweep still attempts line-cancel for
// the first set and reports the failure rather than short-circuiting.
func TestDiscardUnpaid_PartialFailureStillAttemptsRemainingSets(t *testing.T) {
	now := time.Now()

	firstSet := models.OrderLineModelSet{
		OrderID: "aaaa1111",
		Lines: []models.OrderLine{
			{ID: models.OrderLineID{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 10}, Qty: models.OrderLineQty{Reserved: 2}},
		},
	}
	secondSet := models.OrderLineModelSet{
		OrderID: "bbbb2222",
		Lines: []models.OrderLine{
			{ID: models.OrderLineID{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 20}, Qty: models.OrderLineQty{Reserved: 3}},
		},
	}

	stockRepo := new(mockStockRepo)
	orderRepo := &mockOrderRepo{stock: stockRepo}

	orderRepo.On("FetchLinesByRsvpExpiry", mock.Anything, mock.Anything, 100).
		Return([]models.OrderLineModelSet{firstSet, secondSet}, nil)

	dataCorruption := apperr.New(apperr.KindDataCorruption, "StockRepository.TryReturn", "unit-test")

	stockRepo.On("TryReturn", mock.Anything, mock.MatchedBy(func(dto *models.StockReturnDto) bool {
		return len(dto.Items) == 1 && dto.Items[0].OrderID == firstSet.OrderID
	})).Return([]apperr.StockReturnError{}, nil)
	stockRepo.On("TryReturn", mock.Anything, mock.MatchedBy(func(dto *models.StockReturnDto) bool {
		return len(dto.Items) == 1 && dto.Items[0].OrderID == secondSet.OrderID
	})).Return([]apperr.StockReturnError(nil), dataCorruption)

	orderRepo.On("UpdateLinesCancelled", mock.Anything, firstSet.OrderID, mock.Anything).Return(nil)
	orderRepo.On("UpdateLinesCancelled", mock.Anything, secondSet.OrderID, mock.Anything).Return(nil)

	svc := NewDiscardUnpaidService(orderRepo, fixedClock{now: now})

	result, err := svc.Execute(context.Background(), 100)

	require.Error(t, err)
	assert.Equal(t, dataCorruption, err)
	assert.Equal(t, 2, result.SetsProcessed)
	require.Len(t, result.ReturnErrors, 1)
	assert.Equal(t, dataCorruption, result.ReturnErrors[0])
	assert.Empty(t, result.CancelErrors)

	orderRepo.AssertCalled(t, "UpdateLinesCancelled", mock.Anything, firstSet.OrderID, mock.Anything)
	orderRepo.AssertCalled(t, "UpdateLinesCancelled", mock.Anything, secondSet.OrderID, mock.Anything)
}

// TestDiscardUnpaid_CleanSweep covers the non-error path: every fetched set
// returns and cancels cleanly, so Execute reports no error.
func TestDiscardUnpaid_CleanSweep(t *testing.T) {
	now := time.Now()

	set := models.OrderLineModelSet{
		OrderID: "cccc3333",
		Lines: []models.OrderLine{
			{ID: models.OrderLineID{StoreID: 1, ProductType: models.ProductTypeItem, ProductID: 30}, Qty: models.OrderLineQty{Reserved: 1}},
		},
	}

	stockRepo := new(mockStockRepo)
	orderRepo := &mockOrderRepo{stock: stockRepo}

	orderRepo.On("FetchLinesByRsvpExpiry", mock.Anything, mock.Anything, 50).
		Return([]models.OrderLineModelSet{set}, nil)
	stockRepo.On("TryReturn", mock.Anything, mock.Anything).Return([]apperr.StockReturnError{}, nil)
	orderRepo.On("UpdateLinesCancelled", mock.Anything, set.OrderID, mock.Anything).Return(nil)

	svc := NewDiscardUnpaidService(orderRepo, fixedClock{now: now})

	result, err := svc.Execute(context.Background(), 50)

	require.NoError(t, err)
	assert.Equal(t, 1, result.SetsProcessed)
	assert.Empty(t, result.ReturnErrors)
	assert.Empty(t, result.CancelErrors)
}
