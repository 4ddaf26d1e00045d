package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/processor"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/pkg/money"
)

type mockMerchantRepo struct{ mock.Mock }

func (m *mockMerchantRepo) Create(ctx context.Context, p models.MerchantProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockMerchantRepo) Fetch(ctx context.Context, merchantID uint32) (models.MerchantProfile, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(models.MerchantProfile), args.Error(1)
}

func (m *mockMerchantRepo) Update(ctx context.Context, p models.MerchantProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockMerchantRepo) FetchSecret(ctx context.Context, merchantID uint32) (string, error) {
	args := m.Called(ctx, merchantID)
	return args.String(0), args.Error(1)
}

type mockRefundRepo struct{ mock.Mock }

func (m *mockRefundRepo) LastTimeSynced(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockRefundRepo) UpdateSyncedTime(ctx context.Context, t time.Time) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRefundRepo) SaveRequest(ctx context.Context, models_ []models.OrderRefundModel) error {
	args := m.Called(ctx, models_)
	return args.Error(0)
}

func (m *mockRefundRepo) ResolveCompletion(ctx context.Context, orderID string, merchantID uint32, req []interfaces.RefundDebit) ([]apperr.RefundModelError, error) {
	args := m.Called(ctx, orderID, merchantID, req)
	return args.Get(0).([]apperr.RefundModelError), args.Error(1)
}

func (m *mockRefundRepo) FetchByOrder(ctx context.Context, orderID string) (models.OrderRefundModel, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.OrderRefundModel), args.Error(1)
}

type mockChargeRepo struct{ mock.Mock }

func (m *mockChargeRepo) CreateOrder(ctx context.Context, lines models.OrderLineModelSet, billing models.BillingModel) error {
	args := m.Called(ctx, lines, billing)
	return args.Error(0)
}

func (m *mockChargeRepo) CreateCharge(ctx context.Context, meta models.ChargeBuyerMeta, lines []models.ChargeLineBuyer) error {
	args := m.Called(ctx, meta, lines)
	return args.Error(0)
}

func (m *mockChargeRepo) FetchChargeMeta(ctx context.Context, owner uint32, createTime time.Time) (models.ChargeBuyerMeta, error) {
	args := m.Called(ctx, owner, createTime)
	return args.Get(0).(models.ChargeBuyerMeta), args.Error(1)
}

func (m *mockChargeRepo) FetchAllChargeLines(ctx context.Context, owner uint32, createTime time.Time) ([]models.ChargeLineBuyer, error) {
	args := m.Called(ctx, owner, createTime)
	return args.Get(0).([]models.ChargeLineBuyer), args.Error(1)
}

func (m *mockChargeRepo) UpdateChargeProgress(ctx context.Context, meta models.ChargeBuyerMeta) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *mockChargeRepo) FetchChargesByMerchant(ctx context.Context, orderID string, merchantID uint32) ([]models.ChargeBuyerModel, error) {
	args := m.Called(ctx, orderID, merchantID)
	return args.Get(0).([]models.ChargeBuyerModel), args.Error(1)
}

func (m *mockChargeRepo) UpdateLinesRefund(ctx context.Context, updates []interfaces.ChargeLineUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

type mockProcessor struct{ mock.Mock }

func (m *mockProcessor) Refund(ctx context.Context, secret string, meta models.ChargeBuyerMeta, deltas []processor.RefundDelta) error {
	args := m.Called(ctx, secret, meta, deltas)
	return args.Error(0)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// alwaysUnlockedCache is a no-op OrderSyncLockCache stand-in that always
// grants the lock — the concurrency guard itself is exercised separately;
// these tests exercise the refund-resolution algorithm.
type alwaysUnlockedCache struct{}

func (alwaysUnlockedCache) Acquire(usrID uint32, orderID string) (bool, error) { return true, nil }
func (alwaysUnlockedCache) Release(usrID uint32, orderID string) error        { return nil }

const (
	testOrderID    = "d003bea7"
	testMerchantID = uint32(127)
)

func unitPrice(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func testMerchant() models.MerchantProfile {
	return models.MerchantProfile{
		MerchantID: testMerchantID,
		Name:       "Acme Storefront",
		ValidStaff: map[uint32]struct{}{55: {}},
		Supervisor: 55,
		Created:    time.Now(),
	}
}

// buildRefundModel constructs the refund model from scenario 3: lines
// (8299/Item @t-19min qty=1), (8299/Item @t-29min qty=6),
// (8454/Item @t-39min qty=7), (8454/Item @t-49min qty=8).
func buildRefundModel(now time.Time) models.OrderRefundModel {
	return models.OrderRefundModel{
		OrderID: testOrderID,
		Lines: []models.RefundLine{
			{Pid: models.RefundLinePid{MerchantID: testMerchantID, ProductType: models.ProductTypeItem, ProductID: 8299}, CreateTime: now.Add(-19 * time.Minute), Qty: 1},
			{Pid: models.RefundLinePid{MerchantID: testMerchantID, ProductType: models.ProductTypeItem, ProductID: 8299}, CreateTime: now.Add(-29 * time.Minute), Qty: 6},
			{Pid: models.RefundLinePid{MerchantID: testMerchantID, ProductType: models.ProductTypeItem, ProductID: 8454}, CreateTime: now.Add(-39 * time.Minute), Qty: 7},
			{Pid: models.RefundLinePid{MerchantID: testMerchantID, ProductType: models.ProductTypeItem, ProductID: 8454}, CreateTime: now.Add(-49 * time.Minute), Qty: 8},
		},
	}
}

// buildCompletionRequest returns the requested approvals (0,2,7,5) plus
// rejections totalling (1,4,0,3), matching scenario 3/4.
func buildCompletionRequest(now time.Time) []models.RefundCompletionLineRequest {
	return []models.RefundCompletionLineRequest{
		{ProductType: uint8(models.ProductTypeItem), ProductID: 8299, TimeIssued: now.Add(-19 * time.Minute), QtyApproved: 0, QtyRejectedDamaged: 1, QtyRejectedFraud: 0},
		{ProductType: uint8(models.ProductTypeItem), ProductID: 8299, TimeIssued: now.Add(-29 * time.Minute), QtyApproved: 2, QtyRejectedDamaged: 4, QtyRejectedFraud: 0},
		{ProductType: uint8(models.ProductTypeItem), ProductID: 8454, TimeIssued: now.Add(-39 * time.Minute), QtyApproved: 7, QtyRejectedDamaged: 0, QtyRejectedFraud: 0},
		{ProductType: uint8(models.ProductTypeItem), ProductID: 8454, TimeIssued: now.Add(-49 * time.Minute), QtyApproved: 5, QtyRejectedDamaged: 3, QtyRejectedFraud: 0},
	}
}

// buildCharges returns the two charges from scenario 3: the newer at
// t-49min covering product 8299 and 8454, the older at t-88min covering
// the remainder — enough supply on each line for the oldest-first
// distribution algorithm to exercise multiple charges per product.
func buildCharges(now time.Time) []models.ChargeBuyerModel {
	newer := models.ChargeBuyerModel{
		Meta: models.ChargeBuyerMeta{Owner: 900, CreateTime: now.Add(-49 * time.Minute), OrderID: testOrderID, Method: models.Charge3partyModel{Kind: models.Charge3partyStripe}},
		Lines: []models.ChargeLineBuyer{
			{Pid: models.ChargeLinePid{MerchantID: testMerchantID, ProductType: models.ProductTypeItem, ProductID: 8299}, Amount: models.ChargeLineQty{Total: money.Amount{Unit: unitPrice("32.5"), Total: money.LineTotal(unitPrice("32.5"), 8)}, Qty: 8}},
			{Pid: models.ChargeLinePid{MerchantID: testMerchantID, ProductType: models.ProductTypeItem, ProductID: 8454}, Amount: models.ChargeLineQty{Total: money.Amount{Unit: unitPrice("90.9"), Total: money.LineTotal(unitPrice("90.9"), 5)}, Qty: 5}},
		},
	}
	older := models.ChargeBuyerModel{
		Meta: models.ChargeBuyerMeta{Owner: 900, CreateTime: now.Add(-88 * time.Minute), OrderID: testOrderID, Method: models.Charge3partyModel{Kind: models.Charge3partyStripe}},
		Lines: []models.ChargeLineBuyer{
			{Pid: models.ChargeLinePid{MerchantID: testMerchantID, ProductType: models.ProductTypeItem, ProductID: 8454}, Amount: models.ChargeLineQty{Total: money.Amount{Unit: unitPrice("90.9"), Total: money.LineTotal(unitPrice("90.9"), 10)}, Qty: 10}},
		},
	}
	// Charges are persisted/returned unordered by the repository mock;
	// the use case itself re-sorts ascending by create_time (§4.6 step 3).
	return []models.ChargeBuyerModel{older, newer}
}

func TestFinalizeRefund_AllApproved(t *testing.T) {
	now := time.Now()

	merchantRepo := new(mockMerchantRepo)
	refundRepo := new(mockRefundRepo)
	chargeRepo := new(mockChargeRepo)
	proc := new(mockProcessor)

	merchantRepo.On("Fetch", mock.Anything, testMerchantID).Return(testMerchant(), nil)
	merchantRepo.On("FetchSecret", mock.Anything, testMerchantID).Return("sk_test", nil)
	refundRepo.On("FetchByOrder", mock.Anything, testOrderID).Return(buildRefundModel(now), nil)
	chargeRepo.On("FetchChargesByMerchant", mock.Anything, testOrderID, testMerchantID).Return(buildCharges(now), nil)
	refundRepo.On("ResolveCompletion", mock.Anything, testOrderID, testMerchantID, mock.Anything).
		Return([]apperr.RefundModelError{}, nil)
	proc.On("Refund", mock.Anything, "sk_test", mock.Anything, mock.Anything).Return(nil)
	chargeRepo.On("UpdateLinesRefund", mock.Anything, mock.Anything).Return(nil)

	svc := NewFinalizeRefundService(merchantRepo, refundRepo, chargeRepo, proc, fixedClock{now: now}, alwaysUnlockedCache{})

	resp, err := svc.Execute(context.Background(), FinalizeRefundInput{
		OrderID:     testOrderID,
		MerchantID:  testMerchantID,
		StaffUserID: 55,
		Lines:       buildCompletionRequest(now),
	})

	require.NoError(t, err)
	require.Len(t, resp.Lines, 4)
	assert.Empty(t, resp.Errors3Party)

	assert.Equal(t, uint32(0), resp.Lines[0].ApprovedQty)
	assert.True(t, resp.Lines[0].ApprovedTotal.Equal(decimal.Zero))

	assert.Equal(t, uint32(2), resp.Lines[1].ApprovedQty)
	assert.True(t, resp.Lines[1].ApprovedTotal.Equal(money.LineTotal(unitPrice("32.5"), 2)))

	assert.Equal(t, uint32(7), resp.Lines[2].ApprovedQty)
	assert.True(t, resp.Lines[2].ApprovedTotal.Equal(money.LineTotal(unitPrice("90.9"), 7)))

	assert.Equal(t, uint32(5), resp.Lines[3].ApprovedQty)
	assert.True(t, resp.Lines[3].ApprovedTotal.Equal(money.LineTotal(unitPrice("90.9"), 5)))

	chargeRepo.AssertExpectations(t)
}

func TestFinalizeRefund_ProcessorFailsOnOlderCharge(t *testing.T) {
	now := time.Now()

	merchantRepo := new(mockMerchantRepo)
	refundRepo := new(mockRefundRepo)
	chargeRepo := new(mockChargeRepo)
	proc := new(mockProcessor)

	merchantRepo.On("Fetch", mock.Anything, testMerchantID).Return(testMerchant(), nil)
	merchantRepo.On("FetchSecret", mock.Anything, testMerchantID).Return("sk_test", nil)
	refundRepo.On("FetchByOrder", mock.Anything, testOrderID).Return(buildRefundModel(now), nil)
	chargeRepo.On("FetchChargesByMerchant", mock.Anything, testOrderID, testMerchantID).Return(buildCharges(now), nil)
	refundRepo.On("ResolveCompletion", mock.Anything, testOrderID, testMerchantID, mock.Anything).
		Return([]apperr.RefundModelError{}, nil)
	chargeRepo.On("UpdateLinesRefund", mock.Anything, mock.Anything).Return(nil)

	olderCreateTime := now.Add(-88 * time.Minute)
	proc.On("Refund", mock.Anything, "sk_test", mock.MatchedBy(func(meta models.ChargeBuyerMeta) bool {
		return meta.CreateTime.Equal(olderCreateTime)
	}), mock.Anything).Return(apperr.InvalidMethod("unit-test"))
	proc.On("Refund", mock.Anything, "sk_test", mock.MatchedBy(func(meta models.ChargeBuyerMeta) bool {
		return !meta.CreateTime.Equal(olderCreateTime)
	}), mock.Anything).Return(nil)

	svc := NewFinalizeRefundService(merchantRepo, refundRepo, chargeRepo, proc, fixedClock{now: now}, alwaysUnlockedCache{})

	resp, err := svc.Execute(context.Background(), FinalizeRefundInput{
		OrderID:     testOrderID,
		MerchantID:  testMerchantID,
		StaffUserID: 55,
		Lines:       buildCompletionRequest(now),
	})

	require.NoError(t, err)
	require.Len(t, resp.Errors3Party, 1)
	assert.Equal(t, `InvalidMethod("unit-test")`, resp.Errors3Party[0])

	// Line 2 (8454 @t-39min, need=7) was distributed entirely against the
	// older charge, so it rolls back to 0 when that charge's processor call
	// fails. Line 3 (8454 @t-49min, need=5) drew 3 from the failing older
	// charge and 2 from the surviving newer charge — only the 2 survive.
	assert.Equal(t, uint32(0), resp.Lines[0].ApprovedQty)
	assert.Equal(t, uint32(2), resp.Lines[1].ApprovedQty)
	assert.Equal(t, uint32(0), resp.Lines[2].ApprovedQty)
	assert.Equal(t, uint32(2), resp.Lines[3].ApprovedQty)
}

func TestFinalizeRefund_MissingCharges(t *testing.T) {
	now := time.Now()

	merchantRepo := new(mockMerchantRepo)
	refundRepo := new(mockRefundRepo)
	chargeRepo := new(mockChargeRepo)
	proc := new(mockProcessor)

	merchantRepo.On("Fetch", mock.Anything, testMerchantID).Return(testMerchant(), nil)
	refundRepo.On("FetchByOrder", mock.Anything, testOrderID).Return(buildRefundModel(now), nil)
	chargeRepo.On("FetchChargesByMerchant", mock.Anything, testOrderID, testMerchantID).Return([]models.ChargeBuyerModel{}, nil)

	svc := NewFinalizeRefundService(merchantRepo, refundRepo, chargeRepo, proc, fixedClock{now: now}, alwaysUnlockedCache{})

	_, err := svc.Execute(context.Background(), FinalizeRefundInput{
		OrderID:     testOrderID,
		MerchantID:  testMerchantID,
		StaffUserID: 55,
		Lines:       buildCompletionRequest(now),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MissingChargeId")
	chargeRepo.AssertNotCalled(t, "UpdateLinesRefund", mock.Anything, mock.Anything)
}

func TestFinalizeRefund_StaffNotAuthorized(t *testing.T) {
	now := time.Now()

	merchantRepo := new(mockMerchantRepo)
	refundRepo := new(mockRefundRepo)
	chargeRepo := new(mockChargeRepo)
	proc := new(mockProcessor)

	merchantRepo.On("Fetch", mock.Anything, testMerchantID).Return(testMerchant(), nil)

	svc := NewFinalizeRefundService(merchantRepo, refundRepo, chargeRepo, proc, fixedClock{now: now}, alwaysUnlockedCache{})

	_, err := svc.Execute(context.Background(), FinalizeRefundInput{
		OrderID:     testOrderID,
		MerchantID:  testMerchantID,
		StaffUserID: 999,
		Lines:       buildCompletionRequest(now),
	})

	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindPermissionDenied, appErr.Kind)
}

func TestFinalizeRefund_RefundResolutionOverdraws(t *testing.T) {
	now := time.Now()

	merchantRepo := new(mockMerchantRepo)
	refundRepo := new(mockRefundRepo)
	chargeRepo := new(mockChargeRepo)
	proc := new(mockProcessor)

	merchantRepo.On("Fetch", mock.Anything, testMerchantID).Return(testMerchant(), nil)
	refundRepo.On("FetchByOrder", mock.Anything, testOrderID).Return(buildRefundModel(now), nil)
	chargeRepo.On("FetchChargesByMerchant", mock.Anything, testOrderID, testMerchantID).Return(buildCharges(now), nil)

	overdraw := apperr.QtyInsufficient(apperr.ProductStockRef{StoreID: testMerchantID, ProductType: uint8(models.ProductTypeItem), ProductID: 8299}, 1, 99)
	refundRepo.On("ResolveCompletion", mock.Anything, testOrderID, testMerchantID, mock.Anything).
		Return([]apperr.RefundModelError{overdraw}, nil)

	svc := NewFinalizeRefundService(merchantRepo, refundRepo, chargeRepo, proc, fixedClock{now: now}, alwaysUnlockedCache{})

	_, err := svc.Execute(context.Background(), FinalizeRefundInput{
		OrderID:     testOrderID,
		MerchantID:  testMerchantID,
		StaffUserID: 55,
		Lines:       buildCompletionRequest(now),
	})

	require.Error(t, err)
	var rejected apperr.RefundResolutionFailed
	require.ErrorAs(t, err, &rejected)
	require.Len(t, rejected.Errors, 1)
	chargeRepo.AssertNotCalled(t, "UpdateLinesRefund", mock.Anything, mock.Anything)
}
