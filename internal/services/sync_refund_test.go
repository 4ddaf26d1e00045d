package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/rpc"
)

func replicaServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env rpc.Envelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		require.Equal(t, rpc.Route(rpc.HandlerOrderReturnedReplicaRefund), env.Route)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestSyncRefund_FullSuccessAdvancesWatermark is scenario 8's happy path:
// a two-order response round-trips cleanly, so save_request persists both
// models and the watermark advances to the pull's end time.
func TestSyncRefund_FullSuccessAdvancesWatermark(t *testing.T) {
	start := time.Now().Add(-time.Hour).Truncate(time.Second).UTC()
	end := time.Now().Truncate(time.Second).UTC()

	body := `{
		"order-aaa": [{"seller_id": 127, "product_type": 1, "product_id": 8299, "create_time": "` + start.Add(time.Minute).Format(time.RFC3339) + `", "amount": {"unit": "32.5", "total": "65"}, "qty": 2}],
		"order-bbb": [{"seller_id": 127, "product_type": 1, "product_id": 8454, "create_time": "` + start.Add(2*time.Minute).Format(time.RFC3339) + `", "amount": {"unit": "90.9", "total": "454.5"}, "qty": 5}]
	}`
	srv := replicaServer(t, body)

	refundRepo := new(mockRefundRepo)
	refundRepo.On("LastTimeSynced", mock.Anything).Return(start, nil)
	refundRepo.On("SaveRequest", mock.Anything, mock.MatchedBy(func(ms []models.OrderRefundModel) bool {
		return len(ms) == 2
	})).Return(nil)
	refundRepo.On("UpdateSyncedTime", mock.Anything, end).Return(nil)

	client := rpc.NewClient(srv.URL, 1, srv.Client())
	svc := NewSyncRefundService(refundRepo, client, fixedClock{now: end})

	err := svc.Execute(context.Background())

	require.NoError(t, err)
	refundRepo.AssertCalled(t, "SaveRequest", mock.Anything, mock.MatchedBy(func(ms []models.OrderRefundModel) bool {
		return len(ms) == 2
	}))
	refundRepo.AssertCalled(t, "UpdateSyncedTime", mock.Anything, end)
}

// TestSyncRefund_DecodeFailureSkipsPersist is scenario 8's failure path: a
// malformed amount field fails decimal decode, so neither save_request nor
// update_synced_time run — the watermark must not advance on a partial pull.
func TestSyncRefund_DecodeFailureSkipsPersist(t *testing.T) {
	start := time.Now().Add(-time.Hour).Truncate(time.Second).UTC()
	end := time.Now().Truncate(time.Second).UTC()

	body := `{
		"order-aaa": [{"seller_id": 127, "product_type": 1, "product_id": 8299, "create_time": "` + start.Add(time.Minute).Format(time.RFC3339) + `", "amount": {"unit": "not-a-decimal", "total": "65"}, "qty": 2}]
	}`
	srv := replicaServer(t, body)

	refundRepo := new(mockRefundRepo)
	refundRepo.On("LastTimeSynced", mock.Anything).Return(start, nil)

	client := rpc.NewClient(srv.URL, 1, srv.Client())
	svc := NewSyncRefundService(refundRepo, client, fixedClock{now: end})

	err := svc.Execute(context.Background())

	require.Error(t, err)
	refundRepo.AssertNotCalled(t, "SaveRequest", mock.Anything, mock.Anything)
	refundRepo.AssertNotCalled(t, "UpdateSyncedTime", mock.Anything, mock.Anything)
}
