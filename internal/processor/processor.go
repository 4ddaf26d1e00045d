// Package processor adapts the charge's three-party payment method
// (§4.6 step 6) to an outbound HTTP call against that processor's refund
// endpoint, grounded on the teacher's pkg/client/canopy request/response
// client shape (post/get helpers over a bare http.Client, JSON in/out).
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
	"github.com/halvorsen/ecom-order-core/internal/models"
)

// RefundDelta is one (product, qty) debit finalize-refund asks the
// processor to apply against a single charge (§4.6 step 6).
type RefundDelta struct {
	Pid models.ChargeLinePid
	Qty uint32
}

// PaymentProcessor drives a refund against a charge's three-party method.
// Implementations must treat Refund failures as non-fatal to the caller —
// finalize-refund collects them into errors_3party rather than aborting.
type PaymentProcessor interface {
	Refund(ctx context.Context, secret string, meta models.ChargeBuyerMeta, deltas []RefundDelta) error
}

// HTTPProcessor posts a refund request to a configurable per-method
// endpoint map (e.g. Stripe vs. Paypal) and interprets any response status
// other than 200 as a ProcessorErrorReason rather than a transport error, since a
// processor-declined refund is an expected, handled outcome.
type HTTPProcessor struct {
	endpoints map[models.Charge3partyKind]string
	client    *http.Client
}

func NewHTTPProcessor(endpoints map[models.Charge3partyKind]string) *HTTPProcessor {
	return &HTTPProcessor{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type refundRequest struct {
	ChargeOwner      uint32          `json:"charge_owner"`
	ChargeCreateTime time.Time       `json:"charge_create_time"`
	Reference        string          `json:"reference"`
	Deltas           []refundDeltaDto `json:"deltas"`
}

type refundDeltaDto struct {
	MerchantID  uint32 `json:"merchant_id"`
	ProductType uint8  `json:"product_type"`
	ProductID   uint64 `json:"product_id"`
	Qty         uint32 `json:"qty"`
}

type refundResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

func (p *HTTPProcessor) Refund(ctx context.Context, secret string, meta models.ChargeBuyerMeta, deltas []RefundDelta) error {
	endpoint, ok := p.endpoints[meta.Method.Kind]
	if !ok {
		return apperr.InvalidMethod(fmt.Sprintf("no endpoint configured for %s", meta.Method.Kind))
	}

	dtoDeltas := make([]refundDeltaDto, 0, len(deltas))
	for _, d := range deltas {
		dtoDeltas = append(dtoDeltas, refundDeltaDto{
			MerchantID:  d.Pid.MerchantID,
			ProductType: uint8(d.Pid.ProductType),
			ProductID:   d.Pid.ProductID,
			Qty:         d.Qty,
		})
	}

	body, err := json.Marshal(refundRequest{
		ChargeOwner:      meta.Owner,
		ChargeCreateTime: meta.CreateTime,
		Reference:        meta.Method.Reference,
		Deltas:           dtoDeltas,
	})
	if err != nil {
		return apperr.ProcessorErrorReason{Kind: "EncodingFailure", Detail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return apperr.ProcessorErrorReason{Kind: "RequestBuildFailure", Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := p.client.Do(req)
	if err != nil {
		return apperr.ProcessorErrorReason{Kind: "Unreachable", Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.ProcessorErrorReason{Kind: "ReadBodyFailure", Detail: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return apperr.ProcessorErrorReason{Kind: "DeclinedByIssuer", Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, string(raw))}
	}

	var out refundResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return apperr.ProcessorErrorReason{Kind: "DecodingFailure", Detail: err.Error()}
	}
	if !out.Accepted {
		return apperr.ProcessorErrorReason{Kind: "DeclinedByIssuer", Detail: out.Reason}
	}
	return nil
}
