package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/halvorsen/ecom-order-core/internal/middleware"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/services"
	"github.com/halvorsen/ecom-order-core/internal/validators"
	"github.com/halvorsen/ecom-order-core/pkg/response"
)

// RefundHandler exposes the staff-facing finalize-refund use case (§4.6).
type RefundHandler struct {
	svc       *services.FinalizeRefundService
	validator *validators.Validator
}

func NewRefundHandler(svc *services.FinalizeRefundService, validator *validators.Validator) *RefundHandler {
	return &RefundHandler{svc: svc, validator: validator}
}

// FinalizeRefund handles
// POST /api/v1/orders/{order_id}/merchants/{merchant_id}/refund.
func (h *RefundHandler) FinalizeRefund(w http.ResponseWriter, r *http.Request) {
	staffUserID, ok := middleware.StaffUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "missing staff identity")
		return
	}

	orderID := chi.URLParam(r, "order_id")
	merchantID, err := strconv.ParseUint(chi.URLParam(r, "merchant_id"), 10, 32)
	if err != nil {
		response.BadRequest(w, "invalid merchant_id path parameter", nil)
		return
	}

	var req models.RefundCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "malformed request body", nil)
		return
	}
	if err := h.validator.ValidateWithContext(r.Context(), req); err != nil {
		response.ValidationError(w, h.validator.FormatErrors(err))
		return
	}

	out, err := h.svc.Execute(r.Context(), services.FinalizeRefundInput{
		OrderID:     orderID,
		MerchantID:  uint32(merchantID),
		StaffUserID: staffUserID,
		Lines:       req.Lines,
	})
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, out)
}
