package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/internal/services"
	"github.com/halvorsen/ecom-order-core/internal/validators"
	"github.com/halvorsen/ecom-order-core/pkg/response"
)

// OrderHandler exposes the create-order use case over HTTP (§4.4).
type OrderHandler struct {
	svc       *services.CreateOrderService
	catalog   interfaces.CatalogRepository
	validator *validators.Validator
}

func NewOrderHandler(svc *services.CreateOrderService, catalog interfaces.CatalogRepository, validator *validators.Validator) *OrderHandler {
	return &OrderHandler{svc: svc, catalog: catalog, validator: validator}
}

// CreateOrder handles POST /api/v1/orders.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "malformed request body", nil)
		return
	}
	if err := h.validator.ValidateWithContext(r.Context(), req); err != nil {
		response.ValidationError(w, h.validator.FormatErrors(err))
		return
	}

	billing, err := billingFromRequest(req.Billing)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}
	shipping, err := shippingFromRequest(req.Shipping)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	policies, err := h.catalog.FetchPolicies(r.Context())
	if err != nil {
		response.AppError(w, err)
		return
	}

	sellerIDs := uniqueSellerIDs(req.Lines)
	prices, err := h.catalog.FetchPrices(r.Context(), sellerIDs)
	if err != nil {
		response.AppError(w, err)
		return
	}

	out, err := h.svc.Execute(r.Context(), services.CreateOrderInput{
		Lines:    req.Lines,
		Policies: policies,
		Prices:   prices,
		Billing:  billing,
		Shipping: shipping,
	})
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, out)
}

func uniqueSellerIDs(lines []models.CreateOrderLineRequest) []uint32 {
	seen := make(map[uint32]struct{}, len(lines))
	ids := make([]uint32, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.SellerID]; ok {
			continue
		}
		seen[l.SellerID] = struct{}{}
		ids = append(ids, l.SellerID)
	}
	return ids
}

func billingFromRequest(req models.BillingRequest) (models.BillingModel, error) {
	model := models.BillingModel{
		Contact: contactFromRequest(req.Contact),
		Address: addressFromRequest(req.Address),
	}
	return model, nil
}

func shippingFromRequest(req models.ShippingRequest) (models.ShippingModel, error) {
	options := make([]models.ShippingOption, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, models.ShippingOption{SellerID: o.SellerID, Method: o.Method})
	}
	model := models.ShippingModel{
		Contact: contactFromRequest(req.Contact),
		Address: addressFromRequest(req.Address),
		Options: options,
	}
	if err := model.Validate(); err != nil {
		return models.ShippingModel{}, err
	}
	return model, nil
}

func contactFromRequest(req models.ContactRequest) models.ContactInfo {
	phones := make([]models.PhoneNumber, 0, len(req.Phones))
	for _, p := range req.Phones {
		phones = append(phones, models.PhoneNumber{NationCode: p.NationCode, Number: p.Number})
	}
	return models.ContactInfo{Name: req.Name, Emails: req.Emails, Phones: phones}
}

func addressFromRequest(req *models.AddressRequest) *models.Address {
	if req == nil {
		return nil
	}
	return &models.Address{Country: req.Country, City: req.City, Street: req.Street, Detail: req.Detail}
}
