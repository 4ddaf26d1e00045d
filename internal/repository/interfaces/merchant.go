package interfaces

import (
	"context"

	"github.com/halvorsen/ecom-order-core/internal/models"
)

// MerchantRepository is the persistence contract for merchant profiles and
// their encrypted processor secrets (§4.8).
type MerchantRepository interface {
	Create(ctx context.Context, profile models.MerchantProfile) error
	Fetch(ctx context.Context, merchantID uint32) (models.MerchantProfile, error)
	Update(ctx context.Context, profile models.MerchantProfile) error

	// FetchSecret returns the merchant's decrypted payment-processor API
	// secret, used to authenticate outbound processor calls.
	FetchSecret(ctx context.Context, merchantID uint32) (string, error)
}
