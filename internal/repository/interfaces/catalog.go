package interfaces

import (
	"context"

	"github.com/halvorsen/ecom-order-core/internal/models"
)

// CatalogRepository is read-only access into the staff portal's
// product-policy/price catalog. Its CRUD lives entirely in the staff
// portal (§3: "deliberately OUT of scope... the staff portal's
// product-policy CRUD") — this is only the read path create-order needs to
// assemble the ProductPolicyModelSet/ProductPriceModelSet inputs §4.4 takes
// as given.
type CatalogRepository interface {
	FetchPolicies(ctx context.Context) (models.ProductPolicyModelSet, error)
	FetchPrices(ctx context.Context, sellerIDs []uint32) (models.ProductPriceModelSet, error)
}
