package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/halvorsen/ecom-order-core/pkg/response"
)

type contextKey string

// StaffUserIDKey is the context key StaffAuthMiddleware stores the
// authenticated staff user id under; handlers read it with StaffUserID.
const StaffUserIDKey contextKey = "staffUserID"

// StaffUserID reads the staff user id StaffAuthMiddleware attached to ctx.
func StaffUserID(ctx context.Context) (uint32, bool) {
	v, ok := ctx.Value(StaffUserIDKey).(uint32)
	return v, ok
}

// StaffAuthMiddleware resolves the acting staff user from the
// X-Staff-User-Id header. Authorization against a specific merchant
// (staff_user_id ∈ profile.valid_staff) is the core's job, not this
// middleware's — it only establishes who is making the call (§4.6 step 1).
func StaffAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Staff-User-Id")
		if raw == "" {
			response.Unauthorized(w, "missing X-Staff-User-Id header")
			return
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.Unauthorized(w, "invalid X-Staff-User-Id header")
			return
		}

		ctx := context.WithValue(r.Context(), StaffUserIDKey, uint32(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
