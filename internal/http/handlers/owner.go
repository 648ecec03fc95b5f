package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/internal/platform/auth"
	"github.com/staysuite/guestgate/internal/http/response"
)

type ctxKey string

const ctxOwner ctxKey = "owner"

// RequireOwner admits only requests carrying a valid owner session, minted
// by the dashboard's auth service. The parsed identity lands in the request
// context for tenant checks downstream.
func RequireOwner(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := ""
			if c, err := r.Cookie("owner_session"); err == nil {
				tok = c.Value
			}
			if tok == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
					tok = strings.TrimPrefix(authz, "Bearer ")
				}
			}
			if tok == "" {
				response.Unauthorized(w, "Owner session required")
				return
			}

			claims, err := auth.Parse(tok, jwtSecret)
			if err != nil || claims.Role != "owner" {
				response.Unauthorized(w, "Invalid owner session")
				return
			}
			ownerID, err := uuid.Parse(claims.OwnerID)
			if err != nil {
				response.Unauthorized(w, "Invalid owner session")
				return
			}
			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				response.Unauthorized(w, "Invalid owner session")
				return
			}

			owner := &domain.Owner{ID: ownerID, TenantID: tenantID, Email: claims.Email}
			ctx := context.WithValue(r.Context(), ctxOwner, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func OwnerFrom(r *http.Request) *domain.Owner {
	if v := r.Context().Value(ctxOwner); v != nil {
		if o, ok := v.(*domain.Owner); ok {
			return o
		}
	}
	return nil
}
