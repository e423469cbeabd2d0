package middleware

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/gin-gonic/gin"
)

const identityCtxKey = contextKey("identity")

// WithIdentity returns a copy of ctx carrying the caller's identity.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromCtx returns the identity resolved for this request, or nil for
// anonymous callers.
func IdentityFromCtx(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityCtxKey).(*domain.Identity)
	return identity
}

// GetUserIDFromContext retrieves the authenticated user ID from the request.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	identity := IdentityFromCtx(c.Request.Context())
	if identity == nil || identity.UserID == "" {
		return "", false
	}
	return identity.UserID, true
}
