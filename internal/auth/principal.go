package auth

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated identity the rest of the service consumes.
// Credential handling lives in an external collaborator; by the time a
// request reaches a handler only this remains of it.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

type principalKey struct{}

// IntoContext attaches the principal to a request context.
func IntoContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext extracts the principal, if the request was authenticated.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
