package auth

import "context"

// Identity is the authenticated caller carried through a request.
type Identity struct {
	ID       string
	Username string
	Email    string
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by the authentication gate. ok is false
// for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}
