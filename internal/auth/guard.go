package auth

import (
	"context"

	"github.com/Varun5711/bookshelf/internal/apperr"
)

// RequireIdentity is the resolver-level guard for operations that need a logged-in user.
// Callers must scope their work to the returned identity's ID and nothing from input.
func RequireIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, apperr.NotAuthenticated()
	}
	return id, nil
}
