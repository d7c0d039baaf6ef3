package middleware

import (
	"net/http"
	"strings"

	"github.com/Varun5711/bookshelf/internal/auth"
	"github.com/sirupsen/logrus"
)

type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthMiddleware classifies each request as authenticated or anonymous. It never rejects a
// request; guarded resolvers decide what anonymous callers may do.
type AuthMiddleware struct {
	tokens TokenValidator
	log    *logrus.Entry
}

func NewAuthMiddleware(tokens TokenValidator, log *logrus.Entry) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		log:    log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			m.log.WithField("request_id", GetRequestID(r.Context())).Debug("Ignoring invalid token")
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.WithIdentity(r.Context(), claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken accepts "Bearer <token>" with any casing of the scheme, or a bare token.
func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	scheme, rest, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	if strings.EqualFold(header, "Bearer") {
		return ""
	}
	if found {
		return ""
	}
	return header
}

func GetUserID(r *http.Request) string {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return id.ID
	}
	return ""
}
