package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	apperrors "github.com/nathidaum/spots-backend/pkg/errors"
	httputil "github.com/nathidaum/spots-backend/pkg/http"
	"github.com/nathidaum/spots-backend/pkg/logger"
	"github.com/nathidaum/spots-backend/pkg/token"
)

const identityKey contextKey = "identity"

// Identity is the caller resolved from the bearer credential.
type Identity struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// RequireAuth wraps a route with bearer token verification. A missing header
// or a bad/expired token is 401; a header that is present but not in
// "Bearer <token>" form is 400.
func RequireAuth(tokens *token.Manager, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, log, r, apperrors.Unauthorized("Authorization header is missing"))
				return
			}

			scheme, credential, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(credential) == "" {
				writeAuthError(w, log, r, apperrors.InvalidInput("Authorization header must be 'Bearer <token>'"))
				return
			}

			claims, err := tokens.Verify(strings.TrimSpace(credential))
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					writeAuthError(w, log, r, apperrors.Unauthorized("Token has expired"))
					return
				}
				writeAuthError(w, log, r, apperrors.Unauthorized("Invalid token"))
				return
			}

			identity := Identity{
				ID:        claims.ID,
				Email:     claims.Email,
				FirstName: claims.FirstName,
				LastName:  claims.LastName,
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next(w, r.WithContext(ctx), ps)
		}
	}
}

func writeAuthError(w http.ResponseWriter, log *logger.Logger, r *http.Request, err error) {
	log.Warn("Request rejected by auth middleware",
		"request_id", requestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write auth error response", "error", writeErr)
	}
}
