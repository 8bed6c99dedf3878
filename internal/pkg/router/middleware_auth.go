package router

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
)

// Authenticator turns a bearer credential into an authenticated context.
// It returns a goerror business error when the credential is rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (context.Context, error)
}

var errMissingBearer = goerror.NewBusiness("Authentication required.", goerror.CodeUnauthorized)

// Bearer requires a valid bearer token on the route it is attached to.
func Bearer(authn Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := (&Request{Request: r}).BearerToken()
			if token == "" {
				writeError(r.Context(), w, errMissingBearer)
				return
			}

			ctx, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeError(r.Context(), w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
