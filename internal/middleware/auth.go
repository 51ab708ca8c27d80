package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/statehub/internal/auth"
)

// publicOperations are routes served without credentials.
var publicOperations = map[string]bool{
	"health":  true,
	"ready":   true,
	"metrics": true,
}

// Auth authenticates every request outside the health routes and checks that
// the subject's access level covers the method: read for GET (including the
// WebSocket subscription), write for anything that mutates a container. CORS
// preflights pass through.
func Auth(authenticator auth.Authenticator, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicOperations[operationOf(r)] {
				next.ServeHTTP(w, r)
				return
			}

			reqInfo := InfoFromContext(r.Context())
			log := logger.With(
				zap.String("operation", operationOf(r)),
				zap.String("request_id", RequestIDFromContext(r.Context())),
			)

			info, err := authenticator.Authenticate(r)
			if err != nil {
				log.Warn("authentication failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
				if challenge := challengeFor(err); challenge != "" {
					w.Header().Set("WWW-Authenticate", challenge)
				}
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			if reqInfo != nil {
				reqInfo.Subject = info.Subject
			}

			if !info.Access.Allows(r.Method) {
				log.Warn("access denied",
					zap.String("subject", info.Subject),
					zap.String("access", string(info.Access)),
					zap.String("method", r.Method),
				)
				writeError(w, http.StatusForbidden, auth.ErrForbidden.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuthInfo(r.Context(), info)))
		})
	}
}

// challengeFor names the schemes a client may retry with.
func challengeFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return `Basic realm="statehub", API-Key`
	case errors.Is(err, auth.ErrInvalidCredentials):
		return `Basic realm="statehub"`
	case errors.Is(err, auth.ErrInvalidAPIKey):
		return "API-Key"
	default:
		return ""
	}
}
