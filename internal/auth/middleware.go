package auth

import (
	"errors"
	"net/http"
	"strings"

	"video-quiz-service/internal/domain"

	"video-quiz-service/internal/logger"
)

// Middleware resolves the request credential and stores the caller on the request context.
// Requests without a valid credential pass through anonymously; the service layer rejects
// them with ErrUnauthenticated so every error is rendered in one place. Any other
// authenticator failure is handed to onError, which defaults to a bare 500.
func Middleware(a Authenticator, log *logger.Logger, onError func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	if onError == nil {
		onError = func(w http.ResponseWriter, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := a.Authenticate(r.Context(), token)
			if err != nil && !errors.Is(err, domain.ErrUnauthenticated) {
				log.Error("authenticate", "path", r.URL.Path, "error", err)
				onError(w, err)
				return
			}
			if err != nil {
				log.Debug("credential rejected", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), userID)))
		})
	}
}

// TokenFromRequest reads "Authorization: Bearer <token>", falling back to the token query
// parameter that browser WebSocket clients use.
func TokenFromRequest(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}
