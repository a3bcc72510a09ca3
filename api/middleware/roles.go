package middleware

import (
	"net/http"

	"github.com/gladosdev/glados-backend/api/responses"
	"github.com/gladosdev/glados-backend/internal/principal"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/logger"
)

// RequireElevated rejects requests whose acting user is not a superuser,
// adminuser or the system user.
func RequireElevated(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !principal.IsElevated(UserFromContext(r.Context())) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "elevated user required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose acting user lacks the admin flag.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !principal.IsAdmin(UserFromContext(r.Context())) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "admin user required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
