package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/api/responses"
	pkgAuth "github.com/gladosdev/glados-backend/pkg/auth"
	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/logger"
)

// UserSource resolves the acting user row behind a credential.
type UserSource interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByPersonalAccessToken(ctx context.Context, token string) (*models.User, error)
}

// Auth validates the bearer credential and seeds the request context with the
// acting user. A JWT access token is tried first; anything that does not parse
// as a JWT is treated as a personal access token.
func Auth(cfg config.JWTConfig, source UserSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
				raw = strings.TrimSpace(raw[7:])
			}
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			user, err := resolveUser(r.Context(), cfg, source, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !user.IsActive {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user is deactivated"))
				return
			}

			ctx := WithUser(r.Context(), user)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":  strconv.FormatInt(user.ID, 10),
					"username": user.Username,
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveUser(ctx context.Context, cfg config.JWTConfig, source UserSource, credential string) (*models.User, error) {
	if claims, err := pkgAuth.ParseAccessToken(cfg, credential); err == nil {
		user, err := source.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		return user, nil
	}

	user, err := source.FindByPersonalAccessToken(ctx, credential)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
