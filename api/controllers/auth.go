package controllers

import (
	"net/http"
	"time"

	"github.com/gladosdev/glados-backend/api/responses"
	"github.com/gladosdev/glados-backend/api/validators"
	"github.com/gladosdev/glados-backend/internal/users"
	pkgAuth "github.com/gladosdev/glados-backend/pkg/auth"
	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/logger"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type rfidLoginRequest struct {
	RFID string `json:"rfid" validate:"required"`
}

type loginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        *users.UserDTO `json:"user"`
}

// AuthLogin exchanges username and password for a signed access token.
func AuthLogin(svc users.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeToken(w, r, jwtCfg, logg, user)
	}
}

// AuthLoginRFID exchanges a physical tag for a signed access token.
func AuthLoginRFID(svc users.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rfidLoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.AuthenticateRFID(r.Context(), req.RFID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeToken(w, r, jwtCfg, logg, user)
	}
}

func writeToken(w http.ResponseWriter, r *http.Request, jwtCfg config.JWTConfig, logg *logger.Logger, user *models.User) {
	token, err := pkgAuth.MintAccessToken(jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
		return
	}

	responses.WriteSuccess(w, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        users.FromModel(user),
	})
}
