package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gladosdev/glados-backend/api/middleware"
	"github.com/gladosdev/glados-backend/api/responses"
	"github.com/gladosdev/glados-backend/api/validators"
	"github.com/gladosdev/glados-backend/internal/users"
	"github.com/gladosdev/glados-backend/pkg/enums"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/logger"
	"github.com/gladosdev/glados-backend/pkg/pagination"
)

type createUserRequest struct {
	Username string  `json:"username" validate:"required,min=1"`
	FullName string  `json:"full_name" validate:"required,min=1"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	RFID     *string `json:"rfid,omitempty"`
	Language string  `json:"language,omitempty"`
	Theme    string  `json:"theme,omitempty"`
	Active   bool    `json:"active"`
	Super    bool    `json:"super"`
	Admin    bool    `json:"admin"`
	Guest    bool    `json:"guest"`
}

type updateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=1"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty"`
	RFID     *string `json:"rfid,omitempty"`
	Language *string `json:"language,omitempty"`
	Theme    *string `json:"theme,omitempty"`
	Active   *bool   `json:"active,omitempty"`
	Super    *bool   `json:"super,omitempty"`
	Admin    *bool   `json:"admin,omitempty"`
	Guest    *bool   `json:"guest,omitempty"`

	WorkHoursPerWeek *float64 `json:"work_hours_per_week,omitempty"`
	AutoLogout       *bool    `json:"auto_logout,omitempty"`
	AutoBreakFrom    *string  `json:"auto_break_from,omitempty"`
	AutoBreakTo      *string  `json:"auto_break_to,omitempty"`
}

// UserCreate provisions a new account. Admin users only; the capability gate
// lives in the service.
func UserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := users.CreateUserInput{
			Username: req.Username,
			FullName: req.FullName,
			Email:    req.Email,
			Password: req.Password,
			RFID:     req.RFID,
			Language: enums.DefaultLanguage,
			Theme:    enums.DefaultTheme,
			Active:   req.Active,
			Super:    req.Super,
			Admin:    req.Admin,
			Guest:    req.Guest,
		}
		if req.Language != "" {
			lang, err := enums.ParseLanguage(req.Language)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid language"))
				return
			}
			input.Language = lang
		}
		if req.Theme != "" {
			theme, err := enums.ParseTheme(req.Theme)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid theme"))
				return
			}
			input.Theme = theme
		}

		created, err := svc.CreateUser(r.Context(), middleware.UserFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UserUpdate mutates the supplied fields of the target account.
func UserUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := pathID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := users.UpdateUserInput{
			Username:         req.Username,
			FullName:         req.FullName,
			Email:            req.Email,
			Password:         req.Password,
			RFID:             req.RFID,
			Active:           req.Active,
			Super:            req.Super,
			Admin:            req.Admin,
			Guest:            req.Guest,
			WorkHoursPerWeek: req.WorkHoursPerWeek,
			AutoLogout:       req.AutoLogout,
			AutoBreakFrom:    req.AutoBreakFrom,
			AutoBreakTo:      req.AutoBreakTo,
		}
		if req.Language != nil {
			lang, err := enums.ParseLanguage(*req.Language)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid language"))
				return
			}
			input.Language = &lang
		}
		if req.Theme != nil {
			theme, err := enums.ParseTheme(*req.Theme)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid theme"))
				return
			}
			input.Theme = &theme
		}

		updated, err := svc.UpdateUser(r.Context(), middleware.UserFromContext(r.Context()), targetID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// UserGet fetches one account by id.
func UserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := pathID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetUser(r.Context(), targetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UserMe returns the acting user's own profile.
func UserMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acting := middleware.UserFromContext(r.Context())
		if acting == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(acting))
	}
}

// UserList returns a page of accounts ordered by username.
func UserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListUsers(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// UserMintToken issues a fresh personal access token for the target account.
func UserMintToken(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := pathID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := svc.MintPersonalAccessToken(r.Context(), middleware.UserFromContext(r.Context()), targetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"personal_access_token": token})
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	skip, err := validators.ParseQueryInt(r, "skip", 0, 0, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Skip: skip}, nil
}
