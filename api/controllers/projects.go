package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gladosdev/glados-backend/api/middleware"
	"github.com/gladosdev/glados-backend/api/responses"
	"github.com/gladosdev/glados-backend/api/validators"
	"github.com/gladosdev/glados-backend/internal/projects"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/logger"
)

type createProjectRequest struct {
	Number           string  `json:"number" validate:"required"`
	ProductNumber    *string `json:"product_number,omitempty"`
	Customer         string  `json:"customer" validate:"required"`
	Description      string  `json:"description,omitempty"`
	DesignatedUserID int64   `json:"designated_user_id" validate:"required,gt=0"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

type updateProjectRequest struct {
	Number           string  `json:"number" validate:"required"`
	ProductNumber    *string `json:"product_number,omitempty"`
	Customer         string  `json:"customer" validate:"required"`
	Description      string  `json:"description,omitempty"`
	DesignatedUserID int64   `json:"designated_user_id" validate:"required,gt=0"`
	IsActive         bool    `json:"is_active"`
}

// ProjectCreate persists a new project.
func ProjectCreate(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProjectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateProject(r.Context(), middleware.UserFromContext(r.Context()), projects.CreateProjectInput{
			Number:           req.Number,
			ProductNumber:    req.ProductNumber,
			Customer:         req.Customer,
			Description:      req.Description,
			DesignatedUserID: req.DesignatedUserID,
			IsActive:         req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ProjectUpdate overwrites the supplied project fields.
func ProjectUpdate(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := pathID(r, "projectID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProjectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProject(r.Context(), middleware.UserFromContext(r.Context()), projectID, projects.UpdateProjectInput{
			Number:           req.Number,
			ProductNumber:    req.ProductNumber,
			Customer:         req.Customer,
			Description:      req.Description,
			DesignatedUserID: req.DesignatedUserID,
			IsActive:         req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ProjectDelete soft-deletes the project and cascades to its live items.
func ProjectDelete(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := pathID(r, "projectID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProject(r.Context(), middleware.UserFromContext(r.Context()), projectID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// ProjectGet fetches one project by id, deleted rows included.
func ProjectGet(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := pathID(r, "projectID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.GetProject(r.Context(), projectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

// ProjectGetByNumber fetches one project by its unique number.
func ProjectGetByNumber(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "number")
		if number == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "project number is required"))
			return
		}

		project, err := svc.GetByNumber(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

// ProjectList returns a filtered page of live projects.
func ProjectList(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := projects.ListProjectsInput{Limit: params.Limit, Skip: params.Skip}
		if number := r.URL.Query().Get("number"); number != "" {
			input.Number = &number
		}
		if customer := r.URL.Query().Get("customer"); customer != "" {
			input.Customer = &customer
		}

		page, err := svc.ListProjects(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ProjectListMine returns the projects designated to the acting user.
func ProjectListMine(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acting := middleware.UserFromContext(r.Context())
		if acting == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		rows, err := svc.ListByDesignatedUser(r.Context(), acting.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
