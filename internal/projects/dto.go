package projects

import (
	"time"

	"github.com/gladosdev/glados-backend/pkg/db/models"
)

// ProjectDTO is the transport shape of a project.
type ProjectDTO struct {
	ID               int64     `json:"id"`
	Created          time.Time `json:"created"`
	Number           string    `json:"number"`
	ProductNumber    *string   `json:"product_number,omitempty"`
	Customer         string    `json:"customer"`
	Description      string    `json:"description"`
	DesignatedUserID int64     `json:"designated_user_id"`
	DesignatedUser   string    `json:"designated_user,omitempty"`
	IsActive         bool      `json:"is_active"`
	Deleted          bool      `json:"deleted"`
}

// CreateProjectInput holds the validated payload for a new project.
type CreateProjectInput struct {
	Number           string
	ProductNumber    *string
	Customer         string
	Description      string
	DesignatedUserID int64
	IsActive         *bool
}

// UpdateProjectInput overwrites the supplied project fields.
type UpdateProjectInput struct {
	Number           string
	ProductNumber    *string
	Customer         string
	Description      string
	DesignatedUserID int64
	IsActive         bool
}

// ListProjectsInput carries the filtered list parameters.
type ListProjectsInput struct {
	Number   *string
	Customer *string
	Limit    int
	Skip     int
}

// FromModel maps a project row onto its transport shape.
func FromModel(p *models.Project) *ProjectDTO {
	if p == nil {
		return nil
	}
	dto := &ProjectDTO{
		ID:               p.ID,
		Created:          p.Created,
		Number:           p.Number,
		ProductNumber:    p.ProductNumber,
		Customer:         p.Customer,
		Description:      p.Description,
		DesignatedUserID: p.DesignatedUserID,
		IsActive:         p.IsActive,
		Deleted:          p.Deleted,
	}
	if p.DesignatedUser != nil {
		dto.DesignatedUser = p.DesignatedUser.FullName
	}
	return dto
}

// FromModels maps a slice of rows.
func FromModels(rows []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
