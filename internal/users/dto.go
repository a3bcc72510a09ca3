package users

import (
	"time"

	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credential material.
type UserDTO struct {
	ID           int64          `json:"id"`
	Created      time.Time      `json:"created"`
	Username     string         `json:"username"`
	FullName     string         `json:"full_name"`
	Email        string         `json:"email"`
	Language     enums.Language `json:"language"`
	Theme        enums.Theme    `json:"theme"`
	IsActive     bool           `json:"is_active"`
	IsSuperuser  bool           `json:"is_superuser"`
	IsAdminuser  bool           `json:"is_adminuser"`
	IsGuestuser  bool           `json:"is_guestuser"`
	IsSystemuser bool           `json:"is_systemuser"`
	HasRFID      bool           `json:"has_rfid"`

	WorkHoursPerWeek float64 `json:"work_hours_per_week"`
	AutoLogout       bool    `json:"auto_logout"`
	AutoBreakFrom    *string `json:"auto_break_from,omitempty"`
	AutoBreakTo      *string `json:"auto_break_to,omitempty"`
}

// CreateUserInput holds the validated payload for a new user.
type CreateUserInput struct {
	Username string
	FullName string
	Email    string
	Password string
	RFID     *string
	Language enums.Language
	Theme    enums.Theme
	Active   bool
	Super    bool
	Admin    bool
	Guest    bool
	System   bool
}

// UpdateUserInput carries optional mutation values; nil means keep.
type UpdateUserInput struct {
	Username *string
	FullName *string
	Email    *string
	Password *string
	RFID     *string
	Language *enums.Language
	Theme    *enums.Theme
	Active   *bool
	Super    *bool
	Admin    *bool
	Guest    *bool
	System   *bool

	WorkHoursPerWeek *float64
	AutoLogout       *bool
	AutoBreakFrom    *string
	AutoBreakTo      *string
}

// FromModel maps a user row onto its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:               u.ID,
		Created:          u.Created,
		Username:         u.Username,
		FullName:         u.FullName,
		Email:            u.Email,
		Language:         u.Language,
		Theme:            u.Theme,
		IsActive:         u.IsActive,
		IsSuperuser:      u.IsSuperuser,
		IsAdminuser:      u.IsAdminuser,
		IsGuestuser:      u.IsGuestuser,
		IsSystemuser:     u.IsSystemuser,
		HasRFID:          u.HashedRFID != nil,
		WorkHoursPerWeek: u.WorkHoursPerWeek,
		AutoLogout:       u.AutoLogout,
		AutoBreakFrom:    u.AutoBreakFrom,
		AutoBreakTo:      u.AutoBreakTo,
	}
}

// FromModels maps a slice of rows.
func FromModels(rows []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
