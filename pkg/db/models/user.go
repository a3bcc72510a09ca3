package models

import (
	"time"

	"github.com/gladosdev/glados-backend/pkg/enums"
)

// User is the canonical identity entity. Users are deactivated, never
// deleted, so every foreign key pointing here stays resolvable.
type User struct {
	ID                  int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Created             time.Time      `gorm:"column:created;autoCreateTime"`
	Username            string         `gorm:"column:username;not null;uniqueIndex"`
	FullName            string         `gorm:"column:full_name;not null"`
	Email               string         `gorm:"column:email;not null;uniqueIndex"`
	HashedPassword      string         `gorm:"column:hashed_password;not null"`
	HashedRFID          *string        `gorm:"column:hashed_rfid;uniqueIndex"`
	Language            enums.Language `gorm:"column:language;not null;default:enGB"`
	Theme               enums.Theme    `gorm:"column:theme;not null;default:dark"`
	IsActive            bool           `gorm:"column:is_active;not null;default:true"`
	IsSuperuser         bool           `gorm:"column:is_superuser;not null;default:false"`
	IsAdminuser         bool           `gorm:"column:is_adminuser;not null;default:false"`
	IsGuestuser         bool           `gorm:"column:is_guestuser;not null;default:false"`
	IsSystemuser        bool           `gorm:"column:is_systemuser;not null;default:false"`
	PersonalAccessToken *string        `gorm:"column:personal_access_token"`

	// Work-time bookkeeping, consumed by the time logging surface.
	WorkHoursPerWeek float64 `gorm:"column:work_hours_per_week;not null;default:40"`
	AutoLogout       bool    `gorm:"column:auto_logout;not null;default:false"`
	AutoBreakFrom    *string `gorm:"column:auto_break_from"`
	AutoBreakTo      *string `gorm:"column:auto_break_to"`
	AutoBreakMon     bool    `gorm:"column:auto_break_mon;not null;default:false"`
	AutoBreakTue     bool    `gorm:"column:auto_break_tue;not null;default:false"`
	AutoBreakWed     bool    `gorm:"column:auto_break_wed;not null;default:false"`
	AutoBreakThu     bool    `gorm:"column:auto_break_thu;not null;default:false"`
	AutoBreakFri     bool    `gorm:"column:auto_break_fri;not null;default:false"`
	AutoBreakSat     bool    `gorm:"column:auto_break_sat;not null;default:false"`
	AutoBreakSun     bool    `gorm:"column:auto_break_sun;not null;default:false"`
}

// TableName implements gorm's Tabler.
func (User) TableName() string {
	return "user_table"
}
