package principal

import (
	"github.com/gladosdev/glados-backend/pkg/db/models"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
)

// Pure capability predicates over a user. Every write rule in the project
// and item services funnels through these.

// IsActive reports whether the user may authenticate at all.
func IsActive(u *models.User) bool {
	return u != nil && u.IsActive
}

// IsSuper reports the superuser flag.
func IsSuper(u *models.User) bool {
	return u != nil && u.IsSuperuser
}

// IsAdmin reports the adminuser flag.
func IsAdmin(u *models.User) bool {
	return u != nil && u.IsAdminuser
}

// IsGuest reports the guestuser flag. Guests never mutate anything.
func IsGuest(u *models.User) bool {
	return u != nil && u.IsGuestuser
}

// IsSystem reports the systemuser flag. Exactly one system user exists.
func IsSystem(u *models.User) bool {
	return u != nil && u.IsSystemuser
}

// IsElevated reports whether the user passes the elevation gate used by
// every privileged write rule.
func IsElevated(u *models.User) bool {
	return IsSuper(u) || IsAdmin(u) || IsSystem(u)
}

// MayManageItem reports whether the user can mutate the given bought item:
// elevated users always, everyone else only on items they created.
func MayManageItem(u *models.User, item *models.BoughtItem) bool {
	if u == nil || item == nil {
		return false
	}
	return IsElevated(u) || item.CreatorID == u.ID
}

// Capabilities is the writable flag set carried by a user create/update.
type Capabilities struct {
	Active bool
	Super  bool
	Admin  bool
	Guest  bool
	System bool
}

// CapabilitiesOf extracts the current flag set from a user row.
func CapabilitiesOf(u *models.User) Capabilities {
	if u == nil {
		return Capabilities{}
	}
	return Capabilities{
		Active: u.IsActive,
		Super:  u.IsSuperuser,
		Admin:  u.IsAdminuser,
		Guest:  u.IsGuestuser,
		System: u.IsSystemuser,
	}
}

// NormalizeOptions describe the write being normalized.
type NormalizeOptions struct {
	// Acting is the principal performing the write; nil means bootstrap.
	Acting *models.User
	// ActingOnSelf marks a self-update, which preserves own super/admin.
	ActingOnSelf bool
	// TargetIsSystem marks writes against the system user, whose flags are
	// force-normalized regardless of the payload.
	TargetIsSystem bool
}

// Normalize applies the capability invariants to a requested flag set before
// it is persisted:
//
//	system => super, admin, active, not guest
//	admin  => super, not guest
//	super  => not guest
//
// On self-update an attempt to clear own super/admin is silently ignored.
// A non-system principal asking for the system flag is rejected.
func Normalize(requested Capabilities, opts NormalizeOptions) (Capabilities, error) {
	caps := requested

	if opts.TargetIsSystem {
		caps.System = true
	}

	if caps.System && !opts.TargetIsSystem && !IsSystem(opts.Acting) {
		return Capabilities{}, pkgerrors.New(pkgerrors.CodeInsufficientPermissions,
			"only the system user can grant the system flag")
	}

	if opts.ActingOnSelf && opts.Acting != nil {
		if opts.Acting.IsSuperuser {
			caps.Super = true
		}
		if opts.Acting.IsAdminuser {
			caps.Admin = true
		}
	}

	if caps.System {
		caps.Super = true
		caps.Admin = true
		caps.Active = true
	}
	if caps.Admin {
		caps.Super = true
	}
	if caps.Super {
		caps.Guest = false
	}

	return caps, nil
}

// Apply writes the normalized flag set onto the user row.
func (c Capabilities) Apply(u *models.User) {
	if u == nil {
		return
	}
	u.IsActive = c.Active
	u.IsSuperuser = c.Super
	u.IsAdminuser = c.Admin
	u.IsGuestuser = c.Guest
	u.IsSystemuser = c.System
}
