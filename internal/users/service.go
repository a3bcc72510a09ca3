package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/internal/principal"
	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/pagination"
	"github.com/gladosdev/glados-backend/pkg/security"
)

// Service exposes user management and credential verification.
type Service interface {
	CreateUser(ctx context.Context, acting *models.User, input CreateUserInput) (*UserDTO, error)
	UpdateUser(ctx context.Context, acting *models.User, targetID int64, input UpdateUserInput) (*UserDTO, error)
	GetUser(ctx context.Context, id int64) (*UserDTO, error)
	GetByUsername(ctx context.Context, username string) (*UserDTO, error)
	ListUsers(ctx context.Context, params pagination.Params) (*pagination.Page[UserDTO], error)
	MintPersonalAccessToken(ctx context.Context, acting *models.User, targetID int64) (string, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	AuthenticateRFID(ctx context.Context, tag string) (*models.User, error)
	EnsureSystemUser(ctx context.Context, password string) (*models.User, error)
}

// service implements Service on top of the users repository.
type service struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
}

// NewService constructs a users service instance.
func NewService(repo *Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

// CreateUser persists a new user. Only admin users may create accounts.
func (s *service) CreateUser(ctx context.Context, acting *models.User, input CreateUserInput) (*UserDTO, error) {
	if !principal.IsAdmin(acting) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "user management requires admin")
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Email == "" || strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username, email, and full_name are required")
	}

	if err := security.ValidateNewPassword(input.Password, s.passwordCfg); err != nil {
		return nil, err
	}

	if err := s.ensureUniqueness(ctx, input.Username, input.Email, input.RFID, 0); err != nil {
		return nil, err
	}

	caps, err := principal.Normalize(principal.Capabilities{
		Active: input.Active,
		Super:  input.Super,
		Admin:  input.Admin,
		Guest:  input.Guest,
		System: input.System,
	}, principal.NormalizeOptions{Acting: acting})
	if err != nil {
		return nil, err
	}

	hashed, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Username:       input.Username,
		FullName:       strings.TrimSpace(input.FullName),
		Email:          input.Email,
		HashedPassword: hashed,
		Language:       input.Language,
		Theme:          input.Theme,
	}
	if user.Language == "" {
		user.Language = enums.DefaultLanguage
	}
	if user.Theme == "" {
		user.Theme = enums.DefaultTheme
	}
	if input.RFID != nil && strings.TrimSpace(*input.RFID) != "" {
		hash := security.HashRFID(*input.RFID)
		user.HashedRFID = &hash
	}
	caps.Apply(user)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return FromModel(created), nil
}

// UpdateUser mutates an existing account. Admins may edit anyone except the
// system user; every user may edit themselves.
func (s *service) UpdateUser(ctx context.Context, acting *models.User, targetID int64, input UpdateUserInput) (*UserDTO, error) {
	if acting == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	target, err := s.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	actingOnSelf := acting.ID == target.ID
	if target.IsSystemuser && !actingOnSelf {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "the system user can only edit itself")
	}
	if !actingOnSelf && !principal.IsAdmin(acting) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "user management requires admin")
	}

	if input.Username != nil {
		target.Username = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		target.Email = strings.TrimSpace(*input.Email)
	}
	if target.Username == "" || target.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and email cannot be empty")
	}

	var rfidHash *string
	if input.RFID != nil && strings.TrimSpace(*input.RFID) != "" {
		hash := security.HashRFID(*input.RFID)
		rfidHash = &hash
	}
	if err := s.ensureUniquenessHashed(ctx, target.Username, target.Email, rfidHash, target.ID); err != nil {
		return nil, err
	}

	if input.FullName != nil {
		target.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Password != nil {
		if err := security.ValidateNewPassword(*input.Password, s.passwordCfg); err != nil {
			return nil, err
		}
		hashed, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		target.HashedPassword = hashed
	}
	if rfidHash != nil {
		target.HashedRFID = rfidHash
	} else if input.RFID != nil {
		// Explicit empty tag clears the binding.
		target.HashedRFID = nil
	}
	if input.Language != nil {
		target.Language = *input.Language
	}
	if input.Theme != nil {
		target.Theme = *input.Theme
	}

	requested := principal.CapabilitiesOf(target)
	if input.Active != nil {
		requested.Active = *input.Active
	}
	if input.Super != nil {
		requested.Super = *input.Super
	}
	if input.Admin != nil {
		requested.Admin = *input.Admin
	}
	if input.Guest != nil {
		requested.Guest = *input.Guest
	}
	if input.System != nil {
		requested.System = *input.System
	}
	caps, err := principal.Normalize(requested, principal.NormalizeOptions{
		Acting:         acting,
		ActingOnSelf:   actingOnSelf,
		TargetIsSystem: target.IsSystemuser,
	})
	if err != nil {
		return nil, err
	}
	caps.Apply(target)

	if input.WorkHoursPerWeek != nil {
		target.WorkHoursPerWeek = *input.WorkHoursPerWeek
	}
	if input.AutoLogout != nil {
		target.AutoLogout = *input.AutoLogout
	}
	if input.AutoBreakFrom != nil {
		target.AutoBreakFrom = input.AutoBreakFrom
	}
	if input.AutoBreakTo != nil {
		target.AutoBreakTo = input.AutoBreakTo
	}

	saved, err := s.repo.Save(ctx, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return FromModel(saved), nil
}

// GetUser fetches a user by id.
func (s *service) GetUser(ctx context.Context, id int64) (*UserDTO, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// GetByUsername fetches a user by username.
func (s *service) GetByUsername(ctx context.Context, username string) (*UserDTO, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUserDoesNotExist, "user does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

// ListUsers returns a page of users.
func (s *service) ListUsers(ctx context.Context, params pagination.Params) (*pagination.Page[UserDTO], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return &pagination.Page[UserDTO]{Total: page.Total, Items: FromModels(page.Items)}, nil
}

// MintPersonalAccessToken replaces the target's long-lived token and returns
// the new value. The raw token is shown exactly once.
func (s *service) MintPersonalAccessToken(ctx context.Context, acting *models.User, targetID int64) (string, error) {
	if acting == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if acting.ID != targetID && !principal.IsAdmin(acting) {
		return "", pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "user management requires admin")
	}

	target, err := s.loadUser(ctx, targetID)
	if err != nil {
		return "", err
	}

	token, err := security.GeneratePersonalAccessToken()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	target.PersonalAccessToken = &token
	if _, err := s.repo.Save(ctx, target); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store token")
	}
	return token, nil
}

// Authenticate verifies a username/password pair and returns the active user.
func (s *service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	ok, err := security.VerifyPassword(password, user.HashedPassword)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is deactivated")
	}
	return user, nil
}

// AuthenticateRFID resolves an active user from a raw RFID tag.
func (s *service) AuthenticateRFID(ctx context.Context, tag string) (*models.User, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	user, err := s.repo.FindByRFIDHash(ctx, security.HashRFID(tag))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is deactivated")
	}
	return user, nil
}

// EnsureSystemUser bootstraps the singleton system user on first start.
func (s *service) EnsureSystemUser(ctx context.Context, password string) (*models.User, error) {
	existing, err := s.repo.FindSystemUser(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load system user")
	}

	hashed, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Username:       "system",
		FullName:       "System",
		Email:          "system@localhost",
		HashedPassword: hashed,
		Language:       enums.DefaultLanguage,
		Theme:          enums.DefaultTheme,
	}
	caps, err := principal.Normalize(principal.Capabilities{System: true},
		principal.NormalizeOptions{TargetIsSystem: true})
	if err != nil {
		return nil, err
	}
	caps.Apply(user)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create system user")
	}
	return created, nil
}

func (s *service) loadUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUserDoesNotExist, "user does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) ensureUniqueness(ctx context.Context, username, email string, rfid *string, excludeID int64) error {
	var rfidHash *string
	if rfid != nil && strings.TrimSpace(*rfid) != "" {
		hash := security.HashRFID(*rfid)
		rfidHash = &hash
	}
	return s.ensureUniquenessHashed(ctx, username, email, rfidHash, excludeID)
}

func (s *service) ensureUniquenessHashed(ctx context.Context, username, email string, rfidHash *string, excludeID int64) error {
	taken, err := s.repo.UsernameTaken(ctx, username, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeUsernameAlreadyExists, "username already exists")
	}

	taken, err = s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeEmailAlreadyExists, "email already exists")
	}

	if rfidHash != nil {
		taken, err = s.repo.RFIDTaken(ctx, *rfidHash, excludeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check rfid")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeRfidAlreadyExists, "rfid tag already exists")
		}
	}
	return nil
}
