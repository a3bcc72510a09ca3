package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/internal/principal"
	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/gladosdev/glados-backend/pkg/db"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/pagination"
)

// Service exposes project lifecycle operations.
type Service interface {
	CreateProject(ctx context.Context, acting *models.User, input CreateProjectInput) (*ProjectDTO, error)
	UpdateProject(ctx context.Context, acting *models.User, projectID int64, input UpdateProjectInput) (*ProjectDTO, error)
	DeleteProject(ctx context.Context, acting *models.User, projectID int64) error
	GetProject(ctx context.Context, id int64) (*ProjectDTO, error)
	GetByNumber(ctx context.Context, number string) (*ProjectDTO, error)
	ListByDesignatedUser(ctx context.Context, userID int64) ([]ProjectDTO, error)
	ListByProductNumber(ctx context.Context, productNumber string) ([]ProjectDTO, error)
	ListProjects(ctx context.Context, input ListProjectsInput) (*pagination.Page[ProjectDTO], error)
}

type userLoader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// itemCascader soft-deletes every live item of a project inside the caller's
// transaction, appending one audit entry per item.
type itemCascader interface {
	CascadeProjectDelete(ctx context.Context, tx *gorm.DB, acting *models.User, projectID int64) error
}

// service implements Service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	userRepo userLoader
	cascader itemCascader
	cfg      config.ProcurementConfig
}

// NewService constructs a project service instance. The cascader is attached
// later to break the construction cycle with the item engine.
func NewService(repo *Repository, dbClient *db.Client, userRepo userLoader, cfg config.ProcurementConfig) (*ServiceImpl, error) {
	if repo == nil {
		return nil, fmt.Errorf("projects repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &ServiceImpl{service{
		repo:     repo,
		dbClient: dbClient,
		userRepo: userRepo,
		cfg:      cfg,
	}}, nil
}

// ServiceImpl is the exported concrete type so the wiring layer can attach
// the item cascader after both services exist.
type ServiceImpl struct {
	service
}

// AttachCascader wires the item engine's cascade delete hook.
func (s *ServiceImpl) AttachCascader(c itemCascader) {
	s.cascader = c
}

// CreateProject persists a new project. Guests may not create; a non-elevated
// creator always becomes the designated user.
func (s *service) CreateProject(ctx context.Context, acting *models.User, input CreateProjectInput) (*ProjectDTO, error) {
	if acting == nil || principal.IsGuest(acting) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "guests cannot create projects")
	}

	input.Number = strings.TrimSpace(input.Number)
	if !s.cfg.ValidProjectNumber(input.Number) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project number does not match the configured pattern")
	}
	if input.ProductNumber != nil && !s.cfg.ValidProductNumber(*input.ProductNumber) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product number does not match the configured pattern")
	}

	taken, err := s.repo.NumberTaken(ctx, input.Number, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check project number")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeProjectAlreadyExists, "project number already exists")
	}

	if !principal.IsElevated(acting) {
		input.DesignatedUserID = acting.ID
	}
	if err := s.ensureUserExists(ctx, input.DesignatedUserID); err != nil {
		return nil, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	project := &models.Project{
		Number:           input.Number,
		ProductNumber:    input.ProductNumber,
		Customer:         strings.TrimSpace(input.Customer),
		Description:      input.Description,
		DesignatedUserID: input.DesignatedUserID,
		IsActive:         active,
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create project")
	}
	return FromModel(created), nil
}

// UpdateProject overwrites the supplied fields. Only elevated users or the
// current designated user may update.
func (s *service) UpdateProject(ctx context.Context, acting *models.User, projectID int64, input UpdateProjectInput) (*ProjectDTO, error) {
	if acting == nil || principal.IsGuest(acting) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "guests cannot update projects")
	}

	current, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !principal.IsElevated(acting) && acting.ID != current.DesignatedUserID {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "only elevated users or the designated user may update a project")
	}

	input.Number = strings.TrimSpace(input.Number)
	if !s.cfg.ValidProjectNumber(input.Number) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project number does not match the configured pattern")
	}
	if input.ProductNumber != nil && !s.cfg.ValidProductNumber(*input.ProductNumber) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product number does not match the configured pattern")
	}

	if input.Number != current.Number {
		taken, err := s.repo.NumberTaken(ctx, input.Number, current.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check project number")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeProjectAlreadyExists, "project number already exists")
		}
	}
	if err := s.ensureUserExists(ctx, input.DesignatedUserID); err != nil {
		return nil, err
	}

	current.Number = input.Number
	current.ProductNumber = input.ProductNumber
	current.Customer = strings.TrimSpace(input.Customer)
	current.Description = input.Description
	current.DesignatedUserID = input.DesignatedUserID
	current.IsActive = input.IsActive
	current.DesignatedUser = nil

	saved, err := s.repo.Save(ctx, current)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update project")
	}
	return FromModel(saved), nil
}

// DeleteProject soft-deletes the project and cascades to its live items in
// one transaction. Elevated users only.
func (s *service) DeleteProject(ctx context.Context, acting *models.User, projectID int64) error {
	if !principal.IsElevated(acting) {
		return pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "only elevated users may delete projects")
	}

	current, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var errs error
		current.Deleted = true
		current.IsActive = false
		current.DesignatedUser = nil
		if _, err := s.repo.WithTx(tx).Save(ctx, current); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete project: %w", err))
		}
		if s.cascader != nil {
			if err := s.cascader.CascadeProjectDelete(ctx, tx, acting, current.ID); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		return errs
	})
}

// GetProject fetches a project by id, deleted rows included.
func (s *service) GetProject(ctx context.Context, id int64) (*ProjectDTO, error) {
	project, err := s.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(project), nil
}

// GetByNumber fetches a project by its unique number, deleted rows included.
func (s *service) GetByNumber(ctx context.Context, number string) (*ProjectDTO, error) {
	project, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProjectNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load project")
	}
	return FromModel(project), nil
}

// ListByDesignatedUser returns the projects owned by a user.
func (s *service) ListByDesignatedUser(ctx context.Context, userID int64) ([]ProjectDTO, error) {
	rows, err := s.repo.ListByDesignatedUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list projects")
	}
	return FromModels(rows), nil
}

// ListByProductNumber returns the projects carrying a product number.
func (s *service) ListByProductNumber(ctx context.Context, productNumber string) ([]ProjectDTO, error) {
	rows, err := s.repo.ListByProductNumber(ctx, productNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list projects")
	}
	return FromModels(rows), nil
}

// ListProjects returns the filtered page.
func (s *service) ListProjects(ctx context.Context, input ListProjectsInput) (*pagination.Page[ProjectDTO], error) {
	page, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list projects")
	}
	return &pagination.Page[ProjectDTO]{Total: page.Total, Items: FromModels(page.Items)}, nil
}

func (s *service) loadProject(ctx context.Context, id int64) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProjectNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load project")
	}
	return project, nil
}

func (s *service) ensureUserExists(ctx context.Context, id int64) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUserDoesNotExist, "designated user does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load designated user")
	}
	return nil
}
