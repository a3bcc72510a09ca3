package projects

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/pagination"
)

// Repository exposes project persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a projects repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new project and returns the persisted row.
func (r *Repository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// Save persists all columns of an existing project row.
func (r *Repository) Save(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// FindByID loads a project by primary key, deleted rows included.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Preload("DesignatedUser").
		First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByNumber loads a project by its unique number, deleted rows included.
func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Preload("DesignatedUser").
		Where("number = ?", number).
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByDesignatedUser returns the non-deleted projects owned by the user.
func (r *Repository) ListByDesignatedUser(ctx context.Context, userID int64) ([]models.Project, error) {
	var rows []models.Project
	if err := r.db.WithContext(ctx).
		Where("designated_user_id = ? AND deleted = ?", userID, false).
		Order("number DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByProductNumber returns the non-deleted projects carrying the product number.
func (r *Repository) ListByProductNumber(ctx context.Context, productNumber string) ([]models.Project, error) {
	var rows []models.Project
	if err := r.db.WithContext(ctx).
		Where("product_number = ? AND deleted = ?", productNumber, false).
		Order("number DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// NumberTaken reports whether another project already holds the number.
func (r *Repository) NumberTaken(ctx context.Context, number string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Project{}).Where("number = ?", number)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns a filtered page of non-deleted projects ordered by number
// descending.
func (r *Repository) List(ctx context.Context, input ListProjectsInput) (*pagination.Page[models.Project], error) {
	limit := pagination.NormalizeLimit(input.Limit)
	skip := pagination.NormalizeSkip(input.Skip)

	query := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("deleted = ?", false)
	if input.Number != nil && *input.Number != "" {
		query = query.Where("LOWER(number) LIKE ?", substringPattern(*input.Number))
	}
	if input.Customer != nil && *input.Customer != "" {
		query = query.Where("LOWER(customer) LIKE ?", substringPattern(*input.Customer))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Project
	if err := query.
		Preload("DesignatedUser").
		Order("number DESC").
		Limit(limit).
		Offset(skip).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return &pagination.Page[models.Project]{Total: total, Items: rows}, nil
}

func substringPattern(value string) string {
	return "%" + strings.ToLower(strings.TrimSpace(value)) + "%"
}
