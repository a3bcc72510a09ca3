package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/pagination"
)

// Repository exposes user persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted row.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Save persists all columns of an existing user row.
func (r *Repository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves the user holding the unique username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByRFIDHash retrieves the user holding the hashed RFID tag.
func (r *Repository) FindByRFIDHash(ctx context.Context, hash string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("hashed_rfid = ?", hash).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByPersonalAccessToken retrieves the user owning the token.
func (r *Repository) FindByPersonalAccessToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("personal_access_token = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindSystemUser retrieves the singleton system user, if bootstrapped.
func (r *Repository) FindSystemUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("is_systemuser = ?", true).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns a page of users ordered by username.
func (r *Repository) List(ctx context.Context, params pagination.Params) (*pagination.Page[models.User], error) {
	params = params.Normalize()

	var total int64
	query := r.db.WithContext(ctx).Model(&models.User{})
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.User
	if err := query.
		Order("username ASC").
		Limit(params.Limit).
		Offset(params.Skip).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return &pagination.Page[models.User]{Total: total, Items: rows}, nil
}

// UsernameTaken reports whether another user already holds the username.
func (r *Repository) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.taken(ctx, "username = ?", username, excludeID)
}

// EmailTaken reports whether another user already holds the email.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.taken(ctx, "email = ?", email, excludeID)
}

// RFIDTaken reports whether another user already holds the hashed RFID tag.
func (r *Repository) RFIDTaken(ctx context.Context, hash string, excludeID int64) (bool, error) {
	return r.taken(ctx, "hashed_rfid = ?", hash, excludeID)
}

func (r *Repository) taken(ctx context.Context, cond, value string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.User{}).Where(cond, value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
