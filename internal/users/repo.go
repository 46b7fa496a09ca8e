package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the gorm-backed store for accounts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) users(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{})
}

func (r *Repository) one(ctx context.Context, query string, arg any) (*models.User, error) {
	user := new(models.User)
	if err := r.db.WithContext(ctx).Where(query, arg).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Create persists the account described by dto.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail matches on the normalized (trimmed, lowercased) address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.one(ctx, "email = ?", NormalizeEmail(email))
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.one(ctx, "id = ?", id)
}

// EmailTaken and UsernameTaken ignore the account exceptID so a profile edit
// can resubmit its own values.
func (r *Repository) EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error) {
	return r.taken(ctx, "email", NormalizeEmail(email), exceptID)
}

func (r *Repository) UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error) {
	return r.taken(ctx, "username", strings.TrimSpace(username), exceptID)
}

func (r *Repository) taken(ctx context.Context, column, value string, exceptID uuid.UUID) (bool, error) {
	q := r.users(ctx).Where(column+" = ?", value)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	err := q.Limit(1).Count(&n).Error
	return n > 0, err
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.users(ctx).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// UpdatePassword swaps the stored hash. Outstanding reset tokens are bound
// to the old hash and stop verifying.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": hash})
}

// ApplyPatch writes only the fields set on patch.
func (r *Repository) ApplyPatch(ctx context.Context, id uuid.UUID, patch ProfilePatch) error {
	cols := patch.columns()
	if len(cols) == 0 {
		return nil
	}
	return r.update(ctx, id, cols)
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	return r.users(ctx).Where("id = ?", id).Updates(cols).Error
}

// Delete reports false when no account matched. Carts and orders go with it
// through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	return res.RowsAffected > 0, res.Error
}
