package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	userdm "github.com/operativa/gestionale/internal/core/datamodel/user"
)

// Repository implements identity.UserRepository with GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBySubject finds the user bound to the identity provider's stable
// subject. Soft-deleted users are treated as absent: a deleted user must
// resolve to a degraded identity, not to their old company.
func (r *Repository) GetBySubject(ctx context.Context, subject string) (*userdm.User, error) {
	var u userdm.User
	err := r.db.WithContext(ctx).
		Where("cognito_sub = ? AND status = ?", subject, userdm.StatusActive).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userdm.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}
