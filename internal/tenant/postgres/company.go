package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	companydm "github.com/operativa/gestionale/internal/core/datamodel/company"
)

// Repository implements tenant.CompanyRepository with GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&companydm.Company{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*companydm.Company, error) {
	var c companydm.Company
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, c *companydm.Company) error {
	return r.db.WithContext(ctx).Create(c).Error
}
