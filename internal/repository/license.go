package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/utils"
)

type LicenseFilter struct {
	UserID    *uuid.UUID
	ProductID *uuid.UUID
	Status    models.LicenseStatus
}

type LicenseRepository interface {
	FindByPurchase(ctx context.Context, tx *gorm.DB, purchaseID uuid.UUID) (*models.License, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	FindByKey(ctx context.Context, key string) (*models.License, error)
	// Create returns ErrDuplicateLicense on any unique violation, whether on
	// purchase_id or license_key. Callers tell them apart with FindByPurchase.
	Create(ctx context.Context, tx *gorm.DB, license *models.License) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.License, error)
	List(ctx context.Context, filter LicenseFilter, params utils.PaginationParams) ([]models.License, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LicenseStatus) error
}

type licenseRepoImpl struct {
	db *gorm.DB
}

func NewLicenseRepository(db *gorm.DB) LicenseRepository {
	return &licenseRepoImpl{db: db}
}

func (r *licenseRepoImpl) FindByPurchase(ctx context.Context, tx *gorm.DB, purchaseID uuid.UUID) (*models.License, error) {
	var license models.License
	if err := conn(ctx, r.db, tx).Where("purchase_id = ?", purchaseID).First(&license).Error; err != nil {
		return nil, notFound(err)
	}
	return &license, nil
}

func (r *licenseRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	var license models.License
	if err := r.db.WithContext(ctx).Preload("Product").First(&license, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &license, nil
}

func (r *licenseRepoImpl) FindByKey(ctx context.Context, key string) (*models.License, error) {
	var license models.License
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("license_key = ?", strings.ToUpper(key)).
		First(&license).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &license, nil
}

// Create runs in a nested transaction so a unique violation rolls back to a
// savepoint and leaves an enclosing transaction usable.
func (r *licenseRepoImpl) Create(ctx context.Context, tx *gorm.DB, license *models.License) error {
	err := conn(ctx, r.db, tx).Transaction(func(inner *gorm.DB) error {
		return inner.Create(license).Error
	})
	if isUniqueViolation(err) {
		return ErrDuplicateLicense
	}
	return err
}

func (r *licenseRepoImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.License, error) {
	var licenses []models.License
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&licenses).Error
	return licenses, err
}

func (r *licenseRepoImpl) List(ctx context.Context, filter LicenseFilter, params utils.PaginationParams) ([]models.License, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.License{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if params.Search != "" {
		query = query.Where("license_key LIKE ?", "%"+strings.ToUpper(params.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var licenses []models.License
	err := paginate(query.Preload("Product"), params, []string{"created_at", "status", "expires_at"}).
		Find(&licenses).Error
	return licenses, total, err
}

func (r *licenseRepoImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LicenseStatus) error {
	result := r.db.WithContext(ctx).Model(&models.License{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
