package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/utils"
)

type PurchaseFilter struct {
	UserID *uuid.UUID
	Status models.PurchaseStatus
}

type PurchaseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Purchase, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error)
	FindByTransactionAndUser(ctx context.Context, transactionID string, userID uuid.UUID) (*models.Purchase, error)
	// MarkCompleted and MarkFailed only move pending rows and report whether this call did it.
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
	List(ctx context.Context, filter PurchaseFilter, params utils.PaginationParams) ([]models.Purchase, int64, error)
}

type purchaseRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepoImpl{db: db}
}

func (r *purchaseRepoImpl) Create(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) error {
	return conn(ctx, r.db, tx).Create(purchase).Error
}

func (r *purchaseRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := conn(ctx, r.db, tx).Preload("Product").First(&purchase, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &purchase, nil
}

func (r *purchaseRepoImpl) FindByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("transaction_id = ?", transactionID).
		First(&purchase).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &purchase, nil
}

func (r *purchaseRepoImpl) FindByTransactionAndUser(ctx context.Context, transactionID string, userID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("transaction_id = ? AND user_id = ?", transactionID, userID).
		First(&purchase).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &purchase, nil
}

func (r *purchaseRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	return r.transition(ctx, tx, id, models.PurchaseStatusCompleted)
}

func (r *purchaseRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	return r.transition(ctx, tx, id, models.PurchaseStatusFailed)
}

func (r *purchaseRepoImpl) transition(ctx context.Context, tx *gorm.DB, id uuid.UUID, to models.PurchaseStatus) (bool, error) {
	result := conn(ctx, r.db, tx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, models.PurchaseStatusPending).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *purchaseRepoImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}

func (r *purchaseRepoImpl) List(ctx context.Context, filter PurchaseFilter, params utils.PaginationParams) ([]models.Purchase, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Purchase{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var purchases []models.Purchase
	err := paginate(query.Preload("Product"), params, []string{"created_at", "amount", "status"}).
		Find(&purchases).Error
	return purchases, total, err
}
