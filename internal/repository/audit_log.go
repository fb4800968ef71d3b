package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/utils"
)

type AuditLogFilter struct {
	Action   models.AuditAction
	Severity models.Severity
	UserID   *uuid.UUID
	Since    *time.Time
}

// AuditLogRepository is append-only.
type AuditLogRepository interface {
	Insert(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter, params utils.PaginationParams) ([]models.AuditLog, int64, error)
}

type auditLogRepoImpl struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepoImpl{db: db}
}

func (r *auditLogRepoImpl) Insert(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditLogRepoImpl) List(ctx context.Context, filter AuditLogFilter, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	err := paginate(query, params, []string{"created_at", "severity", "action"}).Find(&logs).Error
	return logs, total, err
}
