// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditUserLogin          AuditAction = "user.login"
	AuditUserLogout         AuditAction = "user.logout"
	AuditUserSignup         AuditAction = "user.signup"
	AuditUserPasswordReset  AuditAction = "user.password_reset"
	AuditUserProfileUpdate  AuditAction = "user.profile_update"
	AuditPaymentCreated     AuditAction = "payment.created"
	AuditPaymentCompleted   AuditAction = "payment.completed"
	AuditPaymentFailed      AuditAction = "payment.failed"
	AuditLicenseCreated     AuditAction = "license.created"
	AuditLicenseActivated   AuditAction = "license.activated"
	AuditLicenseDeactivated AuditAction = "license.deactivated"
	AuditAdminUserUpdate    AuditAction = "admin.user_update"
	AuditAdminProductCreate AuditAction = "admin.product_create"
	AuditAdminProductUpdate AuditAction = "admin.product_update"
	AuditAdminProductDelete AuditAction = "admin.product_delete"
	AuditRateLimitExceeded  AuditAction = "security.rate_limit_exceeded"
	AuditInvalidToken       AuditAction = "security.invalid_token"
	AuditUnauthorizedAccess AuditAction = "security.unauthorized_access"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// AuditEntry is what callers hand to the audit sink.
type AuditEntry struct {
	Action    AuditAction
	UserID    *uuid.UUID
	IPAddress string
	UserAgent string
	Metadata  JSONB
	Severity  Severity
}

// AuditLog is the append-only row persisted for each entry.
type AuditLog struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Action    AuditAction `json:"action" gorm:"size:100;not null;index"`
	UserID    *uuid.UUID  `json:"user_id" gorm:"type:uuid;index"`
	IPAddress string      `json:"ip_address" gorm:"size:45"`
	UserAgent string      `json:"user_agent" gorm:"type:text"`
	Metadata  JSONB       `json:"metadata" gorm:"type:jsonb"`
	Severity  Severity    `json:"severity" gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time   `json:"created_at" gorm:"index"`
}

func NewAuditLog(entry AuditEntry, now time.Time) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		Action:    entry.Action,
		UserID:    entry.UserID,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		Metadata:  entry.Metadata,
		Severity:  entry.Severity,
		CreatedAt: now,
	}
}
