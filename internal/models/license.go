// internal/models/license.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// License is issued exactly once per completed Purchase; the unique index on
// purchase_id is what holds that under concurrent completion triggers.
type License struct {
	BaseModel
	UserID     uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID     `json:"product_id" gorm:"type:uuid;not null;index"`
	PurchaseID uuid.UUID     `json:"purchase_id" gorm:"type:uuid;not null;uniqueIndex"`
	LicenseKey string        `json:"license_key" gorm:"size:19;not null;uniqueIndex"`
	Status     LicenseStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Usable reports whether the license currently grants access.
func (l *License) Usable(now time.Time) bool {
	if l.Status != LicenseStatusActive {
		return false
	}
	return l.ExpiresAt == nil || now.Before(*l.ExpiresAt)
}
