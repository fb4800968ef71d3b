// internal/models/transaction.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is one PIX checkout. Status only moves pending -> completed or pending -> failed.
type Purchase struct {
	BaseModel
	UserID        uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Status        PurchaseStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod string          `json:"payment_method" gorm:"size:20;not null"`
	TransactionID string          `json:"transaction_id" gorm:"size:255;not null;uniqueIndex"`
	// IPAddress holds the origin IP encrypted at rest.
	IPAddress string `json:"-" gorm:"type:text"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (p *Purchase) IsPending() bool {
	return p.Status == PurchaseStatusPending
}
