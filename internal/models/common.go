// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices are rendered as JSON numbers (29.9), not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the identity server-side so the same models run on Postgres and SQLite.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
}

// Enums
type ProfileRole string

const (
	ProfileRoleUser  ProfileRole = "user"
	ProfileRoleAdmin ProfileRole = "admin"
)

type ProductCategory string

const (
	ProductCategoryScript  ProductCategory = "script"
	ProductCategoryAsset   ProductCategory = "asset"
	ProductCategoryMLO     ProductCategory = "mlo"
	ProductCategoryVehicle ProductCategory = "vehicle"
	ProductCategoryWeapon  ProductCategory = "weapon"
)

func (c ProductCategory) Valid() bool {
	switch c {
	case ProductCategoryScript, ProductCategoryAsset, ProductCategoryMLO, ProductCategoryVehicle, ProductCategoryWeapon:
		return true
	}
	return false
}

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

type LicenseStatus string

const (
	LicenseStatusActive    LicenseStatus = "active"
	LicenseStatusExpired   LicenseStatus = "expired"
	LicenseStatusSuspended LicenseStatus = "suspended"
)

func (s LicenseStatus) Valid() bool {
	switch s {
	case LicenseStatusActive, LicenseStatusExpired, LicenseStatusSuspended:
		return true
	}
	return false
}

const PaymentMethodPix = "pix"
