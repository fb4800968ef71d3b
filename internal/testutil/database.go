// Package testutil provides reusable helpers for tests that need a real database.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/conefivem/hub/internal/database"
	"github.com/conefivem/hub/internal/models"
)

// NewDB opens an isolated in-memory SQLite database with the production schema,
// unique indexes included. A single connection serialises concurrent writers.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// SeedProfile inserts a buyer profile.
func SeedProfile(t *testing.T, db *gorm.DB, email, fullName string) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		ID:       uuid.New(),
		Email:    email,
		FullName: fullName,
		Role:     models.ProfileRoleUser,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
	return profile
}

// SeedProduct inserts a catalog product priced in BRL.
func SeedProduct(t *testing.T, db *gorm.DB, name, price string) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: models.ProductCategoryScript,
		Version:  "1.0.0",
		FileKey:  "products/" + strings.ToLower(strings.ReplaceAll(name, " ", "-")) + ".zip",
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return product
}

// CountLicenses reports how many licenses exist for a purchase.
func CountLicenses(t *testing.T, db *gorm.DB, purchaseID uuid.UUID) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&models.License{}).Where("purchase_id = ?", purchaseID).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count licenses: %v", err)
	}
	return count
}
