// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/utils"
)

const licenseKeyAttempts = 3

// Presigner hands out temporary download links for stored artifacts.
type Presigner interface {
	PresignGet(key string, expiration time.Duration) (string, error)
	DownloadTTL() time.Duration
}

type LicenseService struct {
	licenses    repository.LicenseRepository
	products    repository.ProductRepository
	storage     Presigner
	auditor     Auditor
	generateKey func() string
	now         func() time.Time
}

// Actor identifies who triggered an operation, for auditing.
type Actor struct {
	UserID    *uuid.UUID
	IPAddress string
	UserAgent string
}

type LicenseVerification struct {
	Valid       bool                 `json:"valid"`
	Status      models.LicenseStatus `json:"status"`
	ProductID   uuid.UUID            `json:"product_id"`
	ProductName string               `json:"product_name,omitempty"`
	ExpiresAt   *time.Time           `json:"expires_at,omitempty"`
}

type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewLicenseService(licenses repository.LicenseRepository, products repository.ProductRepository, storage Presigner, auditor Auditor) *LicenseService {
	return &LicenseService{
		licenses:    licenses,
		products:    products,
		storage:     storage,
		auditor:     auditor,
		generateKey: utils.GenerateLicenseKey,
		now:         time.Now,
	}
}

// IssueForPurchase returns the purchase's license, creating it if needed. When a
// concurrent trigger inserts first, the unique index on purchase_id rejects this
// insert and the winner's license is returned instead. tx may be nil.
func (s *LicenseService) IssueForPurchase(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) (*models.License, error) {
	existing, err := s.licenses.FindByPurchase(ctx, tx, purchase.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing license: %w", err)
	}

	for attempt := 1; attempt <= licenseKeyAttempts; attempt++ {
		license := &models.License{
			UserID:     purchase.UserID,
			ProductID:  purchase.ProductID,
			PurchaseID: purchase.ID,
			LicenseKey: s.generateKey(),
			Status:     models.LicenseStatusActive,
		}

		err := s.licenses.Create(ctx, tx, license)
		if err == nil {
			s.auditor.Log(ctx, models.AuditEntry{
				Action:   models.AuditLicenseCreated,
				UserID:   &purchase.UserID,
				Severity: models.SeverityInfo,
				Metadata: models.JSONB{
					"purchase_id": purchase.ID.String(),
					"product_id":  purchase.ProductID.String(),
					"license_key": license.LicenseKey,
				},
			})
			logrus.WithFields(logrus.Fields{
				"purchase_id": purchase.ID,
				"license_id":  license.ID,
			}).Info("License created for purchase")
			return license, nil
		}
		if !errors.Is(err, repository.ErrDuplicateLicense) {
			return nil, fmt.Errorf("failed to create license: %w", err)
		}

		existing, findErr := s.licenses.FindByPurchase(ctx, tx, purchase.ID)
		if findErr == nil {
			logrus.WithField("purchase_id", purchase.ID).Info("License already issued by a concurrent trigger")
			return existing, nil
		}
		if !errors.Is(findErr, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to reload license: %w", findErr)
		}

		logrus.WithField("attempt", attempt).Warn("License key collision, retrying")
	}

	return nil, fmt.Errorf("failed to generate a unique license key after %d attempts", licenseKeyAttempts)
}

func (s *LicenseService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.License, error) {
	return s.licenses.ListByUser(ctx, userID)
}

func (s *LicenseService) List(ctx context.Context, filter repository.LicenseFilter, params utils.PaginationParams) ([]models.License, int64, error) {
	return s.licenses.List(ctx, filter, params)
}

// SetStatus is the admin switch between active, suspended and expired.
func (s *LicenseService) SetStatus(ctx context.Context, actor Actor, licenseID uuid.UUID, status models.LicenseStatus) (*models.License, error) {
	if !status.Valid() {
		return nil, ErrInvalidLicenseStatus
	}

	license, err := s.licenses.FindByID(ctx, licenseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLicenseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	previous := license.Status
	if previous == status {
		return license, nil
	}

	if err := s.licenses.UpdateStatus(ctx, licenseID, status); err != nil {
		return nil, fmt.Errorf("failed to update license status: %w", err)
	}
	license.Status = status

	action := models.AuditLicenseDeactivated
	if status == models.LicenseStatusActive {
		action = models.AuditLicenseActivated
	}
	s.auditor.Log(ctx, models.AuditEntry{
		Action:    action,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		Severity:  models.SeverityInfo,
		Metadata: models.JSONB{
			"license_id":      licenseID.String(),
			"owner_id":        license.UserID.String(),
			"previous_status": string(previous),
			"status":          string(status),
		},
	})

	return license, nil
}

// Verify is the public check game servers call with a key.
func (s *LicenseService) Verify(ctx context.Context, key string) (*LicenseVerification, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if err := utils.ValidateLicenseKey(key); err != nil {
		return nil, ErrLicenseNotFound
	}

	license, err := s.licenses.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLicenseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	result := &LicenseVerification{
		Valid:     license.Usable(s.now()),
		Status:    license.Status,
		ProductID: license.ProductID,
		ExpiresAt: license.ExpiresAt,
	}
	if license.Product != nil {
		result.ProductName = license.Product.Name
	}
	return result, nil
}

// DownloadURL presigns the product artifact for the owner of a usable license.
func (s *LicenseService) DownloadURL(ctx context.Context, userID, licenseID uuid.UUID) (*DownloadLink, error) {
	license, err := s.licenses.FindByID(ctx, licenseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLicenseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if license.UserID != userID {
		// Do not reveal other users' licenses.
		return nil, ErrLicenseNotFound
	}
	if !license.Usable(s.now()) {
		return nil, ErrLicenseInactive
	}
	if license.Product == nil || license.Product.FileKey == "" {
		return nil, ErrProductNotFound
	}

	ttl := s.storage.DownloadTTL()
	url, err := s.storage.PresignGet(license.Product.FileKey, ttl)
	if err != nil {
		return nil, err
	}

	if err := s.products.IncrementDownloads(ctx, license.ProductID); err != nil {
		logrus.WithError(err).WithField("product_id", license.ProductID).Warn("Failed to count download")
	}

	return &DownloadLink{URL: url, ExpiresAt: s.now().Add(ttl)}, nil
}
