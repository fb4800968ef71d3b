package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/testutil"
)

type LicenseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	auditor  *recordingAuditor
	service  *LicenseService
	buyer    *models.Profile
	product  *models.Product
	purchase *models.Purchase
}

func (s *LicenseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.auditor = &recordingAuditor{}
	s.service = NewLicenseService(
		repository.NewLicenseRepository(s.db),
		repository.NewProductRepository(s.db),
		fakePresigner{},
		s.auditor,
	)

	s.buyer = testutil.SeedProfile(s.T(), s.db, "buyer@example.com", "Ana Souza")
	s.product = testutil.SeedProduct(s.T(), s.db, "Police Pack", "49.90")
	s.purchase = s.seedPurchase("pix_char_license")
}

func (s *LicenseServiceTestSuite) seedPurchase(chargeID string) *models.Purchase {
	purchase := &models.Purchase{
		UserID:        s.buyer.ID,
		ProductID:     s.product.ID,
		Amount:        decimal.RequireFromString("49.90"),
		Status:        models.PurchaseStatusCompleted,
		PaymentMethod: models.PaymentMethodPix,
		TransactionID: chargeID,
	}
	s.Require().NoError(s.db.Create(purchase).Error)
	return purchase
}

func (s *LicenseServiceTestSuite) keys(values ...string) func() string {
	i := 0
	return func() string {
		key := values[i%len(values)]
		i++
		return key
	}
}

func (s *LicenseServiceTestSuite) TestIssueForPurchaseIsIdempotent() {
	first, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	second, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(first.LicenseKey, second.LicenseKey)
	s.Len(s.auditor.byAction(models.AuditLicenseCreated), 1)
}

func (s *LicenseServiceTestSuite) TestIssueRetriesOnKeyCollision() {
	s.service.generateKey = s.keys("AAAA-BBBB-CCCC-DDDD")
	_, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	other := s.seedPurchase("pix_char_other")
	s.service.generateKey = s.keys("AAAA-BBBB-CCCC-DDDD", "EEEE-FFFF-GGGG-HHHH")

	license, err := s.service.IssueForPurchase(s.ctx, nil, other)
	s.Require().NoError(err)
	s.Equal("EEEE-FFFF-GGGG-HHHH", license.LicenseKey)
	s.Equal(other.ID, license.PurchaseID)
}

func (s *LicenseServiceTestSuite) TestIssueGivesUpAfterRepeatedCollisions() {
	s.service.generateKey = s.keys("AAAA-BBBB-CCCC-DDDD")
	_, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	_, err = s.service.IssueForPurchase(s.ctx, nil, s.seedPurchase("pix_char_stuck"))
	s.Error(err)
}

func (s *LicenseServiceTestSuite) TestVerify() {
	license, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	result, err := s.service.Verify(s.ctx, "  "+license.LicenseKey+" ")
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal(models.LicenseStatusActive, result.Status)
	s.Equal("Police Pack", result.ProductName)

	_, err = s.service.Verify(s.ctx, "not-a-key")
	s.ErrorIs(err, ErrLicenseNotFound)

	_, err = s.service.Verify(s.ctx, "ZZZZ-ZZZZ-ZZZZ-ZZZZ")
	s.ErrorIs(err, ErrLicenseNotFound)
}

func (s *LicenseServiceTestSuite) TestVerifyReportsExpiredLicense() {
	license, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	s.service.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	expiry := time.Now().Add(24 * time.Hour)
	s.Require().NoError(s.db.Model(&models.License{}).Where("id = ?", license.ID).Update("expires_at", expiry).Error)

	result, err := s.service.Verify(s.ctx, license.LicenseKey)
	s.Require().NoError(err)
	s.False(result.Valid)
}

func (s *LicenseServiceTestSuite) TestSetStatusAudits() {
	license, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	admin := uuid.New()
	actor := Actor{UserID: &admin, IPAddress: "10.0.0.1"}

	updated, err := s.service.SetStatus(s.ctx, actor, license.ID, models.LicenseStatusSuspended)
	s.Require().NoError(err)
	s.Equal(models.LicenseStatusSuspended, updated.Status)
	s.Len(s.auditor.byAction(models.AuditLicenseDeactivated), 1)

	_, err = s.service.SetStatus(s.ctx, actor, license.ID, models.LicenseStatusActive)
	s.Require().NoError(err)
	s.Len(s.auditor.byAction(models.AuditLicenseActivated), 1)

	_, err = s.service.SetStatus(s.ctx, actor, license.ID, models.LicenseStatus("revoked"))
	s.ErrorIs(err, ErrInvalidLicenseStatus)

	_, err = s.service.SetStatus(s.ctx, actor, uuid.New(), models.LicenseStatusActive)
	s.ErrorIs(err, ErrLicenseNotFound)
}

func (s *LicenseServiceTestSuite) TestDownloadURL() {
	license, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	link, err := s.service.DownloadURL(s.ctx, s.buyer.ID, license.ID)
	s.Require().NoError(err)
	s.Contains(link.URL, s.product.FileKey)
	s.True(link.ExpiresAt.After(time.Now()))

	var product models.Product
	s.Require().NoError(s.db.First(&product, "id = ?", s.product.ID).Error)
	s.Equal(int64(1), product.Downloads)

	_, err = s.service.DownloadURL(s.ctx, uuid.New(), license.ID)
	s.ErrorIs(err, ErrLicenseNotFound)

	_, err = s.service.SetStatus(s.ctx, Actor{}, license.ID, models.LicenseStatusSuspended)
	s.Require().NoError(err)
	_, err = s.service.DownloadURL(s.ctx, s.buyer.ID, license.ID)
	s.ErrorIs(err, ErrLicenseInactive)
}

func (s *LicenseServiceTestSuite) TestDownloadURLStorageFailure() {
	license, err := s.service.IssueForPurchase(s.ctx, nil, s.purchase)
	s.Require().NoError(err)

	s.service.storage = fakePresigner{err: ErrStorageUnavailable}
	_, err = s.service.DownloadURL(s.ctx, s.buyer.ID, license.ID)
	s.True(errors.Is(err, ErrStorageUnavailable))
}

func TestLicenseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LicenseServiceTestSuite))
}
