package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/database"
	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/testutil"
	"github.com/conefivem/hub/internal/utils"
)

type LedgerTestSuite struct {
	suite.Suite
	db        *gorm.DB
	purchases repository.PurchaseRepository
	licenses  repository.LicenseRepository
	buyer     *models.Profile
	product   *models.Product
	ctx       context.Context
}

func (s *LedgerTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.purchases = repository.NewPurchaseRepository(s.db)
	s.licenses = repository.NewLicenseRepository(s.db)
	s.buyer = testutil.SeedProfile(s.T(), s.db, "buyer@example.com", "Buyer")
	s.product = testutil.SeedProduct(s.T(), s.db, "Garage Script", "29.90")
	s.ctx = context.Background()
}

func (s *LedgerTestSuite) newPurchase(chargeID string) *models.Purchase {
	purchase := &models.Purchase{
		UserID:        s.buyer.ID,
		ProductID:     s.product.ID,
		Amount:        s.product.Price,
		Status:        models.PurchaseStatusPending,
		PaymentMethod: models.PaymentMethodPix,
		TransactionID: chargeID,
	}
	s.Require().NoError(s.purchases.Create(s.ctx, nil, purchase))
	return purchase
}

func (s *LedgerTestSuite) newLicense(purchase *models.Purchase, key string) *models.License {
	return &models.License{
		UserID:     purchase.UserID,
		ProductID:  purchase.ProductID,
		PurchaseID: purchase.ID,
		LicenseKey: key,
		Status:     models.LicenseStatusActive,
	}
}

func (s *LedgerTestSuite) TestMarkCompletedOnlyOnce() {
	purchase := s.newPurchase("pix_1")

	first, err := s.purchases.MarkCompleted(s.ctx, nil, purchase.ID)
	s.Require().NoError(err)
	second, err := s.purchases.MarkCompleted(s.ctx, nil, purchase.ID)
	s.Require().NoError(err)

	s.True(first)
	s.False(second)

	reloaded, err := s.purchases.FindByID(s.ctx, nil, purchase.ID)
	s.Require().NoError(err)
	s.Equal(models.PurchaseStatusCompleted, reloaded.Status)
}

func (s *LedgerTestSuite) TestCompletedPurchaseCannotFail() {
	purchase := s.newPurchase("pix_2")

	_, err := s.purchases.MarkCompleted(s.ctx, nil, purchase.ID)
	s.Require().NoError(err)
	failed, err := s.purchases.MarkFailed(s.ctx, nil, purchase.ID)
	s.Require().NoError(err)

	s.False(failed)
	reloaded, _ := s.purchases.FindByID(s.ctx, nil, purchase.ID)
	s.Equal(models.PurchaseStatusCompleted, reloaded.Status)
}

func (s *LedgerTestSuite) TestTransactionIDIsUnique() {
	s.newPurchase("pix_dup")

	err := s.purchases.Create(s.ctx, nil, &models.Purchase{
		UserID:        s.buyer.ID,
		ProductID:     s.product.ID,
		Amount:        s.product.Price,
		Status:        models.PurchaseStatusPending,
		PaymentMethod: models.PaymentMethodPix,
		TransactionID: "pix_dup",
	})
	s.Error(err)
}

func (s *LedgerTestSuite) TestSecondLicenseForPurchaseIsRejected() {
	purchase := s.newPurchase("pix_3")

	s.Require().NoError(s.licenses.Create(s.ctx, nil, s.newLicense(purchase, "AAAA-BBBB-CCCC-DDDD")))
	err := s.licenses.Create(s.ctx, nil, s.newLicense(purchase, "EEEE-FFFF-GGGG-HHHH"))

	s.ErrorIs(err, repository.ErrDuplicateLicense)
	s.Equal(int64(1), testutil.CountLicenses(s.T(), s.db, purchase.ID))
}

func (s *LedgerTestSuite) TestLicenseKeyIsUnique() {
	first := s.newPurchase("pix_4")
	second := s.newPurchase("pix_5")

	s.Require().NoError(s.licenses.Create(s.ctx, nil, s.newLicense(first, "AAAA-BBBB-CCCC-DDDD")))
	err := s.licenses.Create(s.ctx, nil, s.newLicense(second, "AAAA-BBBB-CCCC-DDDD"))

	s.ErrorIs(err, repository.ErrDuplicateLicense)
	_, err = s.licenses.FindByPurchase(s.ctx, nil, second.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *LedgerTestSuite) TestDuplicateInsideTransactionKeepsTransactionUsable() {
	purchase := s.newPurchase("pix_6")
	s.Require().NoError(s.licenses.Create(s.ctx, nil, s.newLicense(purchase, "AAAA-BBBB-CCCC-DDDD")))

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		err := s.licenses.Create(s.ctx, tx, s.newLicense(purchase, "ZZZZ-ZZZZ-ZZZZ-ZZZZ"))
		s.ErrorIs(err, repository.ErrDuplicateLicense)

		existing, err := s.licenses.FindByPurchase(s.ctx, tx, purchase.ID)
		if err != nil {
			return err
		}
		s.Equal("AAAA-BBBB-CCCC-DDDD", existing.LicenseKey)
		return nil
	})
	s.NoError(err)
}

func (s *LedgerTestSuite) TestFindByTransactionAndUserChecksOwnership() {
	purchase := s.newPurchase("pix_7")

	found, err := s.purchases.FindByTransactionAndUser(s.ctx, "pix_7", s.buyer.ID)
	s.Require().NoError(err)
	s.Equal(purchase.ID, found.ID)
	s.Require().NotNil(found.Product)
	s.Equal("Garage Script", found.Product.Name)

	_, err = s.purchases.FindByTransactionAndUser(s.ctx, "pix_7", uuid.New())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *LedgerTestSuite) TestListPurchasesFiltersByStatus() {
	completed := s.newPurchase("pix_8")
	s.newPurchase("pix_9")
	_, err := s.purchases.MarkCompleted(s.ctx, nil, completed.ID)
	s.Require().NoError(err)

	params := utils.NormalizePagination(utils.PaginationParams{})
	list, total, err := s.purchases.List(s.ctx, repository.PurchaseFilter{Status: models.PurchaseStatusCompleted}, params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(list, 1)
	s.Equal(completed.ID, list[0].ID)
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func TestAuditLogListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewAuditLogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.AuditLog{ID: uuid.New(), Action: models.AuditPaymentCreated, Severity: models.SeverityInfo}))
	require.NoError(t, repo.Insert(ctx, &models.AuditLog{ID: uuid.New(), Action: models.AuditInvalidToken, Severity: models.SeverityCritical}))

	logs, total, err := repo.List(ctx, repository.AuditLogFilter{Severity: models.SeverityCritical}, utils.NormalizePagination(utils.PaginationParams{}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.AuditInvalidToken, logs[0].Action)
}
