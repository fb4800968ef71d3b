package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/testutil"
	"github.com/conefivem/hub/internal/utils"
)

type ProductServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	auditor  *recordingAuditor
	notifier *fakeNotifier
	service  *ProductService
	actor    Actor
}

func (s *ProductServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	db := testutil.NewDB(s.T())
	s.auditor = &recordingAuditor{}
	s.notifier = &fakeNotifier{}
	s.service = NewProductService(repository.NewProductRepository(db), nil, s.auditor, s.notifier)

	admin := uuid.New()
	s.actor = Actor{UserID: &admin, IPAddress: "10.0.0.1"}
}

func (s *ProductServiceTestSuite) validRequest() *CreateProductRequest {
	return &CreateProductRequest{
		Name:        "Advanced <b>HUD</b>",
		Description: "A complete HUD with speedometer and status bars",
		Price:       decimal.RequireFromString("59.90"),
		Category:    "script",
		Tags:        []string{"hud", "<script>", "qbcore"},
	}
}

func (s *ProductServiceTestSuite) TestCreateSanitizesAndAnnounces() {
	product, err := s.service.Create(s.ctx, s.actor, s.validRequest())
	s.Require().NoError(err)

	s.Equal("Advanced bHUD/b", product.Name)
	s.Equal("1.0.0", product.Version)
	s.Equal([]string{"hud", "script", "qbcore"}, []string(product.Tags))

	s.Len(s.auditor.byAction(models.AuditAdminProductCreate), 1)
	s.Require().Len(s.notifier.products, 1)
	s.Equal(product.Name, s.notifier.products[0].Name)
}

func (s *ProductServiceTestSuite) TestCreateRejectsInvalidInput() {
	req := s.validRequest()
	req.Price = decimal.Zero
	_, err := s.service.Create(s.ctx, s.actor, req)
	s.ErrorIs(err, ErrInvalidPrice)

	req = s.validRequest()
	req.Price = decimal.NewFromInt(1000000)
	_, err = s.service.Create(s.ctx, s.actor, req)
	s.ErrorIs(err, ErrInvalidPrice)

	req = s.validRequest()
	req.Category = "boat"
	_, err = s.service.Create(s.ctx, s.actor, req)
	s.Error(err)
	s.NotEmpty(utils.GetValidationErrors(err))

	s.Empty(s.notifier.products)
}

func (s *ProductServiceTestSuite) TestUpdateTracksChangedFields() {
	product, err := s.service.Create(s.ctx, s.actor, s.validRequest())
	s.Require().NoError(err)

	price := decimal.RequireFromString("39.90")
	featured := true
	updated, err := s.service.Update(s.ctx, s.actor, product.ID, &UpdateProductRequest{Price: &price, IsFeatured: &featured})
	s.Require().NoError(err)
	s.True(updated.Price.Equal(price))
	s.True(updated.IsFeatured)

	entries := s.auditor.byAction(models.AuditAdminProductUpdate)
	s.Require().Len(entries, 1)
	s.Equal([]string{"price", "isFeatured"}, entries[0].Metadata["changed"])

	_, err = s.service.Update(s.ctx, s.actor, uuid.New(), &UpdateProductRequest{Price: &price})
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *ProductServiceTestSuite) TestDelete() {
	product, err := s.service.Create(s.ctx, s.actor, s.validRequest())
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, s.actor, product.ID))
	s.Len(s.auditor.byAction(models.AuditAdminProductDelete), 1)

	_, err = s.service.Get(s.ctx, product.ID)
	s.ErrorIs(err, ErrProductNotFound)
	s.ErrorIs(s.service.Delete(s.ctx, s.actor, product.ID), ErrProductNotFound)
}

func (s *ProductServiceTestSuite) TestListFiltersByCategory() {
	_, err := s.service.Create(s.ctx, s.actor, s.validRequest())
	s.Require().NoError(err)

	req := s.validRequest()
	req.Name = "Sports Car"
	req.Category = "vehicle"
	_, err = s.service.Create(s.ctx, s.actor, req)
	s.Require().NoError(err)

	products, total, err := s.service.List(s.ctx, utils.PaginationParams{Page: 1, Limit: 10, Category: "vehicle"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(products, 1)
	s.Equal("Sports Car", products[0].Name)
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}
