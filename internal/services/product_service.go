// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/utils"
)

type ProductService struct {
	products repository.ProductRepository
	storage  *StorageService
	auditor  Auditor
	notifier SaleNotifier
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=3,max=255"`
	Description string          `json:"description" validate:"required,min=10"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Category    string          `json:"category" validate:"required,oneof=script asset mlo vehicle weapon"`
	ImageURL    string          `json:"image,omitempty" validate:"omitempty,url"`
	FileKey     string          `json:"file_key,omitempty" validate:"omitempty,max=512"`
	Features    []string        `json:"features,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Version     string          `json:"version,omitempty" validate:"omitempty,max=50"`
	IsNew       bool            `json:"isNew"`
	IsFeatured  bool            `json:"isFeatured"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=10"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,oneof=script asset mlo vehicle weapon"`
	ImageURL    *string          `json:"image,omitempty" validate:"omitempty,url"`
	FileKey     *string          `json:"file_key,omitempty" validate:"omitempty,max=512"`
	Features    []string         `json:"features,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Version     *string          `json:"version,omitempty" validate:"omitempty,max=50"`
	IsNew       *bool            `json:"isNew,omitempty"`
	IsFeatured  *bool            `json:"isFeatured,omitempty"`
}

func NewProductService(products repository.ProductRepository, storage *StorageService, auditor Auditor, notifier SaleNotifier) *ProductService {
	return &ProductService{
		products: products,
		storage:  storage,
		auditor:  auditor,
		notifier: notifier,
	}
}

func (s *ProductService) List(ctx context.Context, params utils.PaginationParams) ([]models.Product, int64, error) {
	return s.products.List(ctx, params)
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, actor Actor, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := utils.ValidateAmount(req.Price); err != nil {
		return nil, ErrInvalidPrice
	}

	product := &models.Product{
		Name:        utils.SanitizeText(req.Name),
		Description: utils.SanitizeText(req.Description),
		Price:       req.Price.Round(2),
		Category:    models.ProductCategory(req.Category),
		ImageURL:    req.ImageURL,
		FileKey:     req.FileKey,
		Features:    pq.StringArray(sanitizeAll(req.Features)),
		Tags:        pq.StringArray(sanitizeAll(req.Tags)),
		Version:     req.Version,
		IsNew:       req.IsNew,
		IsFeatured:  req.IsFeatured,
	}
	if product.Version == "" {
		product.Version = "1.0.0"
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.audit(ctx, actor, models.AuditAdminProductCreate, product, nil)

	if s.notifier != nil {
		if err := s.notifier.SendProductPostNotification(ctx, ProductPost{
			Name:     product.Name,
			Price:    product.Price,
			Category: string(product.Category),
			Tags:     product.Tags,
		}); err != nil {
			logrus.WithError(err).WithField("product_id", product.ID).Error("Failed to post product to Discord")
		}
	}

	return product, nil
}

func (s *ProductService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := []string{}
	if req.Name != nil {
		product.Name = utils.SanitizeText(*req.Name)
		changed = append(changed, "name")
	}
	if req.Description != nil {
		product.Description = utils.SanitizeText(*req.Description)
		changed = append(changed, "description")
	}
	if req.Price != nil {
		if err := utils.ValidateAmount(*req.Price); err != nil {
			return nil, ErrInvalidPrice
		}
		product.Price = req.Price.Round(2)
		changed = append(changed, "price")
	}
	if req.Category != nil {
		product.Category = models.ProductCategory(*req.Category)
		changed = append(changed, "category")
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
		changed = append(changed, "image")
	}
	if req.FileKey != nil {
		product.FileKey = *req.FileKey
		changed = append(changed, "file_key")
	}
	if req.Features != nil {
		product.Features = pq.StringArray(sanitizeAll(req.Features))
		changed = append(changed, "features")
	}
	if req.Tags != nil {
		product.Tags = pq.StringArray(sanitizeAll(req.Tags))
		changed = append(changed, "tags")
	}
	if req.Version != nil {
		product.Version = *req.Version
		changed = append(changed, "version")
	}
	if req.IsNew != nil {
		product.IsNew = *req.IsNew
		changed = append(changed, "isNew")
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
		changed = append(changed, "isFeatured")
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.audit(ctx, actor, models.AuditAdminProductUpdate, product, changed)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.removeImage(ctx, product.ImageURL)
	s.audit(ctx, actor, models.AuditAdminProductDelete, product, nil)
	return nil
}

// UploadImage stores the image and points the product at it.
func (s *ProductService) UploadImage(ctx context.Context, actor Actor, id uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.Product, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.storage.UploadFile(ctx, file, header, ProductImageUploadOptions())
	if err != nil {
		return nil, err
	}

	previous := product.ImageURL
	product.ImageURL = result.URL
	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product image: %w", err)
	}
	s.removeImage(ctx, previous)

	s.audit(ctx, actor, models.AuditAdminProductUpdate, product, []string{"image"})
	return product, nil
}

func (s *ProductService) audit(ctx context.Context, actor Actor, action models.AuditAction, product *models.Product, changed []string) {
	metadata := models.JSONB{
		"product_id": product.ID.String(),
		"name":       product.Name,
		"price":      product.Price.StringFixed(2),
	}
	if len(changed) > 0 {
		metadata["changed"] = changed
	}
	s.auditor.Log(ctx, models.AuditEntry{
		Action:    action,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		Severity:  models.SeverityInfo,
		Metadata:  metadata,
	})
}

// removeImage drops a stored image. Failures leave an orphan object and are only logged.
func (s *ProductService) removeImage(ctx context.Context, url string) {
	if s.storage == nil {
		return
	}
	key, ok := s.storage.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.storage.DeleteFile(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to remove product image")
	}
}

func sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = utils.SanitizeText(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
