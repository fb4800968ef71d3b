// internal/services/payment_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/client"
	"github.com/conefivem/hub/internal/config"
	"github.com/conefivem/hub/internal/database"
	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/ratelimit"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/utils"
)

const (
	storeName          = "ConeFiveM Hub"
	notifyTimeout      = 10 * time.Second
	eventPixQrCodePaid = "pixQrCode.paid"
	eventBillingPaid   = "billing.paid"
)

// PaymentService drives a purchase from PIX charge to license.
type PaymentService struct {
	db            *gorm.DB
	gateway       client.PixGateway
	limiter       ratelimit.Store
	purchases     repository.PurchaseRepository
	products      repository.ProductRepository
	profiles      repository.ProfileRepository
	licenses      *LicenseService
	auditor       Auditor
	notifier      SaleNotifier
	encryptor     *utils.Encryptor
	webhookSecret string
	chargeExpiry  int
}

type PaymentDependencies struct {
	Gateway   client.PixGateway
	Limiter   ratelimit.Store
	Purchases repository.PurchaseRepository
	Products  repository.ProductRepository
	Profiles  repository.ProfileRepository
	Licenses  *LicenseService
	Auditor   Auditor
	Notifier  SaleNotifier
	Encryptor *utils.Encryptor
}

type CreatePixRequest struct {
	UserID    string
	ProductID string
	ClientIP  string
	UserAgent string
}

type PixCharge struct {
	PurchaseID uuid.UUID               `json:"id"`
	ChargeID   string                  `json:"pixId"`
	QRCode     string                  `json:"qrCode"`
	CopyPaste  string                  `json:"copyPaste"`
	Amount     decimal.Decimal         `json:"amount"`
	ExpiresAt  time.Time               `json:"expiresAt"`
	Status     client.ChargeStatusCode `json:"status"`
	DevMode    bool                    `json:"devMode,omitempty"`
}

type CheckStatusRequest struct {
	UserID    string
	ChargeID  string
	ClientIP  string
	UserAgent string
}

type PixStatus struct {
	Status    client.ChargeStatusCode `json:"status"`
	ExpiresAt time.Time               `json:"expiresAt"`
}

type WebhookRequest struct {
	SourceIP  string
	UserAgent string
	Secret    string
	Body      []byte
}

type WebhookResult struct {
	Event      string     `json:"event"`
	Processed  bool       `json:"processed"`
	PurchaseID *uuid.UUID `json:"purchase_id,omitempty"`
}

type webhookEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		ID       string                 `json:"id"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"data"`
}

func NewPaymentService(db *gorm.DB, deps PaymentDependencies, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		db:            db,
		gateway:       deps.Gateway,
		limiter:       deps.Limiter,
		purchases:     deps.Purchases,
		products:      deps.Products,
		profiles:      deps.Profiles,
		licenses:      deps.Licenses,
		auditor:       deps.Auditor,
		notifier:      deps.Notifier,
		encryptor:     deps.Encryptor,
		webhookSecret: cfg.WebhookSecret,
		chargeExpiry:  cfg.ChargeExpirySeconds,
	}
}

// CreatePixCharge requests a PIX charge for a product and records a pending purchase.
func (s *PaymentService) CreatePixCharge(ctx context.Context, req CreatePixRequest) (*PixCharge, error) {
	actor := Actor{IPAddress: req.ClientIP, UserAgent: req.UserAgent}

	if err := s.checkRateLimit(ctx, ratelimit.Key("payment", req.ClientIP), ratelimit.PaymentCreate, actor); err != nil {
		return nil, err
	}

	userID, err := s.requireUser(ctx, req.UserID, "/api/payments/create-pix", actor)
	if err != nil {
		return nil, err
	}
	actor.UserID = &userID

	if !utils.ValidateUUID(req.ProductID) {
		return nil, ErrInvalidProductID
	}
	productID := uuid.MustParse(req.ProductID)

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := utils.ValidateAmount(product.Price); err != nil {
		logrus.WithField("product_id", product.ID).WithField("price", product.Price).Error("Product has an invalid price")
		return nil, ErrInvalidPrice
	}

	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	charge, err := s.gateway.CreateCharge(ctx, client.CreateChargeRequest{
		AmountCents: utils.BRLToCents(product.Price),
		ExpiresIn:   s.chargeExpiry,
		Description: fmt.Sprintf("%s - %s", product.Name, storeName),
		Customer: client.Customer{
			Name:  profile.DisplayName(),
			Email: profile.Email,
		},
		Metadata: map[string]string{
			"externalId":  product.ID.String(),
			"userId":      userID.String(),
			"productName": product.Name,
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("product_id", product.ID).Error("Failed to create PIX charge")
		s.auditFailure(ctx, actor, models.SeverityError, models.JSONB{
			"stage":      "create_charge",
			"product_id": product.ID.String(),
			"error":      err.Error(),
		})
		return nil, ErrPaymentCreation
	}

	purchase := &models.Purchase{
		UserID:        userID,
		ProductID:     product.ID,
		Amount:        product.Price,
		Status:        models.PurchaseStatusPending,
		PaymentMethod: models.PaymentMethodPix,
		TransactionID: charge.ID,
		IPAddress:     s.sealIP(req.ClientIP),
	}
	if err := s.purchases.Create(ctx, nil, purchase); err != nil {
		logrus.WithError(err).WithField("charge_id", charge.ID).Error("Failed to record purchase")
		s.auditFailure(ctx, actor, models.SeverityError, models.JSONB{
			"stage":     "record_purchase",
			"charge_id": charge.ID,
			"error":     err.Error(),
		})
		return nil, ErrPaymentCreation
	}

	s.auditor.Log(ctx, models.AuditEntry{
		Action:    models.AuditPaymentCreated,
		UserID:    &userID,
		IPAddress: req.ClientIP,
		UserAgent: req.UserAgent,
		Severity:  models.SeverityInfo,
		Metadata: models.JSONB{
			"purchase_id": purchase.ID.String(),
			"product_id":  product.ID.String(),
			"amount":      product.Price.StringFixed(2),
			"charge_id":   charge.ID,
		},
	})

	return &PixCharge{
		PurchaseID: purchase.ID,
		ChargeID:   charge.ID,
		QRCode:     charge.BRCodeBase64,
		CopyPaste:  charge.BRCode,
		Amount:     product.Price,
		ExpiresAt:  charge.ExpiresAt,
		Status:     charge.Status,
		DevMode:    charge.DevMode,
	}, nil
}

// CheckPixStatus polls the provider and settles the caller's own purchase.
func (s *PaymentService) CheckPixStatus(ctx context.Context, req CheckStatusRequest) (*PixStatus, error) {
	actor := Actor{IPAddress: req.ClientIP, UserAgent: req.UserAgent}

	if err := s.checkRateLimit(ctx, ratelimit.Key("payment-check", req.ClientIP), ratelimit.PaymentCheck, actor); err != nil {
		return nil, err
	}

	userID, err := s.requireUser(ctx, req.UserID, "/api/payments/check-status", actor)
	if err != nil {
		return nil, err
	}
	actor.UserID = &userID

	if req.ChargeID == "" {
		return nil, ErrInvalidChargeID
	}

	status, err := s.gateway.CheckStatus(ctx, req.ChargeID)
	if err != nil {
		logrus.WithError(err).WithField("charge_id", req.ChargeID).Error("Failed to check PIX status")
		return nil, ErrPaymentStatus
	}

	switch {
	case status.Status == client.ChargePaid:
		purchase, err := s.purchases.FindByTransactionAndUser(ctx, req.ChargeID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrPaymentStatus, err)
		}
		if !purchase.IsPending() {
			break
		}
		if _, err := s.complete(ctx, purchase, "poll"); err != nil {
			logrus.WithError(err).WithField("purchase_id", purchase.ID).Error("Failed to complete purchase")
			return nil, fmt.Errorf("%w: %v", ErrPaymentStatus, err)
		}

	case status.Status.Terminal():
		s.failOwnedPurchase(ctx, req.ChargeID, userID, status.Status, actor)
	}

	return &PixStatus{Status: status.Status, ExpiresAt: status.ExpiresAt}, nil
}

// HandleWebhook processes a provider callback. Errors other than rate limiting
// and a bad secret mean the provider should redeliver.
func (s *PaymentService) HandleWebhook(ctx context.Context, req WebhookRequest) (*WebhookResult, error) {
	actor := Actor{IPAddress: req.SourceIP, UserAgent: req.UserAgent}

	if err := s.checkRateLimit(ctx, ratelimit.Key("webhook", req.SourceIP), ratelimit.Webhook, actor); err != nil {
		return nil, err
	}

	if s.webhookSecret == "" || !utils.SecureCompare(req.Secret, s.webhookSecret) {
		reason := "mismatch"
		switch {
		case s.webhookSecret == "":
			reason = "secret_not_configured"
		case req.Secret == "":
			reason = "missing"
		}
		logrus.WithField("ip", req.SourceIP).WithField("reason", reason).Error("Webhook rejected: invalid secret")
		s.auditor.Log(ctx, models.AuditEntry{
			Action:    models.AuditInvalidToken,
			IPAddress: req.SourceIP,
			UserAgent: req.UserAgent,
			Severity:  models.SeverityCritical,
			Metadata: models.JSONB{
				"endpoint": "/api/webhooks/abacate-pay",
				"reason":   reason,
			},
		})
		return nil, ErrInvalidWebhookSecret
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(req.Body, &envelope); err != nil {
		s.auditFailure(ctx, actor, models.SeverityCritical, models.JSONB{
			"stage": "parse_webhook",
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookBody, err)
	}

	result := &WebhookResult{Event: envelope.Event}
	logrus.WithFields(logrus.Fields{"event": envelope.Event, "charge_id": envelope.Data.ID}).Info("Webhook received")

	if envelope.Event != eventPixQrCodePaid && envelope.Event != eventBillingPaid {
		return result, nil
	}

	purchase, err := s.purchases.FindByTransactionID(ctx, envelope.Data.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logrus.WithField("charge_id", envelope.Data.ID).Warn("Webhook for unknown charge, acknowledging")
			return result, nil
		}
		s.auditFailure(ctx, actor, models.SeverityCritical, models.JSONB{
			"stage":     "find_purchase",
			"charge_id": envelope.Data.ID,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	result.PurchaseID = &purchase.ID

	if purchase.Status == models.PurchaseStatusFailed {
		logrus.WithField("purchase_id", purchase.ID).Warn("Paid event for a failed purchase, leaving it failed")
		s.auditFailure(ctx, actor, models.SeverityWarning, models.JSONB{
			"stage":       "paid_after_failure",
			"purchase_id": purchase.ID.String(),
			"charge_id":   envelope.Data.ID,
		})
		return result, nil
	}

	if _, err := s.complete(ctx, purchase, "webhook"); err != nil {
		s.auditFailure(ctx, actor, models.SeverityCritical, models.JSONB{
			"stage":       "complete_purchase",
			"purchase_id": purchase.ID.String(),
			"charge_id":   envelope.Data.ID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("failed to complete purchase: %w", err)
	}

	result.Processed = true
	return result, nil
}

// History lists the caller's purchases, newest first.
func (s *PaymentService) History(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	return s.purchases.ListByUser(ctx, userID)
}

// complete moves the purchase to completed and makes sure it has its license,
// atomically. Only the caller that performed the transition audits
// payment.completed and notifies, so both happen once per purchase.
func (s *PaymentService) complete(ctx context.Context, purchase *models.Purchase, source string) (bool, error) {
	var transitioned bool
	var license *models.License

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		transitioned, err = s.purchases.MarkCompleted(ctx, tx, purchase.ID)
		if err != nil {
			return fmt.Errorf("failed to mark purchase completed: %w", err)
		}

		if !transitioned {
			current, err := s.purchases.FindByID(ctx, tx, purchase.ID)
			if err != nil {
				return fmt.Errorf("failed to reload purchase: %w", err)
			}
			if current.Status != models.PurchaseStatusCompleted {
				return nil
			}
		}

		license, err = s.licenses.IssueForPurchase(ctx, tx, purchase)
		return err
	})
	if err != nil {
		return false, err
	}
	if !transitioned {
		return false, nil
	}

	purchase.Status = models.PurchaseStatusCompleted
	metadata := models.JSONB{
		"purchase_id":    purchase.ID.String(),
		"product_id":     purchase.ProductID.String(),
		"amount":         purchase.Amount.StringFixed(2),
		"transaction_id": purchase.TransactionID,
		"source":         source,
	}
	if license != nil {
		metadata["license_id"] = license.ID.String()
	}
	s.auditor.Log(ctx, models.AuditEntry{
		Action:   models.AuditPaymentCompleted,
		UserID:   &purchase.UserID,
		Severity: models.SeverityInfo,
		Metadata: metadata,
	})

	s.notifySale(ctx, purchase)
	return true, nil
}

func (s *PaymentService) notifySale(ctx context.Context, purchase *models.Purchase) {
	if s.notifier == nil {
		return
	}

	sale := SaleNotification{
		PurchaseID:   purchase.ID.String(),
		Price:        purchase.Amount,
		IPAddress:    s.openIP(purchase.IPAddress),
		PurchaseDate: purchase.CreatedAt,
	}
	if purchase.Product != nil {
		sale.ProductName = purchase.Product.Name
	}
	if profile, err := s.profiles.FindByID(ctx, purchase.UserID); err == nil {
		sale.UserName = profile.DisplayName()
		sale.UserEmail = profile.Email
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.SendPurchaseNotification(notifyCtx, sale); err != nil {
		logrus.WithError(err).WithField("purchase_id", purchase.ID).Error("Failed to send Discord notification")
	}
}

func (s *PaymentService) failOwnedPurchase(ctx context.Context, chargeID string, userID uuid.UUID, status client.ChargeStatusCode, actor Actor) {
	purchase, err := s.purchases.FindByTransactionAndUser(ctx, chargeID, userID)
	if err != nil || !purchase.IsPending() {
		return
	}

	failed, err := s.purchases.MarkFailed(ctx, nil, purchase.ID)
	if err != nil {
		logrus.WithError(err).WithField("purchase_id", purchase.ID).Error("Failed to mark purchase failed")
		return
	}
	if !failed {
		return
	}

	s.auditFailure(ctx, actor, models.SeverityWarning, models.JSONB{
		"stage":       "charge_" + string(status),
		"purchase_id": purchase.ID.String(),
		"charge_id":   chargeID,
	})
}

func (s *PaymentService) checkRateLimit(ctx context.Context, key string, policy ratelimit.Policy, actor Actor) error {
	decision, err := s.limiter.Check(ctx, key, policy)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("Rate limit store unavailable, allowing request")
		return nil
	}
	if decision.Allowed {
		return nil
	}

	s.auditor.Log(ctx, models.AuditEntry{
		Action:    models.AuditRateLimitExceeded,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		Severity:  models.SeverityWarning,
		Metadata: models.JSONB{
			"key":      key,
			"reset_at": decision.ResetAt.UTC().Format(time.RFC3339),
		},
	})
	return &RateLimitError{Key: key, Decision: decision}
}

func (s *PaymentService) requireUser(ctx context.Context, raw, endpoint string, actor Actor) (uuid.UUID, error) {
	userID, err := uuid.Parse(raw)
	if raw == "" || err != nil {
		s.auditor.Log(ctx, models.AuditEntry{
			Action:    models.AuditUnauthorizedAccess,
			IPAddress: actor.IPAddress,
			UserAgent: actor.UserAgent,
			Severity:  models.SeverityWarning,
			Metadata:  models.JSONB{"endpoint": endpoint},
		})
		return uuid.Nil, ErrUnauthenticated
	}
	return userID, nil
}

func (s *PaymentService) auditFailure(ctx context.Context, actor Actor, severity models.Severity, metadata models.JSONB) {
	s.auditor.Log(ctx, models.AuditEntry{
		Action:    models.AuditPaymentFailed,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		Severity:  severity,
		Metadata:  metadata,
	})
}

func (s *PaymentService) sealIP(ip string) string {
	if s.encryptor == nil || ip == "" {
		return ""
	}
	sealed, err := s.encryptor.Encrypt(ip)
	if err != nil {
		logrus.WithError(err).Warn("Failed to encrypt origin IP")
		return ""
	}
	return sealed
}

func (s *PaymentService) openIP(sealed string) string {
	if s.encryptor == nil || sealed == "" {
		return ""
	}
	ip, err := s.encryptor.Decrypt(sealed)
	if err != nil {
		logrus.WithError(err).Warn("Failed to decrypt origin IP")
		return ""
	}
	return ip
}
