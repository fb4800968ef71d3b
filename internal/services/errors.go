// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/conefivem/hub/internal/ratelimit"
)

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("access denied")
	ErrInvalidProductID     = errors.New("invalid product id")
	ErrInvalidChargeID      = errors.New("invalid charge id")
	ErrProductNotFound      = errors.New("product not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrLicenseNotFound      = errors.New("license not found")
	ErrLicenseInactive      = errors.New("license is not active")
	ErrInvalidLicenseStatus = errors.New("invalid license status")
	ErrInvalidPrice         = errors.New("invalid product price")
	ErrInvalidCategory      = errors.New("invalid product category")
	ErrPaymentCreation      = errors.New("failed to create pix payment")
	ErrPaymentStatus        = errors.New("failed to check payment status")
	ErrInvalidWebhookSecret = errors.New("invalid webhook secret")
	ErrInvalidWebhookBody   = errors.New("invalid webhook payload")
	ErrStorageUnavailable   = errors.New("object storage not configured")
	ErrDiscordUnavailable   = errors.New("discord integration not configured")
	ErrDiscordRoleNotFound  = errors.New("discord role not found")
)

// RateLimitError carries the decision so handlers can expose remaining/reset.
type RateLimitError struct {
	Key      string
	Decision ratelimit.Decision
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, resets at %s", e.Key, e.Decision.ResetAt.Format(time.RFC3339))
}
