// Package client wraps the external HTTP APIs the hub talks to.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type ChargeStatusCode string

const (
	ChargePending   ChargeStatusCode = "PENDING"
	ChargePaid      ChargeStatusCode = "PAID"
	ChargeExpired   ChargeStatusCode = "EXPIRED"
	ChargeCancelled ChargeStatusCode = "CANCELLED"
)

// Terminal reports whether the charge can no longer be paid.
func (s ChargeStatusCode) Terminal() bool {
	return s == ChargeExpired || s == ChargeCancelled
}

var ErrInvalidAmount = errors.New("charge amount must be a positive number of cents")

// ProviderError carries the provider's message. It is logged, never shown to buyers.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return "abacate pay: " + e.Message
	}
	return fmt.Sprintf("abacate pay: HTTP %d: %s", e.StatusCode, e.Message)
}

type Customer struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Cellphone string `json:"cellphone,omitempty"`
	TaxID     string `json:"taxId,omitempty"`
}

type CreateChargeRequest struct {
	AmountCents int64             `json:"amount"`
	ExpiresIn   int               `json:"expiresIn,omitempty"`
	Description string            `json:"description"`
	Customer    Customer          `json:"customer"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Charge struct {
	ID           string           `json:"id"`
	Amount       int64            `json:"amount"`
	Status       ChargeStatusCode `json:"status"`
	DevMode      bool             `json:"devMode"`
	BRCode       string           `json:"brCode"`
	BRCodeBase64 string           `json:"brCodeBase64"`
	PlatformFee  int64            `json:"platformFee"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	ExpiresAt    time.Time        `json:"expiresAt"`
}

type ChargeStatus struct {
	Status    ChargeStatusCode `json:"status"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// PixGateway is the slice of the PIX provider the payment flow needs.
type PixGateway interface {
	CreateCharge(ctx context.Context, req CreateChargeRequest) (*Charge, error)
	CheckStatus(ctx context.Context, chargeID string) (*ChargeStatus, error)
}

type envelope[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error"`
}

type AbacatePayClient struct {
	http *resty.Client
}

// NewAbacatePayClient never retries; retry policy belongs to callers.
func NewAbacatePayClient(baseURL, apiKey string, timeout time.Duration) *AbacatePayClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &AbacatePayClient{http: httpClient}
}

func (c *AbacatePayClient) CreateCharge(ctx context.Context, req CreateChargeRequest) (*Charge, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	var out envelope[Charge]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/pixQrCode/create")

	return unwrap(resp, err, &out)
}

func (c *AbacatePayClient) CheckStatus(ctx context.Context, chargeID string) (*ChargeStatus, error) {
	var out envelope[ChargeStatus]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", chargeID).
		SetResult(&out).
		SetError(&out).
		Get("/pixQrCode/check")

	return unwrap(resp, err, &out)
}

func unwrap[T any](resp *resty.Response, err error, out *envelope[T]) (*T, error) {
	if err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}

	if resp.IsError() {
		message := out.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return nil, &ProviderError{StatusCode: resp.StatusCode(), Message: message}
	}

	if out.Error != "" {
		return nil, &ProviderError{StatusCode: resp.StatusCode(), Message: out.Error}
	}
	if out.Data == nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode(), Message: "empty response data"}
	}
	return out.Data, nil
}
