package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestCreateChargeSendsRequestAndDecodesCharge(t *testing.T) {
	var received CreateChargeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pixQrCode/create", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{
				"id":           "pix_char_123",
				"amount":       2990,
				"status":       "PENDING",
				"devMode":      true,
				"brCode":       "00020101021226",
				"brCodeBase64": "data:image/png;base64,AAAA",
				"expiresAt":    "2024-05-01T13:00:00Z",
			},
			"error": nil,
		})
	}))
	defer server.Close()

	c := NewAbacatePayClient(server.URL, "test-key", 5*time.Second)
	charge, err := c.CreateCharge(context.Background(), CreateChargeRequest{
		AmountCents: 2990,
		ExpiresIn:   3600,
		Description: "Script - ConeFiveM Hub",
		Customer:    Customer{Name: "Ana", Email: "ana@example.com"},
		Metadata:    map[string]string{"externalId": "prod-1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pix_char_123", charge.ID)
	assert.Equal(t, ChargePending, charge.Status)
	assert.Equal(t, "00020101021226", charge.BRCode)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), charge.ExpiresAt.UTC())

	assert.Equal(t, int64(2990), received.AmountCents)
	assert.Equal(t, 3600, received.ExpiresIn)
	assert.Equal(t, "ana@example.com", received.Customer.Email)
	assert.Equal(t, "prod-1", received.Metadata["externalId"])
}

func TestCreateChargeRejectsNonPositiveAmountWithoutCalling(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewAbacatePayClient(server.URL, "k", time.Second)
	_, err := c.CreateCharge(context.Background(), CreateChargeRequest{AmountCents: 0})

	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.False(t, called)
}

func TestProviderErrorsAreTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"data": nil, "error": "invalid api key"})
	}))
	defer server.Close()

	c := NewAbacatePayClient(server.URL, "bad", time.Second)
	_, err := c.CheckStatus(context.Background(), "pix_char_123")

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
	assert.Equal(t, "invalid api key", providerErr.Message)
}

func TestErrorPayloadOnSuccessStatusIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": nil, "error": "charge not found"})
	}))
	defer server.Close()

	c := NewAbacatePayClient(server.URL, "k", time.Second)
	_, err := c.CheckStatus(context.Background(), "missing")

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "charge not found", providerErr.Message)
}

func TestCheckStatusQueriesByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pixQrCode/check", r.URL.Path)
		assert.Equal(t, "pix_char_123", r.URL.Query().Get("id"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"status": "PAID", "expiresAt": "2024-05-01T13:00:00Z"},
		})
	}))
	defer server.Close()

	c := NewAbacatePayClient(server.URL, "k", time.Second)
	status, err := c.CheckStatus(context.Background(), "pix_char_123")

	require.NoError(t, err)
	assert.Equal(t, ChargePaid, status.Status)
	assert.False(t, status.Status.Terminal())
	assert.True(t, ChargeExpired.Terminal())
}

func TestNetworkFailureIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewAbacatePayClient(url, "k", time.Second)
	_, err := c.CheckStatus(context.Background(), "x")

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Zero(t, providerErr.StatusCode)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
