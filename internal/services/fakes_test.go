package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conefivem/hub/internal/client"
	"github.com/conefivem/hub/internal/models"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *recordingAuditor) Log(_ context.Context, entry models.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAuditor) byAction(action models.AuditAction) []models.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type fakeGateway struct {
	mu         sync.Mutex
	seq        int
	created    []client.CreateChargeRequest
	createErr  error
	statuses   map[string]client.ChargeStatusCode
	checkErr   error
	checkCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]client.ChargeStatusCode)}
}

func (g *fakeGateway) CreateCharge(_ context.Context, req client.CreateChargeRequest) (*client.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	g.created = append(g.created, req)
	id := fmt.Sprintf("pix_char_%d", g.seq)
	g.statuses[id] = client.ChargePending
	return &client.Charge{
		ID:           id,
		Amount:       req.AmountCents,
		Status:       client.ChargePending,
		BRCode:       "00020101021226" + id,
		BRCodeBase64: "data:image/png;base64,QR",
		ExpiresAt:    time.Now().Add(time.Duration(req.ExpiresIn) * time.Second),
	}, nil
}

func (g *fakeGateway) CheckStatus(_ context.Context, chargeID string) (*client.ChargeStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkCalls++
	if g.checkErr != nil {
		return nil, g.checkErr
	}
	status, ok := g.statuses[chargeID]
	if !ok {
		return nil, &client.ProviderError{StatusCode: 404, Message: "charge not found"}
	}
	return &client.ChargeStatus{Status: status, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (g *fakeGateway) setStatus(chargeID string, status client.ChargeStatusCode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[chargeID] = status
}

func (g *fakeGateway) createdCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.created)
}

type fakeNotifier struct {
	mu       sync.Mutex
	sales    []SaleNotification
	products []ProductPost
	err      error
}

func (n *fakeNotifier) SendPurchaseNotification(_ context.Context, sale SaleNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sales = append(n.sales, sale)
	return n.err
}

func (n *fakeNotifier) SendProductPostNotification(_ context.Context, post ProductPost) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.products = append(n.products, post)
	return n.err
}

func (n *fakeNotifier) saleCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sales)
}

type fakePresigner struct {
	err error
}

func (p fakePresigner) PresignGet(key string, expiration time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return fmt.Sprintf("https://storage.example.com/%s?expires=%d", key, int(expiration.Seconds())), nil
}

func (p fakePresigner) DownloadTTL() time.Duration {
	return 15 * time.Minute
}
