// internal/services/notification_service.go
package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/conefivem/hub/internal/client"
	"github.com/conefivem/hub/internal/utils"
)

const (
	embedColor         = 0x00ff9c
	purchaseFooterText = "ConeFiveM Hub - Pagamento via Abacate Pay"
	productFooterText  = "ConeFiveM Hub"
)

// SaleNotifier announces sales and new catalog items. Failures are for logging only.
type SaleNotifier interface {
	SendPurchaseNotification(ctx context.Context, sale SaleNotification) error
	SendProductPostNotification(ctx context.Context, post ProductPost) error
}

type SaleNotification struct {
	PurchaseID   string
	ProductName  string
	Price        decimal.Decimal
	UserName     string
	UserEmail    string
	IPAddress    string
	PurchaseDate time.Time
}

type ProductPost struct {
	Name     string
	Price    decimal.Decimal
	Category string
	Tags     []string
}

type NotificationService struct {
	webhook  *client.DiscordWebhook
	location *time.Location
	now      func() time.Time
}

func NewNotificationService(webhook *client.DiscordWebhook) *NotificationService {
	location, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		location = time.FixedZone("BRT", -3*60*60)
	}
	return &NotificationService{
		webhook:  webhook,
		location: location,
		now:      time.Now,
	}
}

func (s *NotificationService) SendPurchaseNotification(ctx context.Context, sale SaleNotification) error {
	if !s.webhook.Configured() {
		logrus.Warn("Discord webhook URL not configured, skipping purchase notification")
		return nil
	}

	embed := client.Embed{
		Title: "🎉 Nova Compra Realizada!",
		Color: embedColor,
		Fields: []client.EmbedField{
			{Name: "Produto", Value: orDefault(sale.ProductName, "Produto"), Inline: true},
			{Name: "Valor", Value: utils.FormatBRL(sale.Price), Inline: true},
			{Name: "Cliente", Value: orDefault(sale.UserName, "Cliente"), Inline: true},
			{Name: "Email", Value: orDefault(sale.UserEmail, "N/A"), Inline: true},
			{Name: "IP", Value: orDefault(sale.IPAddress, "N/A"), Inline: true},
			{Name: "Data", Value: sale.PurchaseDate.In(s.location).Format("02/01/2006 15:04:05"), Inline: true},
			{Name: "ID da Compra", Value: sale.PurchaseID, Inline: false},
		},
		Footer:    &client.EmbedFooter{Text: purchaseFooterText},
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}

	if err := s.webhook.Send(ctx, embed); err != nil {
		return err
	}
	logrus.WithField("purchase_id", sale.PurchaseID).Info("Discord purchase notification sent")
	return nil
}

func (s *NotificationService) SendProductPostNotification(ctx context.Context, post ProductPost) error {
	if !s.webhook.Configured() {
		logrus.Warn("Discord webhook URL not configured, skipping product notification")
		return nil
	}

	fields := []client.EmbedField{
		{Name: "Nome", Value: post.Name, Inline: true},
		{Name: "Preço", Value: utils.FormatBRL(post.Price), Inline: true},
		{Name: "Categoria", Value: post.Category, Inline: true},
	}
	if len(post.Tags) > 0 {
		fields = append(fields, client.EmbedField{Name: "Tags", Value: strings.Join(post.Tags, ", ")})
	}

	return s.webhook.Send(ctx, client.Embed{
		Title:     "📦 Novo Produto Adicionado!",
		Color:     embedColor,
		Fields:    fields,
		Footer:    &client.EmbedFooter{Text: productFooterText},
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
