// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/utils"
)

// AdminService backs the back-office listings and dashboard.
type AdminService struct {
	db        *gorm.DB
	purchases repository.PurchaseRepository
	audit     *AuditService
}

type AdminDashboardStats struct {
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	MonthlyRevenue     decimal.Decimal `json:"monthly_revenue"`
	RevenueGrowth      float64         `json:"revenue_growth"`
	CompletedPurchases int64           `json:"completed_purchases"`
	PendingPurchases   int64           `json:"pending_purchases"`
	FailedPurchases    int64           `json:"failed_purchases"`
	ActiveLicenses     int64           `json:"active_licenses"`
	TotalProducts      int64           `json:"total_products"`
	TotalCustomers     int64           `json:"total_customers"`
	CriticalEvents24h  int64           `json:"critical_events_24h"`
}

func NewAdminService(db *gorm.DB, purchases repository.PurchaseRepository, audit *AuditService) *AdminService {
	return &AdminService{
		db:        db,
		purchases: purchases,
		audit:     audit,
	}
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	db := s.db.WithContext(ctx)

	var err error
	if stats.TotalRevenue, err = s.revenue(db, time.Time{}, time.Time{}); err != nil {
		return nil, err
	}
	if stats.MonthlyRevenue, err = s.revenue(db, monthStart, time.Time{}); err != nil {
		return nil, err
	}
	lastMonthRevenue, err := s.revenue(db, lastMonthStart, monthStart)
	if err != nil {
		return nil, err
	}
	if lastMonthRevenue.IsPositive() {
		stats.RevenueGrowth = stats.MonthlyRevenue.Sub(lastMonthRevenue).
			Div(lastMonthRevenue).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.CompletedPurchases, db.Model(&models.Purchase{}).Where("status = ?", models.PurchaseStatusCompleted)},
		{&stats.PendingPurchases, db.Model(&models.Purchase{}).Where("status = ?", models.PurchaseStatusPending)},
		{&stats.FailedPurchases, db.Model(&models.Purchase{}).Where("status = ?", models.PurchaseStatusFailed)},
		{&stats.ActiveLicenses, db.Model(&models.License{}).Where("status = ?", models.LicenseStatusActive)},
		{&stats.TotalProducts, db.Model(&models.Product{})},
		{&stats.TotalCustomers, db.Model(&models.Purchase{}).Where("status = ?", models.PurchaseStatusCompleted).Distinct("user_id")},
		{&stats.CriticalEvents24h, db.Model(&models.AuditLog{}).Where("severity = ? AND created_at >= ?", models.SeverityCritical, now.Add(-24*time.Hour))},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
		}
	}

	return stats, nil
}

func (s *AdminService) revenue(db *gorm.DB, from, to time.Time) (decimal.Decimal, error) {
	query := db.Model(&models.Purchase{}).Where("status = ?", models.PurchaseStatusCompleted)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}

	var total decimal.NullDecimal
	if err := query.Select("SUM(amount)").Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (s *AdminService) ListPurchases(ctx context.Context, filter repository.PurchaseFilter, params utils.PaginationParams) ([]models.Purchase, int64, error) {
	return s.purchases.List(ctx, filter, params)
}

func (s *AdminService) ListAuditLogs(ctx context.Context, filter repository.AuditLogFilter, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	return s.audit.List(ctx, filter, params)
}
