// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/client"
	"github.com/conefivem/hub/internal/config"
	"github.com/conefivem/hub/internal/handlers"
	"github.com/conefivem/hub/internal/middleware"
	"github.com/conefivem/hub/internal/ratelimit"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

// Dependencies are the long-lived collaborators main builds from configuration.
type Dependencies struct {
	Limiter   ratelimit.Store
	Audit     *services.AuditService
	Gateway   client.PixGateway
	Notifier  services.SaleNotifier
	Directory services.DiscordDirectory
	Storage   *services.StorageService
	Encryptor *utils.Encryptor
}

func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) *gin.Engine {
	// Repositories
	purchaseRepo := repository.NewPurchaseRepository(db)
	productRepo := repository.NewProductRepository(db)
	licenseRepo := repository.NewLicenseRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	// Services
	licenseService := services.NewLicenseService(licenseRepo, productRepo, deps.Storage, deps.Audit)
	productService := services.NewProductService(productRepo, deps.Storage, deps.Audit, deps.Notifier)
	paymentService := services.NewPaymentService(db, services.PaymentDependencies{
		Gateway:   deps.Gateway,
		Limiter:   deps.Limiter,
		Purchases: purchaseRepo,
		Products:  productRepo,
		Profiles:  profileRepo,
		Licenses:  licenseService,
		Auditor:   deps.Audit,
		Notifier:  deps.Notifier,
		Encryptor: deps.Encryptor,
	}, cfg.Payment)
	adminService := services.NewAdminService(db, purchaseRepo, deps.Audit)
	discordService := services.NewDiscordService(deps.Directory, cfg.Discord.GuildID, cfg.Discord.ClientRole)

	// Handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	webhookHandler := handlers.NewWebhookHandler(paymentService)
	productHandler := handlers.NewProductHandler(productService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	adminHandler := handlers.NewAdminHandler(adminService)
	discordHandler := handlers.NewDiscordHandler(discordService)

	utils.SetJWTSecret(cfg.Session.JWTSecret)
	auth := middleware.NewSessionAuth(cfg.Session.CookieName, deps.Audit)

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logrus.WithError(err).Warn("Invalid trusted proxy list, trusting none")
		r.SetTrustedProxies(nil)
	}

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Frontend.BaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Total-Count", "X-Page", "X-Per-Page", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": "1.0.0",
		})
	})

	api := r.Group("/api")
	{
		// Payments. Create and check resolve the session themselves so anonymous
		// attempts are rate limited and audited.
		payments := api.Group("/payments")
		{
			payments.POST("/create-pix", auth.OptionalAuth(), paymentHandler.CreatePix)
			payments.GET("/check-status", auth.OptionalAuth(), paymentHandler.CheckStatus)
			payments.GET("/history", auth.AuthRequired(), paymentHandler.History)
		}

		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/abacate-pay", webhookHandler.AbacatePay)
		}

		// Product catalog: public reads, admin writes
		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)

			protected := products.Group("")
			protected.Use(auth.AuthRequired(), auth.AdminRequired())
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
				protected.POST("/:id/image", productHandler.UploadImage)
			}
		}

		licenses := api.Group("/licenses")
		{
			licenses.GET("/verify/:key",
				middleware.WindowRateLimit(deps.Limiter, "license-verify", ratelimit.Normal, deps.Audit),
				licenseHandler.Verify)

			protected := licenses.Group("")
			protected.Use(auth.AuthRequired())
			{
				protected.GET("/me", licenseHandler.GetMyLicenses)
				protected.GET("/:id/download", licenseHandler.Download)
			}
		}

		admin := api.Group("/admin")
		admin.Use(auth.AuthRequired(), auth.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.GET("/purchases", adminHandler.GetPurchases)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
			admin.GET("/licenses", licenseHandler.ListLicenses)
			admin.PUT("/licenses/:id/status", licenseHandler.UpdateStatus)
		}

		discord := api.Group("/discord")
		discord.Use(auth.AuthRequired(), auth.AdminRequired())
		{
			discord.GET("/members", discordHandler.GetMembers)
		}
	}

	// Local uploads when no bucket is configured
	if deps.Storage != nil && !deps.Storage.Enabled() {
		r.Static("/uploads", "./uploads")
	}

	return r
}
