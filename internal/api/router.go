package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"asset-inventory-backend/config"
	"asset-inventory-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.Default()
	if cfg.Server.RequestIPHeader != "" {
		// Behind a reverse proxy the client IP for rate limiting comes
		// from this header.
		r.TrustedPlatform = cfg.Server.RequestIPHeader
	}

	handler := NewHandler(deps)

	if len(cfg.Server.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		r.Use(cors.New(corsCfg))
	}

	r.GET("/healthz", func(c *gin.Context) {
		ok(c, gin.H{"status": "up"})
	})

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	authed := mw.RequireAuth(deps.Sessions)
	manager := mw.RequireManager()
	admin := mw.RequireAdmin()

	api := r.Group("/api/v1")
	api.Use(rateLimiter)
	{
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/logout", authed, handler.Logout)
		api.GET("/auth/me", authed, handler.Me)

		api.GET("/categories", authed, handler.ListCategories)
		api.GET("/categories/:id", authed, handler.GetCategory)
		api.POST("/categories", authed, manager, handler.CreateCategory)
		api.PUT("/categories/:id", authed, manager, handler.UpdateCategory)

		api.GET("/items", authed, handler.ListItems)
		api.GET("/items/export", authed, manager, handler.ExportItems)
		api.GET("/items/by-number/:number", authed, handler.GetItemByNumber)
		api.GET("/items/:id", authed, handler.GetItem)
		api.GET("/items/:id/qr", authed, handler.ItemQR)
		api.POST("/items", authed, manager, handler.CreateItem)
		api.PUT("/items/:id", authed, manager, handler.UpdateItem)
		api.DELETE("/items/:id", authed, manager, handler.DecommissionItem)
		api.POST("/items/bulk-status", authed, manager, handler.BulkUpdateStatus)
		api.POST("/items/scan", authed, handler.ScanQR)

		api.POST("/transactions/checkout", authed, handler.Checkout)
		api.GET("/transactions", authed, handler.ListTransactions)
		api.GET("/transactions/:id", authed, handler.GetTransaction)
		api.POST("/transactions/:id/return", authed, handler.Return)
		api.POST("/transactions/:id/extend", authed, handler.Extend)
		api.POST("/transactions/:id/cancel", authed, handler.Cancel)
		api.POST("/transactions/:id/fee-paid", authed, manager, handler.MarkFeePaid)

		api.POST("/maintenance", authed, handler.CreateMaintenance)
		api.GET("/maintenance", authed, handler.ListMaintenance)
		api.GET("/maintenance/:id", authed, handler.GetMaintenance)
		api.POST("/maintenance/:id/assign", authed, manager, handler.AssignMaintenance)
		api.POST("/maintenance/:id/complete", authed, handler.CompleteMaintenance)
		api.POST("/maintenance/:id/cancel", authed, handler.CancelMaintenance)

		api.POST("/purchases", authed, handler.CreatePurchase)
		api.GET("/purchases", authed, handler.ListPurchases)
		api.GET("/purchases/:id", authed, handler.GetPurchase)
		api.POST("/purchases/:id/approve", authed, manager, handler.ApprovePurchase)
		api.POST("/purchases/:id/reject", authed, manager, handler.RejectPurchase)
		api.POST("/purchases/:id/ordered", authed, manager, handler.MarkPurchaseOrdered)
		api.POST("/purchases/:id/received", authed, manager, handler.MarkPurchaseReceived)
		api.POST("/purchases/:id/cancel", authed, handler.CancelPurchase)

		reports := api.Group("/reports", authed, manager)
		{
			reports.GET("/inventory-summary", caching, handler.InventorySummary)
			reports.GET("/overdue", handler.OverdueReport)
			reports.GET("/maintenance-backlog", caching, handler.MaintenanceBacklog)
			reports.GET("/purchase-pipeline", caching, handler.PurchasePipeline)
			reports.GET("/chatbot-analytics", caching, handler.ChatbotAnalytics)
		}

		api.POST("/chatbot/ask", authed, handler.Ask)
		api.POST("/chatbot/jobs", authed, handler.EnqueueAsk)
		api.GET("/chatbot/jobs/:id", authed, handler.GetAskJob)
		api.POST("/chatbot/fallbacks", authed, manager, handler.CreateFallback)

		api.GET("/subscriptions", authed, handler.ListSubscriptions)
		api.PUT("/subscriptions", authed, handler.PutSubscription)
		api.DELETE("/subscriptions", authed, handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		backups := api.Group("/backups", authed, admin)
		{
			backups.POST("", handler.CreateBackup)
			backups.GET("", handler.ListBackups)
			backups.POST("/restore", handler.RestoreBackup)
			backups.GET("/:name/download", handler.DownloadBackup)
		}
	}

	return r
}
