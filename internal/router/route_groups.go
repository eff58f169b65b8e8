package router

import (
	"bakery_backend/internal/handlers"
	"bakery_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes. Registration is an
// Admin-only operation; login and refresh stay public.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.LoginUser)
		authRoutes.POST("/refresh-token", authHandler.RefreshToken)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.POST("/register", middleware.RoleAuthMiddleware("Admin"), authHandler.RegisterUser)
			authRequiredRoutes.POST("/logout", authHandler.LogoutUser)
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupProductRoutes sets up the catalog product routes.
// Deleting a product is Admin only.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		productRoutes.POST("", productHandler.CreateProduct)
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/:id", productHandler.GetProduct)
		productRoutes.PATCH("/:id", productHandler.UpdateProduct)
		productRoutes.GET("/:id/stock", productHandler.GetProductStock)
	}

	authenticatedGroup.DELETE("/products/:id", middleware.RoleAuthMiddleware("Admin"), productHandler.DeleteProduct)
}

// SetupProductionRoutes sets up the production entry and cold storage routes.
func SetupProductionRoutes(authenticatedGroup *gin.RouterGroup, productionHandler *handlers.ProductionHandler) {
	productionRoutes := authenticatedGroup.Group("/production")
	productionRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		productionRoutes.POST("/entries", productionHandler.SaveEntries)
		productionRoutes.GET("/latest-summary", productionHandler.LatestSummary)
		productionRoutes.GET("/log", productionHandler.GetLog)
		productionRoutes.GET("/cold-storage", productionHandler.ListColdStorage)
		productionRoutes.POST("/cold-storage/cook", productionHandler.CookColdStorage)
		productionRoutes.POST("/cold-storage/waste", productionHandler.WasteColdStorage)
	}
}

// SetupInventoryRoutes sets up the raw-material inventory routes.
// Deleting a material is Admin only.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	materialRoutes := authenticatedGroup.Group("/materials")
	materialRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		materialRoutes.POST("", inventoryHandler.CreateMaterial)
		materialRoutes.GET("", inventoryHandler.GetMaterials)
		materialRoutes.GET("/:id", inventoryHandler.GetMaterial)
		materialRoutes.PATCH("/:id", inventoryHandler.UpdateMaterial)
	}

	authenticatedGroup.DELETE("/materials/:id", middleware.RoleAuthMiddleware("Admin"), inventoryHandler.DeleteMaterial)

	authenticatedGroup.GET("/inventory/alerts", middleware.RoleAuthMiddleware("Admin", "Staff"), inventoryHandler.GetLowStockMaterials)

	transactionRoutes := authenticatedGroup.Group("/material-transactions")
	transactionRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		transactionRoutes.POST("", inventoryHandler.CreateTransaction)
		transactionRoutes.GET("", inventoryHandler.GetTransactions)
		transactionRoutes.GET("/export", inventoryHandler.ExportTransactions)
	}
}

// SetupOrderRoutes sets up the sales order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrder)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		reportRoutes.GET("/production", reportHandler.GetProductionReport)
		reportRoutes.GET("/production/export", reportHandler.ExportProductionReport)
		reportRoutes.GET("/inventory/summary", reportHandler.GetInventorySummary)
		reportRoutes.GET("/inventory/purchases", reportHandler.GetMaterialPurchases)
		reportRoutes.GET("/inventory/usage", reportHandler.GetMaterialUsage)
	}
}

// SetupSettingsRoutes sets up the application settings routes.
// Reading is open to staff; updating is Admin only.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingsRoutes := authenticatedGroup.Group("/settings")
	{
		settingsRoutes.GET("", middleware.RoleAuthMiddleware("Admin", "Staff"), settingHandler.GetSettings)
		settingsRoutes.PUT("", middleware.RoleAuthMiddleware("Admin"), settingHandler.UpdateSettings)
	}
}
