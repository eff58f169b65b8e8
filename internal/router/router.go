package router

import (
	"database/sql"

	"bakery_backend/internal/handlers"
	"bakery_backend/internal/middleware"
	"bakery_backend/internal/repositories"
	"bakery_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	productRepo := repositories.NewProductRepository(db)
	productionRepo := repositories.NewProductionRepository(db)
	materialRepo := repositories.NewMaterialRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	// Initialize Services. Settings load first: inventory and production
	// consult the cached settings on every write.
	settingsService := services.NewSettingsService(settingsRepo, db)
	notifier := services.NewLogNotifier()

	authService := services.NewAuthService(authRepo, db)
	productService := services.NewProductService(productRepo, db)
	inventoryService := services.NewInventoryService(materialRepo, settingsService, notifier, db)
	productionService := services.NewProductionService(productionRepo, productRepo, inventoryService, settingsService, db)
	orderService := services.NewOrderService(orderRepo, productRepo, db)
	reportService := services.NewReportService(reportRepo, productRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	productionHandler := handlers.NewProductionHandler(productionService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	orderHandler := handlers.NewOrderHandler(orderService)
	reportHandler := handlers.NewReportHandler(reportService)
	settingHandler := handlers.NewSettingHandler(settingsService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupProductRoutes(authenticated, productHandler)
		SetupProductionRoutes(authenticated, productionHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupReportRoutes(authenticated, reportHandler)
		SetupSettingsRoutes(authenticated, settingHandler)
	}
}
