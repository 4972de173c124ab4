package main

import (
	"net/http"

	"order-service/internal/catalog"
	"order-service/internal/draft"
	"order-service/internal/handler"
	mid "order-service/internal/middleware"
	"order-service/internal/model"
	"order-service/internal/orders"
	"order-service/pkg/config"
	"order-service/pkg/database"
	"order-service/pkg/jwtutil"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration (reads .env when present)
	appConfig, err := config.Load("order-service")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting order-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.MigrateModels(
		&model.Product{},
		&model.Presentation{},
		&model.Supplier{},
		&model.Client{},
		&model.Order{},
		&model.OrderLine{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Wire the draft engine over the catalog and order stores
	db := database.GetDB()
	manager := draft.NewManager(catalog.NewStore(db), orders.NewStore(db))
	draftHandler := handler.NewDraftHandler(manager)
	orderHandler := handler.NewOrderHandler(orders.NewStore(db))

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Catalog administration
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", handler.ListProducts)
	productAPI.GET("/:id", handler.GetProduct)
	productAPI.POST("", handler.CreateProduct)
	productAPI.PUT("/:id", handler.UpdateProduct)
	productAPI.DELETE("/:id", handler.DeleteProduct)

	presentationAPI := e.Group("/api/presentations", mid.AuthMiddleware)
	presentationAPI.GET("", handler.ListPresentations)
	presentationAPI.POST("", handler.CreatePresentation)
	presentationAPI.PUT("/:id", handler.UpdatePresentation)
	presentationAPI.DELETE("/:id", handler.DeletePresentation)

	supplierAPI := e.Group("/api/suppliers", mid.AuthMiddleware)
	supplierAPI.GET("", handler.ListSuppliers)
	supplierAPI.GET("/:id", handler.GetSupplier)
	supplierAPI.POST("", handler.CreateSupplier)
	supplierAPI.PUT("/:id", handler.UpdateSupplier)
	supplierAPI.PATCH("/:id/status", handler.ToggleSupplierStatus)
	supplierAPI.DELETE("/:id", handler.DeleteSupplier)

	clientAPI := e.Group("/api/clients", mid.AuthMiddleware)
	clientAPI.GET("", handler.ListClients)
	clientAPI.GET("/:id", handler.GetClient)
	clientAPI.POST("", handler.CreateClient)
	clientAPI.PUT("/:id", handler.UpdateClient)
	clientAPI.PATCH("/:id/status", handler.ToggleClientStatus)
	clientAPI.DELETE("/:id", handler.DeleteClient)

	// Draft composition engine
	draftAPI := e.Group("/api/drafts", mid.AuthMiddleware)
	draftAPI.POST("", draftHandler.Open)
	draftAPI.GET("/:id", draftHandler.Get)
	draftAPI.GET("/:id/catalog", draftHandler.Catalog)
	draftAPI.GET("/:id/catalog/presentations", draftHandler.CatalogPresentations)
	draftAPI.POST("/:id/lines", draftHandler.AddLine)
	draftAPI.PUT("/:id/lines/presentation", draftHandler.ChangePresentation)
	draftAPI.PUT("/:id/lines/quantity", draftHandler.UpdateQuantity)
	draftAPI.PUT("/:id/lines/price", draftHandler.UpdatePrice)
	draftAPI.DELETE("/:id/lines", draftHandler.RemoveLine)
	draftAPI.POST("/:id/submit", draftHandler.Submit)
	draftAPI.DELETE("/:id", draftHandler.Discard)

	// Submitted orders
	orderAPI := e.Group("/api/orders", mid.AuthMiddleware)
	orderAPI.GET("", orderHandler.List)
	orderAPI.GET("/:id", orderHandler.Get)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
