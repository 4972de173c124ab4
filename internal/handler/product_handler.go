package handler

import (
	"net/http"
	"strconv"

	"order-service/internal/model"
	"order-service/pkg/database"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name           string          `json:"name" validate:"required"`
	Code           string          `json:"code" validate:"required"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"required"`
	StockBaseUnits decimal.Decimal `json:"stock_base_units"`
	IsActive       bool            `json:"is_active"`
}

// ListProducts handles retrieving all products with optional filtering
func ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)

	db := database.GetDB()
	var products []model.Product

	query := db

	isActive := c.QueryParam("is_active")
	if isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}

	result := query.Order("id").Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product by ID
func GetProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var product model.Product
	result := database.GetDB().First(&product, id)
	if result.Error != nil {
		log.Warn("Product not found", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles creating a new product
func CreateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCatalogOperation("product", "create")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.UnitPrice.Sign() <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "unit_price must be greater than zero",
		})
	}
	if req.StockBaseUnits.Sign() < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "stock_base_units must not be negative",
		})
	}

	// Check if product with this code already exists
	var count int64
	database.GetDB().Model(&model.Product{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		log.Warn("Product with this code already exists", zap.String("code", req.Code))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Product with this code already exists",
		})
	}

	product := model.Product{
		Name:           req.Name,
		Code:           req.Code,
		UnitPrice:      req.UnitPrice,
		StockBaseUnits: req.StockBaseUnits,
		IsActive:       req.IsActive,
	}

	result := database.GetDB().Create(&product)
	if result.Error != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.String("code", req.Code),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create product",
		})
	}

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.String("code", product.Code))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product
func UpdateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("product", "update")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var product model.Product
	result := database.GetDB().First(&product, id)
	if result.Error != nil {
		log.Warn("Product not found for update", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	if req.UnitPrice.Sign() <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "unit_price must be greater than zero",
		})
	}

	// Check if code is changed and if the new code already exists
	if req.Code != product.Code {
		var count int64
		database.GetDB().Model(&model.Product{}).Where("code = ? AND id != ?", req.Code, id).Count(&count)
		if count > 0 {
			log.Warn("Product with this code already exists", zap.String("code", req.Code))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Product with this code already exists",
			})
		}
	}

	product.Name = req.Name
	product.Code = req.Code
	product.UnitPrice = req.UnitPrice
	product.StockBaseUnits = req.StockBaseUnits
	product.IsActive = req.IsActive

	result = database.GetDB().Save(&product)
	if result.Error != nil {
		log.Error("Failed to update product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update product",
		})
	}

	log.Info("Product updated",
		zap.Uint("product_id", product.ID),
		zap.String("code", product.Code))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product (soft delete)
func DeleteProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("product", "delete")

	result := database.GetDB().Delete(&model.Product{}, id)
	if result.Error != nil {
		log.Error("Failed to delete product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete product",
		})
	}

	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	log.Info("Product deleted", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product deleted successfully",
	})
}
