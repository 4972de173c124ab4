package handler

import (
	"net/http"

	"order-service/internal/model"
	"order-service/pkg/database"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PresentationRequest defines the structure for presentation creation/update requests
type PresentationRequest struct {
	ProductID uint            `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Factor    decimal.Decimal `json:"factor" validate:"required"`
	IsActive  bool            `json:"is_active"`
}

// ListPresentations retrieves presentations, optionally scoped to one product
func ListPresentations(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB()
	if productID := c.QueryParam("product_id"); productID != "" {
		query = query.Where("product_id = ?", productID)
	}

	var presentations []model.Presentation
	if err := query.Order("id").Find(&presentations).Error; err != nil {
		log.Error("Failed to list presentations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve presentations",
		})
	}

	return c.JSON(http.StatusOK, presentations)
}

// CreatePresentation creates a unit-of-measure variant for a product
func CreatePresentation(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCatalogOperation("presentation", "create")

	var req PresentationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	// Conversion factor must be positive: it is the number of base units in
	// one presentation unit.
	if req.Factor.Sign() <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "factor must be greater than zero",
		})
	}

	var product model.Product
	if err := database.GetDB().First(&product, req.ProductID).Error; err != nil {
		log.Warn("Product not found for presentation", zap.Uint("product_id", req.ProductID))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	presentation := model.Presentation{
		ProductID: req.ProductID,
		Name:      req.Name,
		Factor:    req.Factor,
		IsActive:  req.IsActive,
	}

	if err := database.GetDB().Create(&presentation).Error; err != nil {
		log.Error("Failed to create presentation",
			zap.Uint("product_id", req.ProductID),
			zap.String("name", req.Name),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create presentation",
		})
	}

	log.Info("Presentation created",
		zap.Uint("presentation_id", presentation.ID),
		zap.Uint("product_id", presentation.ProductID),
		zap.String("name", presentation.Name))
	return c.JSON(http.StatusCreated, presentation)
}

// UpdatePresentation updates an existing presentation
func UpdatePresentation(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("presentation", "update")

	var req PresentationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("presentation_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Factor.Sign() <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "factor must be greater than zero",
		})
	}

	var presentation model.Presentation
	if err := database.GetDB().First(&presentation, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Presentation not found",
		})
	}

	presentation.Name = req.Name
	presentation.Factor = req.Factor
	presentation.IsActive = req.IsActive

	if err := database.GetDB().Save(&presentation).Error; err != nil {
		log.Error("Failed to update presentation", zap.String("presentation_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update presentation",
		})
	}

	return c.JSON(http.StatusOK, presentation)
}

// DeletePresentation deletes a presentation (soft delete)
func DeletePresentation(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("presentation", "delete")

	result := database.GetDB().Delete(&model.Presentation{}, id)
	if result.Error != nil {
		log.Error("Failed to delete presentation", zap.String("presentation_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete presentation",
		})
	}

	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Presentation not found",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Presentation deleted successfully",
	})
}
