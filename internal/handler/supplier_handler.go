package handler

import (
	"net/http"
	"strconv"
	"time"

	"order-service/internal/model"
	"order-service/pkg/database"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SupplierRequest defines the structure for supplier creation/update requests
type SupplierRequest struct {
	Name          string `json:"name" validate:"required"`
	Document      string `json:"document" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	IsActive      bool   `json:"is_active"`
}

// ListSuppliers retrieves suppliers with optional active filtering
func ListSuppliers(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB()
	if isActive := c.QueryParam("is_active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("is_active = ?", active)
		}
	}

	var suppliers []model.Supplier
	if err := query.Order("id").Find(&suppliers).Error; err != nil {
		log.Error("Failed to list suppliers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}

	return c.JSON(http.StatusOK, suppliers)
}

// GetSupplier retrieves a single supplier by ID
func GetSupplier(c echo.Context) error {
	id := c.Param("id")

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	return c.JSON(http.StatusOK, supplier)
}

// CreateSupplier creates a new supplier
func CreateSupplier(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCatalogOperation("supplier", "create")

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	// Duplicate document check mirrors the unique index for a friendlier error
	var count int64
	database.GetDB().Model(&model.Supplier{}).Where("document = ?", req.Document).Count(&count)
	if count > 0 {
		log.Warn("Supplier with this document already exists", zap.String("document", req.Document))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Supplier with this document already exists",
		})
	}

	supplier := model.Supplier{
		Name:          req.Name,
		Document:      req.Document,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		IsActive:      req.IsActive,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&supplier).Error; err != nil {
		log.Error("Failed to create supplier", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create supplier",
		})
	}

	log.Info("Supplier created", zap.Uint("supplier_id", supplier.ID), zap.String("name", supplier.Name))
	return c.JSON(http.StatusCreated, supplier)
}

// UpdateSupplier updates an existing supplier
func UpdateSupplier(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("supplier", "update")

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	if req.Document != supplier.Document {
		var count int64
		database.GetDB().Model(&model.Supplier{}).Where("document = ? AND id != ?", req.Document, id).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Supplier with this document already exists",
			})
		}
	}

	supplier.Name = req.Name
	supplier.Document = req.Document
	supplier.ContactPerson = req.ContactPerson
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Address = req.Address
	supplier.IsActive = req.IsActive

	if err := database.GetDB().Save(&supplier).Error; err != nil {
		log.Error("Failed to update supplier", zap.String("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}

	return c.JSON(http.StatusOK, supplier)
}

// ToggleSupplierStatus flips the active flag of a supplier
func ToggleSupplierStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("supplier", "toggle_status")

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	supplier.IsActive = !supplier.IsActive
	if err := database.GetDB().Save(&supplier).Error; err != nil {
		log.Error("Failed to toggle supplier status", zap.String("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}

	log.Info("Supplier status toggled",
		zap.Uint("supplier_id", supplier.ID),
		zap.Bool("is_active", supplier.IsActive))
	return c.JSON(http.StatusOK, supplier)
}

// DeleteSupplier deletes a supplier (soft delete)
func DeleteSupplier(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("supplier", "delete")

	result := database.GetDB().Delete(&model.Supplier{}, id)
	if result.Error != nil {
		log.Error("Failed to delete supplier", zap.String("supplier_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete supplier",
		})
	}

	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Supplier deleted successfully",
	})
}
