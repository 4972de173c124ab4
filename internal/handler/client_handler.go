package handler

import (
	"net/http"
	"strconv"

	"order-service/internal/model"
	"order-service/pkg/database"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClientRequest defines the structure for client creation/update requests
type ClientRequest struct {
	Name     string `json:"name" validate:"required"`
	Document string `json:"document" validate:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	IsActive bool   `json:"is_active"`
}

// ListClients retrieves clients with optional active filtering
func ListClients(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB()
	if isActive := c.QueryParam("is_active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("is_active = ?", active)
		}
	}

	var clients []model.Client
	if err := query.Order("id").Find(&clients).Error; err != nil {
		log.Error("Failed to list clients", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve clients",
		})
	}

	return c.JSON(http.StatusOK, clients)
}

// GetClient retrieves a single client by ID
func GetClient(c echo.Context) error {
	id := c.Param("id")

	var client model.Client
	if err := database.GetDB().First(&client, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Client not found",
		})
	}

	return c.JSON(http.StatusOK, client)
}

// CreateClient creates a new client
func CreateClient(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCatalogOperation("client", "create")

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var count int64
	database.GetDB().Model(&model.Client{}).Where("document = ?", req.Document).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Client with this document already exists",
		})
	}

	client := model.Client{
		Name:     req.Name,
		Document: req.Document,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		IsActive: req.IsActive,
	}

	if err := database.GetDB().Create(&client).Error; err != nil {
		log.Error("Failed to create client", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create client",
		})
	}

	log.Info("Client created", zap.Uint("client_id", client.ID), zap.String("name", client.Name))
	return c.JSON(http.StatusCreated, client)
}

// UpdateClient updates an existing client
func UpdateClient(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("client", "update")

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var client model.Client
	if err := database.GetDB().First(&client, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Client not found",
		})
	}

	if req.Document != client.Document {
		var count int64
		database.GetDB().Model(&model.Client{}).Where("document = ? AND id != ?", req.Document, id).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Client with this document already exists",
			})
		}
	}

	client.Name = req.Name
	client.Document = req.Document
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.IsActive = req.IsActive

	if err := database.GetDB().Save(&client).Error; err != nil {
		log.Error("Failed to update client", zap.String("client_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update client",
		})
	}

	return c.JSON(http.StatusOK, client)
}

// ToggleClientStatus flips the active flag of a client
func ToggleClientStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("client", "toggle_status")

	var client model.Client
	if err := database.GetDB().First(&client, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Client not found",
		})
	}

	client.IsActive = !client.IsActive
	if err := database.GetDB().Save(&client).Error; err != nil {
		log.Error("Failed to toggle client status", zap.String("client_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update client",
		})
	}

	return c.JSON(http.StatusOK, client)
}

// DeleteClient deletes a client (soft delete)
func DeleteClient(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	prometheus.RecordCatalogOperation("client", "delete")

	result := database.GetDB().Delete(&model.Client{}, id)
	if result.Error != nil {
		log.Error("Failed to delete client", zap.String("client_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete client",
		})
	}

	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Client not found",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Client deleted successfully",
	})
}
