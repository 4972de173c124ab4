package handler

import (
	"errors"
	"net/http"
	"strconv"

	"order-service/internal/orders"
	"order-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderHandler serves submitted orders, read-only
type OrderHandler struct {
	store *orders.Store
}

// NewOrderHandler creates the handler over an order store
func NewOrderHandler(store *orders.Store) *OrderHandler {
	return &OrderHandler{store: store}
}

// List retrieves submitted orders, optionally filtered by kind
func (h *OrderHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	kind := c.QueryParam("kind")
	if kind != "" && kind != "purchase" && kind != "sale" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be purchase or sale"})
	}

	out, err := h.store.List(c.Request().Context(), kind)
	if err != nil {
		log.Error("Failed to list orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, out)
}

// Get retrieves one submitted order with its lines
func (h *OrderHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	order, err := h.store.Get(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		log.Error("Failed to get order", zap.Uint64("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve order"})
	}

	return c.JSON(http.StatusOK, order)
}
