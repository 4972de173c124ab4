package handler

import (
	"errors"
	"net/http"

	"order-service/internal/draft"
	"order-service/internal/orders"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DraftHandler exposes the order-draft composition engine over HTTP. The
// engine itself is transport-agnostic; this handler only binds requests,
// maps engine errors to statuses and records metrics.
type DraftHandler struct {
	manager *draft.Manager
}

// NewDraftHandler creates the handler over a session manager.
func NewDraftHandler(manager *draft.Manager) *DraftHandler {
	return &DraftHandler{manager: manager}
}

// OpenDraftRequest selects the draft kind for a new session
type OpenDraftRequest struct {
	Kind draft.Kind `json:"kind"`
}

// LineKeyRequest identifies one line by its composite key
type LineKeyRequest struct {
	ProductID      uint `json:"product_id"`
	PresentationID uint `json:"presentation_id"`
}

// AddLineRequest carries a product+presentation+quantity pick
type AddLineRequest struct {
	ProductID      uint            `json:"product_id"`
	PresentationID uint            `json:"presentation_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// ChangePresentationRequest re-keys a line to another presentation
type ChangePresentationRequest struct {
	ProductID         uint `json:"product_id"`
	OldPresentationID uint `json:"old_presentation_id"`
	NewPresentationID uint `json:"new_presentation_id"`
}

// UpdateQuantityRequest commits an operator-entered quantity
type UpdateQuantityRequest struct {
	ProductID      uint `json:"product_id"`
	PresentationID uint `json:"presentation_id"`
	Quantity       int  `json:"quantity"`
}

// UpdatePriceRequest changes a purchase line's unit price
type UpdatePriceRequest struct {
	ProductID      uint            `json:"product_id"`
	PresentationID uint            `json:"presentation_id"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// Open starts a new draft session
func (h *DraftHandler) Open(c echo.Context) error {
	log := logger.FromEcho(c)

	var req OpenDraftRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	session, err := h.manager.Open(c.Request().Context(), req.Kind)
	if err != nil {
		return h.engineError(c, err)
	}

	prometheus.RecordDraftOpened(string(req.Kind))
	prometheus.OpenDraftsGauge.Inc()
	log.Info("Draft opened",
		zap.String("draft_id", session.ID.String()),
		zap.String("kind", string(session.Kind)))
	return c.JSON(http.StatusCreated, session.View())
}

// Get returns the current lines and total of a draft
func (h *DraftHandler) Get(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return h.engineError(c, err)
	}
	return c.JSON(http.StatusOK, session.View())
}

// Catalog returns the session's cached product snapshot for the picker
func (h *DraftHandler) Catalog(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return h.engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"products": session.Snapshot().Products(),
	})
}

// CatalogPresentations returns the presentations of one product from the
// session snapshot, in catalog order
func (h *DraftHandler) CatalogPresentations(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return h.engineError(c, err)
	}

	var productID uint
	if err := echo.QueryParamsBinder(c).Uint("product_id", &productID).BindError(); err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"presentations": session.Snapshot().PresentationsFor(productID),
	})
}

// AddLine adds a pick to the draft, merging into an existing line when the
// (product, presentation) pair is already present
func (h *DraftHandler) AddLine(c echo.Context) error {
	log := logger.FromEcho(c)
	session, err := h.session(c)
	if err != nil {
		return h.engineError(c, err)
	}

	var req AddLineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	view, merged, err := session.AddLine(req.ProductID, req.PresentationID, req.Quantity, req.UnitPrice)
	if err != nil {
		return h.engineError(c, err)
	}

	if merged {
		prometheus.DraftLineMergesCounter.Inc()
	}
	log.Info("Draft line added",
		zap.String("draft_id", session.ID.String()),
		zap.Uint("product_id", req.ProductID),
		zap.Uint("presentation_id", req.PresentationID),
		zap.Int("quantity", view.Quantity),
		zap.Bool("merged", merged))
	return c.JSON(http.StatusOK, echo.Map{"line": view, "total": session.View().Total})
}

// ChangePresentation re-keys a line to a new presentation, clamping the
// quantity when the new stock ceiling is lower
func (h *DraftHandler) ChangePresentation(c echo.Context) error {
	log := logger.FromEcho(c)
	session, err := h.session(c)
	if err != nil {
		return h.engineError(c, err)
	}

	var req ChangePresentationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	view, clamped, err := session.ChangePresentation(req.ProductID, req.OldPresentationID, req.NewPresentationID)
	if err != nil {
		return h.engineError(c, err)
	}

	if clamped {
		prometheus.QuantityClampsCounter.Inc()
		log.Info("Quantity clamped to new presentation ceiling",
			zap.String("draft_id", session.ID.String()),
			zap.Uint("product_id", req.ProductID),
			zap.Int("quantity", view.Quantity))
	}
	return c.JSON(http.StatusOK, echo.Map{"line": view, "clamped": clamped, "total": session.View().Total})
}

// UpdateQuantity commits an operator-entered quantity for a line
func (h *DraftHandler) UpdateQuantity(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return h.engineError(c, err)
	}

	var req UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	view, err := session.UpdateQuantity(req.ProductID, req.PresentationID, req.Quantity)
	if err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"line": view, "total": session.View().Total})
}

// UpdatePrice changes the unit price of a purchase line
func (h *DraftHandler) UpdatePrice(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return h.engineError(c, err)
	}

	var req UpdatePriceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	view, err := session.UpdatePrice(req.ProductID, req.PresentationID, req.UnitPrice)
	if err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"line": view, "total": session.View().Total})
}

// RemoveLine deletes one line, identified by its composite key
func (h *DraftHandler) RemoveLine(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return h.engineError(c, err)
	}

	var req LineKeyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := session.RemoveLine(req.ProductID, req.PresentationID); err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(http.StatusOK, session.View())
}

// Submit builds the submission payload and sends it to the order store
func (h *DraftHandler) Submit(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Draft not found"})
	}

	session, err := h.manager.Get(id)
	if err != nil {
		return h.engineError(c, err)
	}
	kind := string(session.Kind)

	var header draft.Header
	if err := c.Bind(&header); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	result, err := h.manager.Submit(c.Request().Context(), id, header)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrDuplicateOrderNumber):
			prometheus.RecordSubmission(kind, "duplicate_order_number")
			log.Warn("Duplicate order number on submit",
				zap.String("draft_id", id.String()),
				zap.String("order_number", header.OrderNumber))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "An order with this number already exists",
				"kind":  "DUPLICATE_ORDER_NUMBER",
			})
		default:
			prometheus.RecordSubmission(kind, "failed")
			return h.engineError(c, err)
		}
	}

	prometheus.RecordSubmission(kind, "success")
	prometheus.OpenDraftsGauge.Dec()
	log.Info("Draft submitted",
		zap.String("draft_id", id.String()),
		zap.String("kind", kind),
		zap.Uint("order_id", result.OrderID))
	return c.JSON(http.StatusCreated, result)
}

// Discard cancels a draft session, dropping its in-memory state
func (h *DraftHandler) Discard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Draft not found"})
	}

	if err := h.manager.Discard(id); err != nil {
		return h.engineError(c, err)
	}

	prometheus.OpenDraftsGauge.Dec()
	return c.JSON(http.StatusOK, echo.Map{"message": "Draft discarded"})
}

func (h *DraftHandler) session(c echo.Context) (*draft.Session, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, draft.ErrDraftNotFound
	}
	return h.manager.Get(id)
}

// engineError maps engine and store errors to HTTP responses. Validation
// failures stay field-scoped and recoverable; only transport-level failures
// surface as 5xx.
func (h *DraftHandler) engineError(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	var verr *draft.ValidationError
	if errors.As(err, &verr) {
		body := echo.Map{"error": verr.Message, "field": verr.Field}
		if verr.Max > 0 {
			body["max_quantity"] = verr.Max
		}
		return c.JSON(http.StatusUnprocessableEntity, body)
	}

	var serr *orders.StockError
	if errors.As(err, &serr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": serr.Error(),
			"field": "quantity",
		})
	}

	switch {
	case errors.Is(err, draft.ErrDraftNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Draft not found"})
	case errors.Is(err, draft.ErrLineNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Draft line not found"})
	case errors.Is(err, draft.ErrSubmitInFlight):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Submission already in progress"})
	}

	log.Error("Draft operation failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal error"})
}
