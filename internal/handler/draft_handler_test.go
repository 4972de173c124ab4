package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"order-service/internal/catalog"
	"order-service/internal/draft"
	"order-service/internal/model"
	"order-service/internal/orders"
	"order-service/pkg/config"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var metricsOnce sync.Once

// promauto registers into the default registry, so the test metrics are
// initialized exactly once for the package.
func initTestMetrics() {
	metricsOnce.Do(func() {
		prometheus.InitMetrics(&config.Config{
			Metrics: config.MetricsConfig{Prefix: "handler_test"},
		})
	})
}

func setupDraftHandler(t *testing.T) *DraftHandler {
	t.Helper()
	initTestMetrics()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Product{}, &model.Presentation{}, &model.Order{}, &model.OrderLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	product := model.Product{
		Name:           "Rice",
		Code:           "P-001",
		UnitPrice:      decimal.NewFromInt(250),
		StockBaseUnits: decimal.NewFromInt(10),
		IsActive:       true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	presentations := []model.Presentation{
		{ProductID: product.ID, Name: "Unit", Factor: decimal.NewFromInt(1), IsActive: true},
		{ProductID: product.ID, Name: "Box", Factor: decimal.NewFromInt(4), IsActive: true},
	}
	if err := db.Create(&presentations).Error; err != nil {
		t.Fatalf("seed presentations: %v", err)
	}

	manager := draft.NewManager(catalog.NewStore(db), orders.NewStore(db))
	return NewDraftHandler(manager)
}

func call(t *testing.T, h echo.HandlerFunc, method string, body any, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, "/", &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func openDraft(t *testing.T, h *DraftHandler, kind string) string {
	t.Helper()
	rec := call(t, h.Open, http.MethodPost, OpenDraftRequest{Kind: draft.Kind(kind)}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open draft: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("open draft: no id in %v", body)
	}
	return id
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	h := setupDraftHandler(t)

	rec := call(t, h.Open, http.MethodPost, OpenDraftRequest{Kind: "transfer"}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAddLineAndMerge(t *testing.T) {
	h := setupDraftHandler(t)
	id := openDraft(t, h, "sale")

	add := AddLineRequest{ProductID: 1, PresentationID: 2, Quantity: 1}
	rec := call(t, h.AddLine, http.MethodPost, add, map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: status %d body %s", rec.Code, rec.Body.String())
	}

	// Same key again merges into one line with quantity 2.
	rec = call(t, h.AddLine, http.MethodPost, add, map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("merge add: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	line := body["line"].(map[string]any)
	if line["quantity"].(float64) != 2 {
		t.Fatalf("expected merged quantity 2, got %v", line["quantity"])
	}
	// 2 boxes × factor 4 × 250.
	if body["total"].(string) != "2000" {
		t.Fatalf("expected total 2000, got %v", body["total"])
	}

	view := decode(t, call(t, h.Get, http.MethodGet, nil, map[string]string{"id": id}))
	if len(view["lines"].([]any)) != 1 {
		t.Fatalf("expected one merged line, got %v", view["lines"])
	}
}

func TestAddLineOverStockReturnsCeiling(t *testing.T) {
	h := setupDraftHandler(t)
	id := openDraft(t, h, "sale")

	// 3 boxes need 12 base units, stock holds 10. Ceiling is 2.
	rec := call(t, h.AddLine, http.MethodPost,
		AddLineRequest{ProductID: 1, PresentationID: 2, Quantity: 3},
		map[string]string{"id": id})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["max_quantity"].(float64) != 2 {
		t.Fatalf("expected max_quantity 2, got %v", body["max_quantity"])
	}
}

func TestChangePresentationReportsClamp(t *testing.T) {
	h := setupDraftHandler(t)
	id := openDraft(t, h, "sale")

	rec := call(t, h.AddLine, http.MethodPost,
		AddLineRequest{ProductID: 1, PresentationID: 1, Quantity: 10},
		map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: status %d body %s", rec.Code, rec.Body.String())
	}

	// Switching 10 units to boxes exceeds the box ceiling of 2.
	rec = call(t, h.ChangePresentation, http.MethodPut,
		ChangePresentationRequest{ProductID: 1, OldPresentationID: 1, NewPresentationID: 2},
		map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("change presentation: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["clamped"].(bool) != true {
		t.Fatalf("expected clamped=true, got %v", body["clamped"])
	}
	line := body["line"].(map[string]any)
	if line["quantity"].(float64) != 2 {
		t.Fatalf("expected clamped quantity 2, got %v", line["quantity"])
	}
}

func TestSubmitClearsDraftAndRefusesDuplicateNumber(t *testing.T) {
	h := setupDraftHandler(t)
	id := openDraft(t, h, "sale")

	rec := call(t, h.AddLine, http.MethodPost,
		AddLineRequest{ProductID: 1, PresentationID: 1, Quantity: 2},
		map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: status %d body %s", rec.Code, rec.Body.String())
	}

	header := map[string]any{
		"order_number":    "SO-100",
		"counterparty_id": 7,
		"effective_date":  "2025-03-14T00:00:00Z",
	}
	rec = call(t, h.Submit, http.MethodPost, header, map[string]string{"id": id})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["order_id"].(float64) == 0 {
		t.Fatalf("expected a persisted order id")
	}

	// The session is gone after a successful submission.
	rec = call(t, h.Get, http.MethodGet, nil, map[string]string{"id": id})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after submit, got %d", rec.Code)
	}

	// A fresh draft reusing the number is refused with a recoverable 409.
	id2 := openDraft(t, h, "sale")
	rec = call(t, h.AddLine, http.MethodPost,
		AddLineRequest{ProductID: 1, PresentationID: 1, Quantity: 1},
		map[string]string{"id": id2})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = call(t, h.Submit, http.MethodPost, header, map[string]string{"id": id2})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["kind"].(string) != "DUPLICATE_ORDER_NUMBER" {
		t.Fatalf("expected DUPLICATE_ORDER_NUMBER kind, got %s", rec.Body.String())
	}

	// The draft survives the rejection and can be resubmitted.
	rec = call(t, h.Get, http.MethodGet, nil, map[string]string{"id": id2})
	if rec.Code != http.StatusOK {
		t.Fatalf("draft must be preserved after duplicate rejection, got %d", rec.Code)
	}
}

func TestSubmitWithoutLinesIsRejected(t *testing.T) {
	h := setupDraftHandler(t)
	id := openDraft(t, h, "sale")

	header := map[string]any{
		"order_number":    "SO-200",
		"counterparty_id": 7,
		"effective_date":  "2025-03-14T00:00:00Z",
	}
	rec := call(t, h.Submit, http.MethodPost, header, map[string]string{"id": id})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCatalogEndpoints(t *testing.T) {
	h := setupDraftHandler(t)
	id := openDraft(t, h, "purchase")

	rec := call(t, h.Catalog, http.MethodGet, nil, map[string]string{"id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog: status %d", rec.Code)
	}
	if len(decode(t, rec)["products"].([]any)) != 1 {
		t.Fatalf("expected one product in catalog")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?product_id=1", nil)
	rec2 := httptest.NewRecorder()
	c := e.NewContext(req, rec2)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.CatalogPresentations(c); err != nil {
		t.Fatalf("presentations: %v", err)
	}
	if rec2.Code != http.StatusOK {
		t.Fatalf("presentations: status %d body %s", rec2.Code, rec2.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec2.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out["presentations"].([]any)) != 2 {
		t.Fatalf("expected two presentations, got %v", out["presentations"])
	}
}

func TestUnknownDraftIDIsNotFound(t *testing.T) {
	h := setupDraftHandler(t)

	rec := call(t, h.Get, http.MethodGet, nil, map[string]string{"id": "not-a-uuid"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = call(t, h.Discard, http.MethodDelete, nil,
		map[string]string{"id": "3f0b4f1e-0000-0000-0000-000000000000"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
