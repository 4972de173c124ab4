package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"order-service/internal/draft"
	"order-service/internal/model"
	"order-service/internal/orders"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrderHandler(t *testing.T) *OrderHandler {
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
		StockBaseUnits: decimal.NewFromInt(100),
		IsActive:       true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	presentation := model.Presentation{ProductID: product.ID, Name: "Unit", Factor: decimal.NewFromInt(1), IsActive: true}
	if err := db.Create(&presentation).Error; err != nil {
		t.Fatalf("seed presentation: %v", err)
	}

	store := orders.NewStore(db)
	payload := draft.Payload{
		Kind:           draft.Sale,
		OrderNumber:    "SO-1",
		CounterpartyID: 7,
		EffectiveDate:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Lines: []draft.PayloadLine{
			{ProductID: product.ID, PresentationID: presentation.ID, Quantity: 2},
		},
	}
	if _, err := store.Submit(context.Background(), payload); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return NewOrderHandler(store)
}

func TestOrderListRejectsUnknownKind(t *testing.T) {
	h := setupOrderHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?kind=transfer", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOrderListAndGet(t *testing.T) {
	h := setupOrderHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?kind=sale", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", rec.Code, rec.Body.String())
	}
	var listed []model.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].OrderNumber != "SO-1" {
		t.Fatalf("unexpected listing: %+v", listed)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(listed[0].ID))
	if err := h.Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d body %s", rec.Code, rec.Body.String())
	}
	var got model.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("expected preloaded lines, got %+v", got)
	}
}

func TestOrderGetNotFound(t *testing.T) {
	h := setupOrderHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("9999")
	if err := h.Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
