package catalog

import (
	"context"
	"fmt"
	"testing"

	"order-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Product{}, &model.Presentation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestStoreLoadSkipsInactiveRows(t *testing.T) {
	db := setupCatalogTestDB(t)

	products := []model.Product{
		{Name: "Rice", Code: "P-001", UnitPrice: decimal.NewFromInt(250), StockBaseUnits: decimal.NewFromInt(10), IsActive: true},
		{Name: "Retired", Code: "P-002", UnitPrice: decimal.NewFromInt(90), StockBaseUnits: decimal.NewFromInt(5), IsActive: false},
	}
	if err := db.Create(&products).Error; err != nil {
		t.Fatalf("seed products: %v", err)
	}
	presentations := []model.Presentation{
		{ProductID: products[0].ID, Name: "Unit", Factor: decimal.NewFromInt(1), IsActive: true},
		{ProductID: products[0].ID, Name: "Box", Factor: decimal.NewFromInt(4), IsActive: true},
		{ProductID: products[0].ID, Name: "Old pack", Factor: decimal.NewFromInt(6), IsActive: false},
	}
	if err := db.Create(&presentations).Error; err != nil {
		t.Fatalf("seed presentations: %v", err)
	}

	snap, err := NewStore(db).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	listed := snap.Products()
	if len(listed) != 1 || listed[0].Name != "Rice" {
		t.Fatalf("expected only the active product, got %+v", listed)
	}
	if !listed[0].StockBaseUnits.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected stock 10, got %s", listed[0].StockBaseUnits)
	}

	forRice := snap.PresentationsFor(products[0].ID)
	if len(forRice) != 2 {
		t.Fatalf("expected two active presentations, got %d", len(forRice))
	}
	if forRice[0].Name != "Unit" || forRice[1].Name != "Box" {
		t.Fatalf("expected catalog order Unit, Box; got %+v", forRice)
	}

	if _, ok := snap.Product(products[1].ID); ok {
		t.Fatalf("inactive product must not be addressable")
	}
}
