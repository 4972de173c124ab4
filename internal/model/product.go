package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents the product master data. Stock is always tracked in
// base units; per-presentation stock does not exist.
type Product struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	Name           string          `json:"name" gorm:"type:varchar(255);not null"`
	Code           string          `json:"code" gorm:"type:varchar(100);unique;not null"`
	UnitPrice      decimal.Decimal `json:"unit_price" gorm:"type:numeric(14,4);not null"`
	StockBaseUnits decimal.Decimal `json:"stock_base_units" gorm:"type:numeric(14,4);default:0"`
	IsActive       bool            `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// Presentation represents a unit-of-measure variant of a product. Factor is
// the number of base units contained in one presentation unit and must be
// positive.
type Presentation struct {
	ID        uint            `json:"id" gorm:"primarykey"`
	ProductID uint            `json:"product_id" gorm:"index;not null"`
	Name      string          `json:"name" gorm:"type:varchar(100);not null"`
	Factor    decimal.Decimal `json:"factor" gorm:"type:numeric(12,4);not null"`
	IsActive  bool            `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}
