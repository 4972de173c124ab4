package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order represents a submitted purchase or sale order. Kind is "purchase"
// or "sale"; the order number must be unique within a kind.
type Order struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	Kind           string          `json:"kind" gorm:"type:varchar(10);not null;uniqueIndex:idx_orders_kind_number"`
	OrderNumber    string          `json:"order_number" gorm:"type:varchar(50);not null;uniqueIndex:idx_orders_kind_number"`
	CounterpartyID uint            `json:"counterparty_id" gorm:"index;not null"`
	EffectiveDate  time.Time       `json:"effective_date" gorm:"not null"`
	Total          decimal.Decimal `json:"total" gorm:"type:numeric(16,4);not null"`
	Lines          []OrderLine     `json:"lines" gorm:"foreignKey:OrderID"`
	CreatedBy      uint            `json:"created_by" gorm:"index"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// OrderLine is one (product, presentation) entry of a submitted order.
// Quantity is expressed in presentation units; UnitPrice is per presentation
// unit for purchases and per base unit for sales.
type OrderLine struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	OrderID        uint            `json:"order_id" gorm:"index;not null"`
	ProductID      uint            `json:"product_id" gorm:"index;not null"`
	PresentationID uint            `json:"presentation_id" gorm:"not null"`
	Quantity       int             `json:"quantity" gorm:"not null"`
	UnitPrice      decimal.Decimal `json:"unit_price" gorm:"type:numeric(14,4);not null"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:numeric(16,4);not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
