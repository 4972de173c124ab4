package model

import (
	"time"

	"gorm.io/gorm"
)

// Supplier represents a purchase counterparty
type Supplier struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"type:varchar(100);index;not null"`
	Document      string         `json:"document" gorm:"type:varchar(50);uniqueIndex"`
	ContactPerson string         `json:"contact_person" gorm:"type:varchar(100)"`
	Email         string         `json:"email" gorm:"type:varchar(100)"`
	Phone         string         `json:"phone" gorm:"type:varchar(20)"`
	Address       string         `json:"address" gorm:"type:text"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Client represents a sale counterparty
type Client struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);index;not null"`
	Document  string         `json:"document" gorm:"type:varchar(50);uniqueIndex"`
	Email     string         `json:"email" gorm:"type:varchar(100)"`
	Phone     string         `json:"phone" gorm:"type:varchar(20)"`
	Address   string         `json:"address" gorm:"type:text"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
