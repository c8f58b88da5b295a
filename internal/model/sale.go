package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is created fresh for every sale; repeat buyers are not merged.
type Customer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Email        string    `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Phone        string    `gorm:"type:varchar(50)" json:"phone"`
	City         string    `gorm:"type:varchar(100);not null" json:"city" validate:"required"`
	Neighborhood string    `gorm:"type:varchar(100);not null" json:"neighborhood" validate:"required"`
	Street       string    `gorm:"type:varchar(255);not null" json:"street" validate:"required"`
	Building     string    `gorm:"type:varchar(100);not null" json:"building" validate:"required"`
	Floor        int       `gorm:"not null" json:"floor" validate:"gte=0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sale is an immutable ledger line. The catalog names are copied at creation time so the
// archival report can still describe the line after its variant or product was cascaded away.
type Sale struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  uint            `gorm:"not null;index" json:"customer_id"`
	InventoryID *uint           `gorm:"index" json:"inventory_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`

	// Snapshot
	ProductName   string `gorm:"type:varchar(255)" json:"product_name"`
	CategoryName  string `gorm:"type:varchar(100)" json:"category_name"`
	ColorName     string `gorm:"type:varchar(50)" json:"color_name"`
	AgeRangeLabel string `gorm:"type:varchar(50)" json:"age_range"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Customer *Customer `json:"customer,omitempty"`
}
