package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`

	// Relasi
	Category  *Category          `json:"category,omitempty"`
	Images    []ProductImage     `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Inventory []InventoryVariant `gorm:"constraint:OnDelete:CASCADE" json:"inventory,omitempty"`
}

// ProductImage points at a stored or external picture of a product.
// At most one image per product is expected to be primary; this is a UX rule, not a constraint.
type ProductImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	ImageURL  string `gorm:"type:varchar(255);not null" json:"url"`
	IsPrimary bool   `gorm:"default:false" json:"is_primary"`
}

func (ProductImage) TableName() string {
	return "product_images"
}
