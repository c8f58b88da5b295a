package model

import "time"

// InventoryVariant is the stock row for one (product, color, age range) combination.
// Quantity is always positive: a row that reaches zero is deleted in the same transaction.
type InventoryVariant struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_variant_key" json:"product_id"`
	ColorID    uint      `gorm:"not null;uniqueIndex:idx_variant_key" json:"color_id"`
	AgeRangeID *uint     `gorm:"uniqueIndex:idx_variant_key" json:"age_range_id"`
	Quantity   int       `gorm:"not null;default:0" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Product  *Product  `json:"-"`
	Color    *Color    `json:"color,omitempty"`
	AgeRange *AgeRange `json:"age_range,omitempty"`
}

func (InventoryVariant) TableName() string {
	return "product_inventory"
}
