package repository

import (
	"boutique-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	Create(tx *gorm.DB, variant *model.InventoryVariant) error
	FindByKeyForUpdate(tx *gorm.DB, productID, colorID uint, ageRangeID *uint) (*model.InventoryVariant, error)
	FindForDecrement(tx *gorm.DB, productID, colorID uint, ageRangeID *uint) (*model.InventoryVariant, error)
	UpdateQuantity(tx *gorm.DB, id uint, quantity int) error
	Delete(tx *gorm.DB, id uint) error
	DeleteByProductColor(tx *gorm.DB, productID, colorID uint) error
	DeleteByProduct(tx *gorm.DB, productID uint) error
	CountByProduct(tx *gorm.DB, productID uint) (int64, error)
	AgeRangeIDsByProduct(tx *gorm.DB, productID uint) ([]uint, error)
}

type inventoryRepo struct{}

func NewInventoryRepo() InventoryRepository {
	return &inventoryRepo{}
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *inventoryRepo) Create(tx *gorm.DB, variant *model.InventoryVariant) error {
	return tx.Omit(clause.Associations).Create(variant).Error
}

// FindByKeyForUpdate locks the row with the exact (product, color, age range) key.
// A nil ageRangeID matches only the row without an age range.
func (r *inventoryRepo) FindByKeyForUpdate(tx *gorm.DB, productID, colorID uint, ageRangeID *uint) (*model.InventoryVariant, error) {
	q := forUpdate(tx).Where("product_id = ? AND color_id = ?", productID, colorID)
	if ageRangeID != nil {
		q = q.Where("age_range_id = ?", *ageRangeID)
	} else {
		q = q.Where("age_range_id IS NULL")
	}

	var variant model.InventoryVariant
	if err := q.Take(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindForDecrement locks the row a manual one-unit adjustment applies to.
// With an age range id, the exact match and the ageless row are candidates and the
// highest age range id wins; the ageless row is the last resort.
func (r *inventoryRepo) FindForDecrement(tx *gorm.DB, productID, colorID uint, ageRangeID *uint) (*model.InventoryVariant, error) {
	q := forUpdate(tx).Where("product_id = ? AND color_id = ?", productID, colorID)
	if ageRangeID != nil {
		q = q.Where("(age_range_id = ? OR age_range_id IS NULL)", *ageRangeID).
			Order("age_range_id IS NULL").
			Order("age_range_id DESC")
	} else {
		q = q.Where("age_range_id IS NULL")
	}

	var variant model.InventoryVariant
	if err := q.Limit(1).Take(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *inventoryRepo) UpdateQuantity(tx *gorm.DB, id uint, quantity int) error {
	return tx.Model(&model.InventoryVariant{}).Where("id = ?", id).Update("quantity", quantity).Error
}

func (r *inventoryRepo) Delete(tx *gorm.DB, id uint) error {
	return tx.Where("id = ?", id).Delete(&model.InventoryVariant{}).Error
}

func (r *inventoryRepo) DeleteByProductColor(tx *gorm.DB, productID, colorID uint) error {
	return tx.Where("product_id = ? AND color_id = ?", productID, colorID).Delete(&model.InventoryVariant{}).Error
}

func (r *inventoryRepo) DeleteByProduct(tx *gorm.DB, productID uint) error {
	return tx.Where("product_id = ?", productID).Delete(&model.InventoryVariant{}).Error
}

func (r *inventoryRepo) CountByProduct(tx *gorm.DB, productID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.InventoryVariant{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *inventoryRepo) AgeRangeIDsByProduct(tx *gorm.DB, productID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&model.InventoryVariant{}).
		Where("product_id = ? AND age_range_id IS NOT NULL", productID).
		Distinct().
		Pluck("age_range_id", &ids).Error
	return ids, err
}
