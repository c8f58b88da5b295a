package repository

import (
	"errors"

	"boutique-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AgeRangeRepository interface {
	FindOrCreate(tx *gorm.DB, minValue, maxValue int, unit string) (*model.AgeRange, error)
	FindByID(tx *gorm.DB, id uint) (*model.AgeRange, error)
	DeleteIfUnreferenced(tx *gorm.DB, id uint) (bool, error)
	Count(tx *gorm.DB) (int64, error)
}

type ageRangeRepo struct{}

func NewAgeRangeRepo() AgeRangeRepository {
	return &ageRangeRepo{}
}

func (r *ageRangeRepo) find(tx *gorm.DB, minValue, maxValue int, unit string) (*model.AgeRange, error) {
	var ar model.AgeRange
	err := tx.Where("min_value = ? AND max_value = ? AND unit = ?", minValue, maxValue, unit).Take(&ar).Error
	if err != nil {
		return nil, err
	}
	return &ar, nil
}

// FindOrCreate returns the range with exactly these bounds, inserting it when absent.
// The insert is a no-op on conflict, so a concurrent creator of the same range is tolerated.
func (r *ageRangeRepo) FindOrCreate(tx *gorm.DB, minValue, maxValue int, unit string) (*model.AgeRange, error) {
	ar, err := r.find(tx, minValue, maxValue, unit)
	if err == nil {
		return ar, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	candidate := model.AgeRange{MinValue: minValue, MaxValue: maxValue, Unit: unit}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "min_value"}, {Name: "max_value"}, {Name: "unit"}},
		DoNothing: true,
	}).Create(&candidate).Error
	if err != nil {
		return nil, err
	}
	return r.find(tx, minValue, maxValue, unit)
}

func (r *ageRangeRepo) FindByID(tx *gorm.DB, id uint) (*model.AgeRange, error) {
	var ar model.AgeRange
	if err := tx.First(&ar, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ar, nil
}

// DeleteIfUnreferenced removes the range when no variant anywhere points at it.
func (r *ageRangeRepo) DeleteIfUnreferenced(tx *gorm.DB, id uint) (bool, error) {
	res := tx.
		Where("id = ?", id).
		Where("NOT EXISTS (SELECT 1 FROM product_inventory WHERE product_inventory.age_range_id = ?)", id).
		Delete(&model.AgeRange{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ageRangeRepo) Count(tx *gorm.DB) (int64, error) {
	var count int64
	err := tx.Model(&model.AgeRange{}).Count(&count).Error
	return count, err
}
