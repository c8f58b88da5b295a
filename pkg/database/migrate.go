package database

import (
	"errors"
	"fmt"

	"boutique-store/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or alters every table the store needs.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Color{},
		&model.AgeRange{},
		&model.Product{},
		&model.ProductImage{},
		&model.InventoryVariant{},
		&model.Customer{},
		&model.Sale{},
		&model.Admin{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedReferenceData inserts the fixed categories and colors that are missing.
func SeedReferenceData(db *gorm.DB) error {
	for _, name := range model.DefaultCategories {
		var existing model.Category
		err := db.Where("name = ?", name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&model.Category{Name: name}).Error; err != nil {
				return fmt.Errorf("failed to seed category %q: %w", name, err)
			}
		} else if err != nil {
			return err
		}
	}

	for _, name := range model.DefaultColors {
		var existing model.Color
		err := db.Where("name = ?", name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&model.Color{Name: name}).Error; err != nil {
				return fmt.Errorf("failed to seed color %q: %w", name, err)
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}
