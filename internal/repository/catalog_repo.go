package repository

import (
	"context"

	"boutique-store/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository reads the fixed reference data.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListColors(ctx context.Context) ([]model.Color, error)
	FindCategory(tx *gorm.DB, id uint) (*model.Category, error)
	FindColor(tx *gorm.DB, id uint) (*model.Color, error)
}

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db}
}

func (r *catalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

func (r *catalogRepo) ListColors(ctx context.Context) ([]model.Color, error) {
	var colors []model.Color
	err := r.db.WithContext(ctx).Order("id ASC").Find(&colors).Error
	return colors, err
}

func (r *catalogRepo) FindCategory(tx *gorm.DB, id uint) (*model.Category, error) {
	var category model.Category
	if err := tx.First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *catalogRepo) FindColor(tx *gorm.DB, id uint) (*model.Color, error) {
	var color model.Color
	if err := tx.First(&color, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &color, nil
}
