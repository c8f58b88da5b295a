package repository

import (
	"boutique-store/internal/model"

	"gorm.io/gorm"
)

type ImageRepository interface {
	FindByProduct(tx *gorm.DB, productID uint) ([]model.ProductImage, error)
	CreateBatch(tx *gorm.DB, images []model.ProductImage) error
	DeleteByProduct(tx *gorm.DB, productID uint) error
}

type imageRepo struct{}

func NewImageRepo() ImageRepository {
	return &imageRepo{}
}

func (r *imageRepo) FindByProduct(tx *gorm.DB, productID uint) ([]model.ProductImage, error) {
	var images []model.ProductImage
	err := tx.Where("product_id = ?", productID).Order("id ASC").Find(&images).Error
	return images, err
}

func (r *imageRepo) CreateBatch(tx *gorm.DB, images []model.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return tx.Create(&images).Error
}

func (r *imageRepo) DeleteByProduct(tx *gorm.DB, productID uint) error {
	return tx.Where("product_id = ?", productID).Delete(&model.ProductImage{}).Error
}
