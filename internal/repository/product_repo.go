package repository

import (
	"context"
	"strings"

	"boutique-store/internal/model"

	"gorm.io/gorm"
)

// ProductFilter narrows a product listing. Zero fields are ignored.
type ProductFilter struct {
	ID         uint
	Name       string
	CategoryID uint
}

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	Filter(ctx context.Context, f ProductFilter) ([]model.Product, error)
	Get(tx *gorm.DB, id uint) (*model.Product, error)
	UpdateFields(tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(tx *gorm.DB, id uint) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// preloadCatalog loads everything a storefront needs to render a product card.
func preloadCatalog(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, id ASC")
		}).
		Preload("Inventory", func(db *gorm.DB) *gorm.DB {
			return db.Order("color_id ASC, age_range_id ASC")
		}).
		Preload("Inventory.Color").
		Preload("Inventory.AgeRange")
}

func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Omit("Category", "Images", "Inventory").Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := preloadCatalog(r.db.WithContext(ctx)).Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := preloadCatalog(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// likeEscaper makes a search term match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Filter matches name as a case-insensitive substring.
func (r *productRepo) Filter(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := preloadCatalog(r.db.WithContext(ctx))
	if f.ID != 0 {
		q = q.Where("id = ?", f.ID)
	}
	if f.Name != "" {
		q = q.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, "%"+likeEscaper.Replace(f.Name)+"%")
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}

	var products []model.Product
	err := q.Order("created_at DESC").Find(&products).Error
	return products, err
}

// Get loads the bare product row inside a transaction.
func (r *productRepo) Get(tx *gorm.DB, id uint) (*model.Product, error) {
	var product model.Product
	if err := tx.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) UpdateFields(tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) Delete(tx *gorm.DB, id uint) error {
	return tx.Where("id = ?", id).Delete(&model.Product{}).Error
}
