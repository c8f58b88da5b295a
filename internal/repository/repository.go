package repository

import "gorm.io/gorm"

// Repositories bundles every store the services work against.
type Repositories struct {
	Products  ProductRepository
	Images    ImageRepository
	Inventory InventoryRepository
	AgeRanges AgeRangeRepository
	Catalog   CatalogRepository
	Sales     SaleRepository
	Admins    AdminRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products:  NewProductRepo(db),
		Images:    NewImageRepo(),
		Inventory: NewInventoryRepo(),
		AgeRanges: NewAgeRangeRepo(),
		Catalog:   NewCatalogRepo(db),
		Sales:     NewSaleRepo(db),
		Admins:    NewAdminRepo(db),
	}
}
