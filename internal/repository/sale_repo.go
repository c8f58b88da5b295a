package repository

import (
	"context"

	"boutique-store/internal/model"

	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateCustomer(tx *gorm.DB, customer *model.Customer) error
	Create(tx *gorm.DB, sale *model.Sale) error
	FindAll(ctx context.Context) ([]model.Sale, error)
	FindAllWithCustomer(tx *gorm.DB) ([]model.Sale, error)
	DeleteByIDs(tx *gorm.DB, ids []uint) (int64, error)
	DeleteUnreferencedCustomers(tx *gorm.DB, ids []uint) (int64, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) CreateCustomer(tx *gorm.DB, customer *model.Customer) error {
	return tx.Create(customer).Error
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Omit("Customer").Create(sale).Error
}

func (r *saleRepo) FindAll(ctx context.Context) ([]model.Sale, error) {
	return r.FindAllWithCustomer(r.db.WithContext(ctx))
}

// FindAllWithCustomer returns the whole ledger, newest first.
func (r *saleRepo) FindAllWithCustomer(tx *gorm.DB) ([]model.Sale, error) {
	var sales []model.Sale
	err := tx.Preload("Customer").Order("created_at DESC, id DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) DeleteByIDs(tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.Where("id IN ?", ids).Delete(&model.Sale{})
	return res.RowsAffected, res.Error
}

// DeleteUnreferencedCustomers removes the given customers once no sale points at them.
func (r *saleRepo) DeleteUnreferencedCustomers(tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.
		Where("id IN ?", ids).
		Where("NOT EXISTS (SELECT 1 FROM sales WHERE sales.customer_id = customers.id)").
		Delete(&model.Customer{})
	return res.RowsAffected, res.Error
}
