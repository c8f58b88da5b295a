package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"boutique-store/internal/model"
	"boutique-store/internal/repository"
	"boutique-store/pkg/mailer"
	"boutique-store/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// priceTolerance is how far a client's claimed total may drift from the computed one.
var priceTolerance = decimal.RequireFromString("0.01")

const notifyTimeout = 30 * time.Second

type SaleItem struct {
	ProductID  uint  `json:"product_id" validate:"required"`
	ColorID    uint  `json:"color_id" validate:"required"`
	AgeRangeID *uint `json:"age_range_id"`
	Quantity   int   `json:"quantity" validate:"gt=0"`
}

type CreateSaleRequest struct {
	Customer   model.Customer  `json:"customer"`
	Items      []SaleItem      `json:"items" validate:"required,min=1,dive"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SaleLine is one fulfilled item of a sale.
type SaleLine struct {
	SaleID         uint            `json:"sale_id"`
	ProductID      uint            `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Color          string          `json:"color"`
	AgeRange       string          `json:"age_range"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ItemTotal      decimal.Decimal `json:"item_total"`
	RemainingStock int             `json:"remaining_stock"`
}

type SaleReceipt struct {
	Customer *model.Customer `json:"customer"`
	Items    []SaleLine      `json:"items"`
	Total    decimal.Decimal `json:"total"`
}

type ProductSales struct {
	ProductID     uint            `json:"product_id"`
	ProductName   string          `json:"product_name"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalQuantity int             `json:"total_quantity_sold"`
	Sales         []model.Sale    `json:"sales"`
}

type SalesSummary struct {
	ProductCount     int             `json:"product_count"`
	TotalSalesAmount decimal.Decimal `json:"total_sales_amount"`
	Products         []ProductSales  `json:"data"`
}

type SaleService interface {
	CreateSale(ctx context.Context, req *CreateSaleRequest) (*SaleReceipt, error)
	SalesSummary(ctx context.Context) (*SalesSummary, error)
	// Close waits for order emails that are still being sent.
	Close()
}

type saleService struct {
	db        *gorm.DB
	repos     repository.Repositories
	engine    *engine
	notifier  mailer.Sender
	recipient string
	cache     CatalogCache
	log       *zap.Logger

	notifications sync.WaitGroup
}

func NewSaleService(db *gorm.DB, repos repository.Repositories, files FileStore, notifier mailer.Sender, recipient string, cache CatalogCache, log *zap.Logger) SaleService {
	if cache == nil {
		cache = noopCache{}
	}
	return &saleService{
		db:        db,
		repos:     repos,
		engine:    newEngine(repos, files, log),
		notifier:  notifier,
		recipient: recipient,
		cache:     cache,
		log:       log,
	}
}

// CreateSale fulfills every item or none. Each variant row is locked before it is read,
// so concurrent sales of the same variant serialize and can never oversell it.
func (s *saleService) CreateSale(ctx context.Context, req *CreateSaleRequest) (*SaleReceipt, error) {
	trimCustomer(&req.Customer)
	if err := fromValidator(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}

	receipt := &SaleReceipt{Total: decimal.Zero}
	var removed *cascadeResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer := req.Customer
		customer.ID = 0
		if err := s.repos.Sales.CreateCustomer(tx, &customer); err != nil {
			return err
		}
		receipt.Customer = &customer
		receipt.Items = receipt.Items[:0]

		var candidates cascadeCandidates
		for _, item := range req.Items {
			line, exhausted, err := s.sellItem(tx, customer.ID, item)
			if err != nil {
				return err
			}
			receipt.Items = append(receipt.Items, *line)
			receipt.Total = receipt.Total.Add(line.ItemTotal)
			if exhausted != nil {
				candidates.add(exhausted)
			}
		}

		if !candidates.empty() {
			var err error
			removed, err = s.engine.cascade(tx, candidates)
			if err != nil {
				return err
			}
		}

		if receipt.Total.Sub(req.TotalPrice).Abs().GreaterThan(priceTolerance) {
			return fmt.Errorf("%w: calculated total %s does not match provided total %s",
				ErrPriceMismatch, receipt.Total.StringFixed(2), req.TotalPrice.StringFixed(2))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if removed != nil {
		s.engine.removeFiles(ctx, removed.imageURLs)
	}
	s.cache.Invalidate(ctx)

	s.log.Info("Sale completed",
		zap.Uint("customer_id", receipt.Customer.ID),
		zap.Int("items", len(receipt.Items)),
		zap.String("total", receipt.Total.StringFixed(2)),
	)

	s.notifyAsync(receipt)
	return receipt, nil
}

// sellItem records one sale line and takes its quantity from the locked variant.
// The variant is returned when it ran out and was deleted.
func (s *saleService) sellItem(tx *gorm.DB, customerID uint, item SaleItem) (*SaleLine, *model.InventoryVariant, error) {
	variant, err := s.repos.Inventory.FindByKeyForUpdate(tx, item.ProductID, item.ColorID, item.AgeRangeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: product %d, color %d, age range %s",
			ErrInventoryNotFound, item.ProductID, item.ColorID, describeAgeRangeID(item.AgeRangeID))
	}
	if err != nil {
		return nil, nil, err
	}
	if item.Quantity > variant.Quantity {
		return nil, nil, fmt.Errorf("%w: product %d requested %d, available %d",
			ErrInsufficientStock, item.ProductID, item.Quantity, variant.Quantity)
	}

	product, err := s.repos.Products.Get(tx, variant.ProductID)
	if err != nil {
		return nil, nil, err
	}
	color, err := s.repos.Catalog.FindColor(tx, variant.ColorID)
	if err != nil {
		return nil, nil, err
	}
	var ageRange *model.AgeRange
	if variant.AgeRangeID != nil {
		if ageRange, err = s.repos.AgeRanges.FindByID(tx, *variant.AgeRangeID); err != nil {
			return nil, nil, err
		}
	}
	categoryName := ""
	if category, err := s.repos.Catalog.FindCategory(tx, product.CategoryID); err == nil {
		categoryName = category.Name
	}

	lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	inventoryID := variant.ID
	sale := &model.Sale{
		CustomerID:    customerID,
		InventoryID:   &inventoryID,
		ProductID:     product.ID,
		Quantity:      item.Quantity,
		UnitPrice:     product.Price,
		TotalPrice:    lineTotal,
		ProductName:   product.Name,
		CategoryName:  categoryName,
		ColorName:     color.Name,
		AgeRangeLabel: ageRange.Label(),
	}
	if err := s.repos.Sales.Create(tx, sale); err != nil {
		return nil, nil, err
	}

	remaining, err := s.engine.decrement(tx, variant, item.Quantity)
	if err != nil {
		return nil, nil, err
	}

	line := &SaleLine{
		SaleID:         sale.ID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		Color:          color.Name,
		AgeRange:       labelOr(ageRange, "None"),
		Quantity:       item.Quantity,
		UnitPrice:      product.Price,
		ItemTotal:      lineTotal,
		RemainingStock: remaining,
	}
	if remaining == 0 {
		return line, variant, nil
	}
	return line, nil, nil
}

// SalesSummary groups the ledger by product, newest sales first.
func (s *saleService) SalesSummary(ctx context.Context) (*SalesSummary, error) {
	sales, err := s.repos.Sales.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &SalesSummary{TotalSalesAmount: decimal.Zero, Products: []ProductSales{}}
	index := make(map[uint]int)
	for _, sale := range sales {
		i, ok := index[sale.ProductID]
		if !ok {
			i = len(summary.Products)
			index[sale.ProductID] = i
			summary.Products = append(summary.Products, ProductSales{
				ProductID:   sale.ProductID,
				ProductName: sale.ProductName,
				TotalSales:  decimal.Zero,
			})
		}
		p := &summary.Products[i]
		p.TotalSales = p.TotalSales.Add(sale.TotalPrice)
		p.TotalQuantity += sale.Quantity
		p.Sales = append(p.Sales, sale)
		summary.TotalSalesAmount = summary.TotalSalesAmount.Add(sale.TotalPrice)
	}
	summary.ProductCount = len(summary.Products)
	return summary, nil
}

func (s *saleService) Close() {
	s.notifications.Wait()
}

// notifyAsync emails the order after commit. Delivery problems never affect the sale.
func (s *saleService) notifyAsync(receipt *SaleReceipt) {
	if s.notifier == nil || s.recipient == "" {
		return
	}

	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		html, err := renderOrderEmail(receipt)
		if err != nil {
			s.log.Warn("Failed to render order email", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err = s.notifier.Send(ctx, mailer.Message{
			To:      []string{s.recipient},
			Subject: "Order details:",
			HTML:    html,
		})
		if err != nil {
			s.log.Warn("Failed to send order email", zap.Uint("customer_id", receipt.Customer.ID), zap.Error(err))
		}
	}()
}

func trimCustomer(c *model.Customer) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.City = strings.TrimSpace(c.City)
	c.Neighborhood = strings.TrimSpace(c.Neighborhood)
	c.Street = strings.TrimSpace(c.Street)
	c.Building = strings.TrimSpace(c.Building)
}

func labelOr(ar *model.AgeRange, fallback string) string {
	if ar == nil {
		return fallback
	}
	return ar.Label()
}

func describeAgeRangeID(id *uint) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprint(*id)
}
