package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"boutique-store/internal/model"
	"boutique-store/internal/repository"
	"boutique-store/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ImageInput struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	CategoryID  uint            `json:"category_id" validate:"required"`
	Inventory   []VariantInput  `json:"inventory" validate:"omitempty,dive"`
	Images      []ImageInput    `json:"images"`
}

// UpdateProductRequest changes only the fields that are set. A non-empty Inventory
// replaces the whole variant set; a non-empty Images list (or an upload) replaces all images.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	CategoryID  *uint            `json:"category_id"`
	Inventory   []VariantInput   `json:"inventory" validate:"omitempty,dive"`
	Images      []ImageInput     `json:"images"`
}

// StagedFile is an upload already written to the file store. It is removed again
// when the product change it belongs to does not commit.
type StagedFile struct {
	Filename string
	URL      string
}

type ProductService interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest, staged *StagedFile, actor string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest, staged *StagedFile, actor string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	FilterProducts(ctx context.Context, f repository.ProductFilter) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListColors(ctx context.Context) ([]model.Color, error)
}

type productService struct {
	db     *gorm.DB
	repos  repository.Repositories
	engine *engine
	files  FileStore
	cache  CatalogCache
	log    *zap.Logger
}

func NewProductService(db *gorm.DB, repos repository.Repositories, files FileStore, cache CatalogCache, log *zap.Logger) ProductService {
	if cache == nil {
		cache = noopCache{}
	}
	return &productService{
		db:     db,
		repos:  repos,
		engine: newEngine(repos, files, log),
		files:  files,
		cache:  cache,
		log:    log,
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *CreateProductRequest, staged *StagedFile, actor string) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := validateCreate(req); err != nil {
		s.discard(ctx, staged)
		return nil, err
	}
	if err := s.checkReferences(ctx, req.CategoryID, req.Inventory); err != nil {
		s.discard(ctx, staged)
		return nil, err
	}

	product := &model.Product{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
	product.CreatedBy = actor
	product.UpdatedBy = actor

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Products.Create(tx, product); err != nil {
			return err
		}
		if err := s.repos.Images.CreateBatch(tx, buildImages(product.ID, staged, req.Images)); err != nil {
			return err
		}
		return s.engine.addVariants(tx, product.ID, req.Inventory)
	})
	if err != nil {
		s.discard(ctx, staged)
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.log.Info("Product created", zap.Uint("product_id", product.ID), zap.String("by", actor))
	return s.repos.Products.FindByID(ctx, product.ID)
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest, staged *StagedFile, actor string) (*model.Product, error) {
	if err := validateUpdate(req); err != nil {
		s.discard(ctx, staged)
		return nil, err
	}
	var categoryID uint
	if req.CategoryID != nil {
		categoryID = *req.CategoryID
	}
	if err := s.checkReferences(ctx, categoryID, req.Inventory); err != nil {
		s.discard(ctx, staged)
		return nil, err
	}

	var replaced []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repos.Products.Get(tx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
			}
			return err
		}

		fields := map[string]interface{}{}
		if req.Name != nil {
			fields["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Price != nil {
			fields["price"] = *req.Price
		}
		if req.Description != nil {
			fields["description"] = strings.TrimSpace(*req.Description)
		}
		if req.CategoryID != nil {
			fields["category_id"] = *req.CategoryID
		}
		if len(fields) > 0 {
			fields["updated_by"] = actor
		}
		if err := s.repos.Products.UpdateFields(tx, id, fields); err != nil {
			return err
		}

		if staged != nil || len(req.Images) > 0 {
			urls, err := s.engine.deleteImages(tx, id)
			if err != nil {
				return err
			}
			images := buildImages(id, staged, req.Images)
			if err := s.repos.Images.CreateBatch(tx, images); err != nil {
				return err
			}
			replaced = droppedURLs(urls, images)
		}

		if len(req.Inventory) > 0 {
			if err := s.engine.replaceVariants(tx, id, req.Inventory); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, staged)
		return nil, err
	}

	s.engine.removeFiles(ctx, replaced)
	s.cache.Invalidate(ctx)
	s.log.Info("Product updated", zap.Uint("product_id", id), zap.String("by", actor))
	return s.repos.Products.FindByID(ctx, id)
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	var urls []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		urls, err = s.engine.deleteProduct(tx, id)
		return err
	})
	if err != nil {
		return err
	}

	s.engine.removeFiles(ctx, urls)
	s.cache.Invalidate(ctx)
	s.log.Info("Product deleted", zap.Uint("product_id", id))
	return nil
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	if products, ok := s.cache.GetProducts(ctx); ok {
		return products, nil
	}
	products, err := s.repos.Products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetProducts(ctx, products)
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.repos.Products.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return product, err
}

func (s *productService) FilterProducts(ctx context.Context, f repository.ProductFilter) ([]model.Product, error) {
	f.Name = strings.TrimSpace(f.Name)
	return s.repos.Products.Filter(ctx, f)
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repos.Catalog.ListCategories(ctx)
}

func (s *productService) ListColors(ctx context.Context) ([]model.Color, error) {
	return s.repos.Catalog.ListColors(ctx)
}

// checkReferences resolves the category and colors a request points at before any
// transaction is opened. A zero categoryID is not checked.
func (s *productService) checkReferences(ctx context.Context, categoryID uint, variants []VariantInput) error {
	db := s.db.WithContext(ctx)
	if categoryID != 0 {
		if _, err := s.repos.Catalog.FindCategory(db, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newValidationError("category %d does not exist", categoryID)
			}
			return err
		}
	}
	for _, v := range variants {
		if _, err := s.repos.Catalog.FindColor(db, v.ColorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newValidationError("color %d does not exist", v.ColorID)
			}
			return err
		}
	}
	return nil
}

// discard drops an upload whose product change was rejected or rolled back.
func (s *productService) discard(ctx context.Context, staged *StagedFile) {
	if staged == nil || s.files == nil {
		return
	}
	if err := s.files.Delete(ctx, staged.Filename); err != nil {
		s.log.Warn("Failed to remove staged upload", zap.String("file", staged.Filename), zap.Error(err))
	}
}

func validateCreate(req *CreateProductRequest) error {
	if err := fromValidator(validator.ValidateStruct(req)); err != nil {
		return err
	}
	if req.Price.IsNegative() {
		return newValidationError("price must not be negative")
	}
	return nil
}

func validateUpdate(req *UpdateProductRequest) error {
	if err := fromValidator(validator.ValidateStruct(req)); err != nil {
		return err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return newValidationError("name must not be empty")
	}
	if req.Price != nil && req.Price.IsNegative() {
		return newValidationError("price must not be negative")
	}
	if req.CategoryID != nil && *req.CategoryID == 0 {
		return newValidationError("category_id must be a positive integer")
	}
	return nil
}

// buildImages applies the primary image rule: an upload is always primary, otherwise the
// first input flagged primary wins and later flags are cleared.
func buildImages(productID uint, staged *StagedFile, inputs []ImageInput) []model.ProductImage {
	var images []model.ProductImage
	hasPrimary := false
	if staged != nil {
		images = append(images, model.ProductImage{ProductID: productID, ImageURL: staged.URL, IsPrimary: true})
		hasPrimary = true
	}
	for _, in := range inputs {
		url := strings.TrimSpace(in.URL)
		if url == "" {
			continue
		}
		primary := in.IsPrimary && !hasPrimary
		if primary {
			hasPrimary = true
		}
		images = append(images, model.ProductImage{ProductID: productID, ImageURL: url, IsPrimary: primary})
	}
	return images
}

// droppedURLs lists old image URLs that are not part of the new image set.
func droppedURLs(old []string, current []model.ProductImage) []string {
	kept := make(map[string]bool, len(current))
	for _, img := range current {
		kept[img.ImageURL] = true
	}
	var dropped []string
	for _, url := range old {
		if !kept[url] {
			dropped = append(dropped, url)
		}
	}
	return dropped
}
