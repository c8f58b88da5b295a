package service

import (
	"context"
	"errors"
	"fmt"

	"boutique-store/internal/model"
	"boutique-store/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileStore is the part of the image store the stock rules need: dropping files
// that belonged to deleted images.
type FileStore interface {
	Delete(ctx context.Context, filename string) error
	FilenameFromURL(url string) (string, bool)
}

// CatalogCache caches the storefront product listing.
type CatalogCache interface {
	GetProducts(ctx context.Context) ([]model.Product, bool)
	SetProducts(ctx context.Context, products []model.Product)
	Invalidate(ctx context.Context)
}

type noopCache struct{}

func (noopCache) GetProducts(context.Context) ([]model.Product, bool) { return nil, false }
func (noopCache) SetProducts(context.Context, []model.Product)        {}
func (noopCache) Invalidate(context.Context)                          {}

// VariantInput is one color of a product's stock, optionally split by age range.
type VariantInput struct {
	ColorID   uint            `json:"color_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	AgeRanges []AgeRangeInput `json:"age_ranges" validate:"omitempty,dive"`
}

type AgeRangeInput struct {
	MinValue int    `json:"min_value" validate:"gte=0"`
	MaxValue int    `json:"max_value" validate:"gtefield=MinValue"`
	Unit     string `json:"unit" validate:"age_unit"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

func (a AgeRangeInput) unit() string {
	if a.Unit == "" {
		return model.UnitYears
	}
	return a.Unit
}

// DecreaseResult reports the state of a variant after a one-unit adjustment.
type DecreaseResult struct {
	ProductID       uint  `json:"product_id"`
	ColorID         uint  `json:"color_id"`
	AgeRangeID      *uint `json:"age_range_id"`
	Remaining       int   `json:"remaining_quantity"`
	VariantRemoved  bool  `json:"variant_removed"`
	ProductRemoved  bool  `json:"product_removed"`
	AgeRangeRemoved bool  `json:"age_range_removed"`
}

type InventoryService interface {
	DecreaseQuantity(ctx context.Context, productID, colorID uint, ageRangeID *uint) (*DecreaseResult, error)
}

type inventoryService struct {
	db     *gorm.DB
	engine *engine
	cache  CatalogCache
	log    *zap.Logger
}

func NewInventoryService(db *gorm.DB, repos repository.Repositories, files FileStore, cache CatalogCache, log *zap.Logger) InventoryService {
	if cache == nil {
		cache = noopCache{}
	}
	return &inventoryService{
		db:     db,
		engine: newEngine(repos, files, log),
		cache:  cache,
		log:    log,
	}
}

// DecreaseQuantity removes exactly one unit from a variant. A variant that reaches zero
// is deleted, and its product and age range follow when nothing else references them.
func (s *inventoryService) DecreaseQuantity(ctx context.Context, productID, colorID uint, ageRangeID *uint) (*DecreaseResult, error) {
	if productID == 0 || colorID == 0 {
		return nil, newValidationError("product_id and color_id must be positive integers")
	}
	if ageRangeID != nil && *ageRangeID == 0 {
		return nil, newValidationError("age_range_id must be a positive integer")
	}

	var (
		result  *DecreaseResult
		removed *cascadeResult
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variant, err := s.engine.inventory.FindForDecrement(tx, productID, colorID, ageRangeID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInventoryNotFound
		}
		if err != nil {
			return err
		}
		if variant.Quantity <= 0 {
			return ErrOutOfStock
		}

		remaining, err := s.engine.decrement(tx, variant, 1)
		if err != nil {
			return err
		}
		result = &DecreaseResult{
			ProductID:  variant.ProductID,
			ColorID:    variant.ColorID,
			AgeRangeID: variant.AgeRangeID,
			Remaining:  remaining,
		}
		if remaining > 0 {
			return nil
		}

		result.VariantRemoved = true
		var candidates cascadeCandidates
		candidates.add(variant)
		removed, err = s.engine.cascade(tx, candidates)
		if err != nil {
			return err
		}
		result.ProductRemoved = removed.removedProduct(variant.ProductID)
		result.AgeRangeRemoved = variant.AgeRangeID != nil && removed.removedAgeRange(*variant.AgeRangeID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if removed != nil {
		s.engine.removeFiles(ctx, removed.imageURLs)
	}
	s.cache.Invalidate(ctx)

	s.log.Info("Inventory decreased",
		zap.Uint("product_id", result.ProductID),
		zap.Uint("color_id", result.ColorID),
		zap.Int("remaining", result.Remaining),
		zap.Bool("product_removed", result.ProductRemoved),
	)
	return result, nil
}

// engine holds the stock rules shared by catalog edits, sales and manual adjustments.
// Every method runs inside the caller's transaction.
type engine struct {
	products  repository.ProductRepository
	images    repository.ImageRepository
	inventory repository.InventoryRepository
	ageRanges repository.AgeRangeRepository
	files     FileStore
	log       *zap.Logger
}

func newEngine(repos repository.Repositories, files FileStore, log *zap.Logger) *engine {
	return &engine{
		products:  repos.Products,
		images:    repos.Images,
		inventory: repos.Inventory,
		ageRanges: repos.AgeRanges,
		files:     files,
		log:       log,
	}
}

// addVariants writes the variant rows for a product. Each color replaces whatever the
// product already holds in that color, so resubmitting an entry never duplicates rows.
// Entries with zero quantity are not stored. Colors must already be known to exist.
func (e *engine) addVariants(tx *gorm.DB, productID uint, variants []VariantInput) error {
	for _, item := range variants {
		if err := e.inventory.DeleteByProductColor(tx, productID, item.ColorID); err != nil {
			return err
		}

		if len(item.AgeRanges) == 0 {
			if err := e.createVariant(tx, productID, item.ColorID, nil, item.Quantity); err != nil {
				return err
			}
			continue
		}

		for _, ar := range item.AgeRanges {
			if ar.Quantity == 0 {
				continue
			}
			ageRange, err := e.ageRanges.FindOrCreate(tx, ar.MinValue, ar.MaxValue, ar.unit())
			if err != nil {
				return fmt.Errorf("failed to resolve age range: %w", err)
			}
			if err := e.createVariant(tx, productID, item.ColorID, &ageRange.ID, ar.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *engine) createVariant(tx *gorm.DB, productID, colorID uint, ageRangeID *uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return e.inventory.Create(tx, &model.InventoryVariant{
		ProductID:  productID,
		ColorID:    colorID,
		AgeRangeID: ageRangeID,
		Quantity:   quantity,
	})
}

// replaceVariants drops the product's entire stock and writes variants in its place.
// Age ranges left without any variant afterwards are removed.
func (e *engine) replaceVariants(tx *gorm.DB, productID uint, variants []VariantInput) error {
	previous, err := e.inventory.AgeRangeIDsByProduct(tx, productID)
	if err != nil {
		return err
	}
	if err := e.inventory.DeleteByProduct(tx, productID); err != nil {
		return err
	}
	if err := e.addVariants(tx, productID, variants); err != nil {
		return err
	}
	for _, id := range previous {
		if _, err := e.ageRanges.DeleteIfUnreferenced(tx, id); err != nil {
			return err
		}
	}
	return nil
}

// decrement takes n units from a locked variant and deletes the row when it runs out.
func (e *engine) decrement(tx *gorm.DB, variant *model.InventoryVariant, n int) (int, error) {
	remaining := variant.Quantity - n
	if remaining < 0 {
		return 0, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, n, variant.Quantity)
	}
	if remaining == 0 {
		if err := e.inventory.Delete(tx, variant.ID); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if err := e.inventory.UpdateQuantity(tx, variant.ID, remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// cascadeCandidates are the products and age ranges that lost a variant in this transaction.
type cascadeCandidates struct {
	products  []uint
	ageRanges []uint
	seen      map[string]bool
}

func (c *cascadeCandidates) add(v *model.InventoryVariant) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if key := fmt.Sprintf("p%d", v.ProductID); !c.seen[key] {
		c.seen[key] = true
		c.products = append(c.products, v.ProductID)
	}
	if v.AgeRangeID != nil {
		if key := fmt.Sprintf("a%d", *v.AgeRangeID); !c.seen[key] {
			c.seen[key] = true
			c.ageRanges = append(c.ageRanges, *v.AgeRangeID)
		}
	}
}

func (c *cascadeCandidates) empty() bool {
	return len(c.products) == 0 && len(c.ageRanges) == 0
}

type cascadeResult struct {
	products  []uint
	ageRanges []uint
	imageURLs []string
}

func (r *cascadeResult) removedProduct(id uint) bool {
	for _, p := range r.products {
		if p == id {
			return true
		}
	}
	return false
}

func (r *cascadeResult) removedAgeRange(id uint) bool {
	for _, a := range r.ageRanges {
		if a == id {
			return true
		}
	}
	return false
}

// cascade deletes candidate products that have no variants left, with their images,
// then candidate age ranges no variant in the whole store references.
func (e *engine) cascade(tx *gorm.DB, c cascadeCandidates) (*cascadeResult, error) {
	res := &cascadeResult{}

	for _, productID := range c.products {
		left, err := e.inventory.CountByProduct(tx, productID)
		if err != nil {
			return nil, err
		}
		if left > 0 {
			continue
		}

		urls, err := e.deleteImages(tx, productID)
		if err != nil {
			return nil, err
		}
		if err := e.products.Delete(tx, productID); err != nil {
			return nil, err
		}
		res.products = append(res.products, productID)
		res.imageURLs = append(res.imageURLs, urls...)
	}

	for _, ageRangeID := range c.ageRanges {
		deleted, err := e.ageRanges.DeleteIfUnreferenced(tx, ageRangeID)
		if err != nil {
			return nil, err
		}
		if deleted {
			res.ageRanges = append(res.ageRanges, ageRangeID)
		}
	}
	return res, nil
}

func (e *engine) deleteImages(tx *gorm.DB, productID uint) ([]string, error) {
	images, err := e.images.FindByProduct(tx, productID)
	if err != nil {
		return nil, err
	}
	if err := e.images.DeleteByProduct(tx, productID); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.ImageURL)
	}
	return urls, nil
}

// deleteProduct removes a product with its images and variants, then the age ranges
// it used that nothing else references. Returns the URLs of the deleted images.
func (e *engine) deleteProduct(tx *gorm.DB, productID uint) ([]string, error) {
	if _, err := e.products.Get(tx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
		}
		return nil, err
	}

	ageRangeIDs, err := e.inventory.AgeRangeIDsByProduct(tx, productID)
	if err != nil {
		return nil, err
	}
	urls, err := e.deleteImages(tx, productID)
	if err != nil {
		return nil, err
	}
	if err := e.inventory.DeleteByProduct(tx, productID); err != nil {
		return nil, err
	}
	for _, id := range ageRangeIDs {
		if _, err := e.ageRanges.DeleteIfUnreferenced(tx, id); err != nil {
			return nil, err
		}
	}
	if err := e.products.Delete(tx, productID); err != nil {
		return nil, err
	}
	return urls, nil
}

// removeFiles deletes stored files behind image URLs once the owning transaction committed.
// Failures only leave an orphaned file behind, so they are logged and skipped.
func (e *engine) removeFiles(ctx context.Context, urls []string) {
	if e.files == nil {
		return
	}
	for _, url := range urls {
		name, ok := e.files.FilenameFromURL(url)
		if !ok {
			continue
		}
		if err := e.files.Delete(ctx, name); err != nil {
			e.log.Warn("Failed to delete image file", zap.String("file", name), zap.Error(err))
		}
	}
}
