package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"boutique-store/internal/model"
	"boutique-store/internal/repository"
	"boutique-store/pkg/database"
	"boutique-store/pkg/export"
	"boutique-store/pkg/mailer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUploadBase = "http://test.local/uploads/product/"

// setupTestDB opens a private in-memory database. A single connection keeps the
// database alive and serializes transactions the way row locks would.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedReferenceData(db))
	return db
}

type fakeFiles struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeFiles) Delete(_ context.Context, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, filename)
	return nil
}

func (f *fakeFiles) FilenameFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, testUploadBase) {
		return "", false
	}
	return strings.TrimPrefix(url, testUploadBase), true
}

func (f *fakeFiles) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error

	// block, when set, holds every Send until it is closed
	block chan struct{}
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

type fakeExporter struct {
	tables []export.Table
	err    error
}

func (e *fakeExporter) Export(t export.Table) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tables = append(e.tables, t)
	return []byte("xlsx"), nil
}

type fixture struct {
	db        *gorm.DB
	repos     repository.Repositories
	files     *fakeFiles
	mail      *fakeMailer
	exporter  *fakeExporter
	products  ProductService
	inventory InventoryService
	sales     SaleService
	reports   ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	repos := repository.NewRepositories(db)
	f := &fixture{
		db:       db,
		repos:    repos,
		files:    &fakeFiles{},
		mail:     &fakeMailer{},
		exporter: &fakeExporter{},
	}
	log := zap.NewNop()
	f.products = NewProductService(db, repos, f.files, nil, log)
	f.inventory = NewInventoryService(db, repos, f.files, nil, log)
	f.sales = NewSaleService(db, repos, f.files, f.mail, "owner@example.com", nil, log)
	f.reports = NewReportService(db, repos, f.exporter, f.mail, "owner@example.com", log)
	return f
}

func (f *fixture) categoryID(t *testing.T, name string) uint {
	t.Helper()
	var c model.Category
	require.NoError(t, f.db.Where("name = ?", name).First(&c).Error)
	return c.ID
}

func (f *fixture) colorID(t *testing.T, name string) uint {
	t.Helper()
	var c model.Color
	require.NoError(t, f.db.Where("name = ?", name).First(&c).Error)
	return c.ID
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func (f *fixture) variants(t *testing.T, productID uint) []model.InventoryVariant {
	t.Helper()
	var vs []model.InventoryVariant
	require.NoError(t, f.db.Where("product_id = ?", productID).Order("id ASC").Find(&vs).Error)
	return vs
}

func (f *fixture) quantity(t *testing.T, variantID uint) int {
	t.Helper()
	var v model.InventoryVariant
	require.NoError(t, f.db.First(&v, variantID).Error)
	return v.Quantity
}

// createProduct adds a product priced at price with the given variants.
func (f *fixture) createProduct(t *testing.T, name, price string, staged *StagedFile, variants ...VariantInput) *model.Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), &CreateProductRequest{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: f.categoryID(t, "Baby girls"),
		Inventory:  variants,
	}, staged, "tester")
	require.NoError(t, err)
	return p
}

func sale(total string, items ...SaleItem) *CreateSaleRequest {
	return &CreateSaleRequest{
		Customer: model.Customer{
			Name:         "Lina",
			Email:        "lina@example.com",
			Phone:        "+961 70 000 000",
			City:         "Beirut",
			Neighborhood: "Hamra",
			Street:       "Bliss",
			Building:     "12",
			Floor:        3,
		},
		Items:      items,
		TotalPrice: decimal.RequireFromString(total),
	}
}

func uintPtr(v uint) *uint {
	return &v
}
