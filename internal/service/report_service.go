package service

import (
	"context"
	"fmt"
	"time"

	"boutique-store/internal/model"
	"boutique-store/internal/repository"
	"boutique-store/pkg/export"
	"boutique-store/pkg/mailer"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Exporter renders a table into a spreadsheet file.
type Exporter interface {
	Export(t export.Table) ([]byte, error)
}

var reportColumns = []export.Column{
	{Header: "Customer Name", Width: 25},
	{Header: "Phone", Width: 20},
	{Header: "Email", Width: 35},
	{Header: "City", Width: 20},
	{Header: "Address", Width: 50},
	{Header: "Sale ID", Width: 12},
	{Header: "Date", Width: 20},
	{Header: "Product", Width: 25},
	{Header: "Category", Width: 25},
	{Header: "Age Range", Width: 20},
	{Header: "Color", Width: 20},
	{Header: "Qty", Width: 10},
	{Header: "Total", Width: 15},
}

// ReportResult describes one archival run.
type ReportResult struct {
	SalesExported   int    `json:"sales_exported"`
	SalesPurged     int64  `json:"sales_purged"`
	CustomersPurged int64  `json:"customers_purged"`
	Attachment      string `json:"attachment,omitempty"`
}

type ReportService interface {
	GenerateSalesReport(ctx context.Context) (*ReportResult, error)
}

type reportService struct {
	db        *gorm.DB
	sales     repository.SaleRepository
	exporter  Exporter
	notifier  mailer.Sender
	recipient string
	now       func() time.Time
	log       *zap.Logger
}

func NewReportService(db *gorm.DB, repos repository.Repositories, exporter Exporter, notifier mailer.Sender, recipient string, log *zap.Logger) ReportService {
	return &reportService{
		db:        db,
		sales:     repos.Sales,
		exporter:  exporter,
		notifier:  notifier,
		recipient: recipient,
		now:       time.Now,
		log:       log,
	}
}

// GenerateSalesReport exports the sales ledger, emails it, and only then purges the
// exported sales and their customers. Any failure rolls back and nothing is deleted.
// Sales committed after the ledger was read are left for the next run.
func (s *reportService) GenerateSalesReport(ctx context.Context) (*ReportResult, error) {
	result := &ReportResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sales, err := s.sales.FindAllWithCustomer(tx)
		if err != nil {
			return fmt.Errorf("failed to read sales: %w", err)
		}
		result.SalesExported = len(sales)
		if len(sales) == 0 {
			return nil
		}

		data, err := s.exporter.Export(buildReportTable(sales))
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}

		now := s.now()
		result.Attachment = fmt.Sprintf("sales_report_%d.xlsx", now.Unix())
		err = s.notifier.Send(ctx, mailer.Message{
			To:      []string{s.recipient},
			Subject: "Sales Report - " + now.Format("2006-01-02"),
			HTML:    "<p>Attached is the latest sales report</p>",
			Attachments: []mailer.Attachment{{
				Filename:    result.Attachment,
				ContentType: export.ContentTypeXLSX,
				Content:     data,
			}},
		})
		if err != nil {
			return fmt.Errorf("failed to send report: %w", err)
		}

		saleIDs := make([]uint, 0, len(sales))
		customerIDs := make([]uint, 0, len(sales))
		seen := make(map[uint]bool)
		for _, sale := range sales {
			saleIDs = append(saleIDs, sale.ID)
			if !seen[sale.CustomerID] {
				seen[sale.CustomerID] = true
				customerIDs = append(customerIDs, sale.CustomerID)
			}
		}

		if result.SalesPurged, err = s.sales.DeleteByIDs(tx, saleIDs); err != nil {
			return fmt.Errorf("failed to purge sales: %w", err)
		}
		if result.CustomersPurged, err = s.sales.DeleteUnreferencedCustomers(tx, customerIDs); err != nil {
			return fmt.Errorf("failed to purge customers: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Sales report failed, no data was deleted", zap.Error(err))
		return nil, err
	}

	if result.SalesExported == 0 {
		s.log.Info("Sales report skipped, ledger is empty")
		return result, nil
	}
	s.log.Info("Sales report sent and ledger purged",
		zap.Int("exported", result.SalesExported),
		zap.Int64("sales_purged", result.SalesPurged),
		zap.Int64("customers_purged", result.CustomersPurged),
	)
	return result, nil
}

func buildReportTable(sales []model.Sale) export.Table {
	rows := make([][]interface{}, 0, len(sales))
	for _, sale := range sales {
		var c model.Customer
		if sale.Customer != nil {
			c = *sale.Customer
		}
		ageRange := sale.AgeRangeLabel
		if ageRange == "" {
			ageRange = "All Ages"
		}
		rows = append(rows, []interface{}{
			c.Name,
			c.Phone,
			c.Email,
			c.City,
			fmt.Sprintf("%s, %s, Floor %d, %s", c.Street, c.Building, c.Floor, c.Neighborhood),
			sale.ID,
			sale.CreatedAt.Format("2006-01-02 15:04"),
			sale.ProductName,
			sale.CategoryName,
			ageRange,
			sale.ColorName,
			sale.Quantity,
			sale.TotalPrice.InexactFloat64(),
		})
	}
	return export.Table{Sheet: "Sales Report", Columns: reportColumns, Rows: rows}
}
