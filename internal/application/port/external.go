package port

import (
	"context"

	"github.com/garyjia/pharma-billing/internal/domain/entity"
)

// InvoiceHeader carries the seller and buyer details printed on an exported document
type InvoiceHeader struct {
	CompanyName    string
	CompanyGSTIN   string
	CompanyAddress string
	Customer       *entity.Customer
}

// DocumentExporter renders a committed order as a spreadsheet
type DocumentExporter interface {
	Export(ctx context.Context, header InvoiceHeader, order *entity.Order, summary entity.Summary) ([]byte, error)
}

// CatalogSnapshot is the master data read from a catalog workbook
type CatalogSnapshot struct {
	Products  []*entity.Product
	Batches   []*entity.Batch
	Customers []*entity.Customer
}

// CatalogReader reads master data from a workbook
type CatalogReader interface {
	Read(ctx context.Context, path string) (*CatalogSnapshot, error)
}
