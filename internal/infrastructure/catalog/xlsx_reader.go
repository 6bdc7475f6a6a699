package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names read from a catalog workbook. Each is optional but at least one
// must be present.
const (
	SheetProducts  = "Products"
	SheetBatches   = "Batches"
	SheetCustomers = "Customers"
)

var expiryLayouts = []struct {
	layout    string
	monthOnly bool
}{
	{"2006-01-02", false},
	{"02/01/2006", false},
	{"02-01-2006", false},
	{"01/2006", true},
	{"01-2006", true},
}

// XLSXReader reads master data from an xlsx workbook. Columns are matched by
// header name, case-insensitively, so their order does not matter.
type XLSXReader struct {
	logger *zap.Logger
}

// NewXLSXReader creates a new catalog reader
func NewXLSXReader(logger *zap.Logger) *XLSXReader {
	return &XLSXReader{logger: logger}
}

// Read parses the workbook at path
func (r *XLSXReader) Read(ctx context.Context, path string) (*port.CatalogSnapshot, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	snapshot := &port.CatalogSnapshot{}
	found := 0

	if rows, ok, err := r.sheet(file, SheetProducts); err != nil {
		return nil, err
	} else if ok {
		found++
		if snapshot.Products, err = parseProducts(rows); err != nil {
			return nil, err
		}
	}

	if rows, ok, err := r.sheet(file, SheetBatches); err != nil {
		return nil, err
	} else if ok {
		found++
		if snapshot.Batches, err = parseBatches(rows); err != nil {
			return nil, err
		}
	}

	if rows, ok, err := r.sheet(file, SheetCustomers); err != nil {
		return nil, err
	} else if ok {
		found++
		if snapshot.Customers, err = r.parseCustomers(rows); err != nil {
			return nil, err
		}
	}

	if found == 0 {
		return nil, fmt.Errorf("workbook %s has none of the sheets %s, %s, %s", path, SheetProducts, SheetBatches, SheetCustomers)
	}

	r.logger.Info("Catalog workbook read",
		zap.String("path", path),
		zap.Int("products", len(snapshot.Products)),
		zap.Int("batches", len(snapshot.Batches)),
		zap.Int("customers", len(snapshot.Customers)))

	return snapshot, nil
}

// sheet returns the named sheet as header-keyed rows
func (r *XLSXReader) sheet(file *excelize.File, name string) ([]row, bool, error) {
	if idx, err := file.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, false, nil
	}

	raw, err := file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	if len(raw) == 0 {
		return nil, true, nil
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.ToLower(utils.SanitizeString(h))
	}

	rows := make([]row, 0, len(raw)-1)
	for n, cells := range raw[1:] {
		rec := row{sheet: name, number: n + 2, values: make(map[string]string, len(headers))}
		empty := true
		for i, v := range cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			v = utils.SanitizeString(v)
			if v != "" {
				empty = false
			}
			rec.values[headers[i]] = v
		}
		if !empty {
			rows = append(rows, rec)
		}
	}
	return rows, true, nil
}

type row struct {
	sheet  string
	number int
	values map[string]string
}

func (r row) str(col string) string {
	return r.values[col]
}

func (r row) required(col string) (string, error) {
	v := r.values[col]
	if v == "" {
		return "", r.errorf(col, "is required")
	}
	return v, nil
}

func (r row) decimal(col string) (decimal.Decimal, error) {
	v := r.values[col]
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, r.errorf(col, "is not a number: %q", v)
	}
	if d.IsNegative() {
		return decimal.Zero, r.errorf(col, "cannot be negative: %s", v)
	}
	return d, nil
}

func (r row) integer(col string) (int64, error) {
	d, err := r.decimal(col)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, r.errorf(col, "must be a whole number: %s", d.String())
	}
	return d.IntPart(), nil
}

func (r row) boolean(col string, def bool) bool {
	switch strings.ToLower(r.values[col]) {
	case "":
		return def
	case "1", "true", "yes", "y", "active":
		return true
	default:
		return false
	}
}

// date accepts an Excel serial date or one of expiryLayouts. Month-year values
// mean the last day of that month.
func (r row) date(col string) (*time.Time, error) {
	v := r.values[col]
	if v == "" {
		return nil, nil
	}

	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, r.errorf(col, "is not a date: %s", v)
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &t, nil
	}

	for _, l := range expiryLayouts {
		t, err := time.Parse(l.layout, v)
		if err != nil {
			continue
		}
		if l.monthOnly {
			t = t.AddDate(0, 1, -1)
		}
		return &t, nil
	}
	return nil, r.errorf(col, "is not a date: %s", v)
}

func (r row) errorf(col, format string, args ...interface{}) error {
	return fmt.Errorf("%s row %d: %s %s", r.sheet, r.number, col, fmt.Sprintf(format, args...))
}

func parseProducts(rows []row) ([]*entity.Product, error) {
	products := make([]*entity.Product, 0, len(rows))
	for _, rec := range rows {
		id, err := rec.required("id")
		if err != nil {
			return nil, err
		}
		name, err := rec.required("name")
		if err != nil {
			return nil, err
		}
		p := &entity.Product{
			ID:       id,
			Name:     name,
			HSNCode:  rec.str("hsn_code"),
			PackSize: rec.str("pack_size"),
			IsActive: rec.boolean("active", true),
		}
		if p.HSNCode != "" {
			if err := utils.ValidateHSN(p.HSNCode); err != nil {
				return nil, rec.errorf("hsn_code", "%v", err)
			}
		}
		if p.MRP, err = rec.decimal("mrp"); err != nil {
			return nil, err
		}
		if p.SalePrice, err = rec.decimal("sale_price"); err != nil {
			return nil, err
		}
		if p.GSTPercent, err = rec.decimal("gst_percent"); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func parseBatches(rows []row) ([]*entity.Batch, error) {
	batches := make([]*entity.Batch, 0, len(rows))
	for _, rec := range rows {
		productID, err := rec.required("product_id")
		if err != nil {
			return nil, err
		}
		number, err := rec.required("batch_number")
		if err != nil {
			return nil, err
		}
		b := &entity.Batch{
			ID:          rec.str("id"),
			ProductID:   productID,
			BatchNumber: number,
		}
		if b.ID == "" {
			b.ID = productID + ":" + number
		}
		if b.ExpiryDate, err = rec.date("expiry_date"); err != nil {
			return nil, err
		}
		if b.QuantityAvailable, err = rec.integer("quantity"); err != nil {
			return nil, err
		}
		if b.MRP, err = rec.decimal("mrp"); err != nil {
			return nil, err
		}
		if b.SalePrice, err = rec.decimal("sale_price"); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// parseCustomers keeps customers with a malformed GSTIN but logs them, since the
// number is only printed
func (r *XLSXReader) parseCustomers(rows []row) ([]*entity.Customer, error) {
	customers := make([]*entity.Customer, 0, len(rows))
	for _, rec := range rows {
		id, err := rec.required("id")
		if err != nil {
			return nil, err
		}
		c := &entity.Customer{
			ID:      id,
			Name:    rec.str("name"),
			GSTIN:   strings.ToUpper(rec.str("gstin")),
			Address: rec.str("address"),
			Phone:   rec.str("phone"),
		}
		if c.GSTIN != "" {
			if err := utils.ValidateGSTIN(c.GSTIN); err != nil {
				r.logger.Warn("Customer GSTIN looks invalid",
					zap.String("customer_id", id),
					zap.Int("row", rec.number),
					zap.Error(err))
			}
		}
		if c.CreditLimit, err = rec.decimal("credit_limit"); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, nil
}
