package export

import (
	"context"
	"fmt"

	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet layout
const (
	sheetName = "Invoice"

	rowCompany   = 1
	rowTitle     = 5
	rowBillTo    = 7
	rowHeader    = 10
	rowFirstLine = 11

	lastColumn = "L"
)

var lineHeaders = []string{
	"Sr", "Product", "HSN", "Batch", "Expiry", "Qty", "Free", "Rate", "Disc %", "Amount", "GST %", "GST Amt",
}

var documentTitles = map[string]string{
	entity.DocumentKindInvoice:  "TAX INVOICE",
	entity.DocumentKindChallan:  "DELIVERY CHALLAN",
	entity.DocumentKindPurchase: "PURCHASE ENTRY",
}

// ExcelExporter renders committed orders as xlsx workbooks
type ExcelExporter struct {
	fontFamily string
	logger     *zap.Logger
}

// NewExcelExporter creates a new exporter. An empty fontFamily keeps the excelize default.
func NewExcelExporter(fontFamily string, logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{
		fontFamily: fontFamily,
		logger:     logger,
	}
}

// Export builds the workbook: seller and buyer block, one row per line, the
// rate-wise GST table and the totals with round-off and amount in words.
func (e *ExcelExporter) Export(ctx context.Context, header port.InvoiceHeader, order *entity.Order, summary entity.Summary) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := e.newStyles(file)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{file: file}
	e.writeHeader(w, styles, header, order)
	next := e.writeLines(w, styles, order.Lines)
	next = e.writeTaxTable(w, styles, summary, next+1)
	e.writeTotals(w, styles, summary, next+1)

	if w.err != nil {
		return nil, fmt.Errorf("failed to fill workbook: %w", w.err)
	}

	for col, width := range map[string]float64{"A": 5, "B": 32, "C": 11, "D": 12, "E": 11, "J": 13, "L": 12} {
		if err := file.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Order rendered",
		zap.String("order_id", order.ID),
		zap.Int("lines", len(order.Lines)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

type exportStyles struct {
	title  int
	bold   int
	header int
	money  int
}

func (e *ExcelExporter) newStyles(file *excelize.File) (exportStyles, error) {
	var s exportStyles
	var err error

	font := func(bold bool, size float64) *excelize.Font {
		return &excelize.Font{Bold: bold, Size: size, Family: e.fontFamily}
	}

	if s.title, err = file.NewStyle(&excelize.Style{
		Font:      font(true, 14),
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, fmt.Errorf("failed to create title style: %w", err)
	}
	if s.bold, err = file.NewStyle(&excelize.Style{Font: font(true, 11)}); err != nil {
		return s, fmt.Errorf("failed to create bold style: %w", err)
	}
	if s.header, err = file.NewStyle(&excelize.Style{
		Font:   font(true, 11),
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	}); err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyFormat := "#,##0.00"
	if s.money, err = file.NewStyle(&excelize.Style{Font: font(false, 11), CustomNumFmt: &moneyFormat}); err != nil {
		return s, fmt.Errorf("failed to create money style: %w", err)
	}
	return s, nil
}

func (e *ExcelExporter) writeHeader(w *sheetWriter, s exportStyles, header port.InvoiceHeader, order *entity.Order) {
	w.set(cell("A", rowCompany), header.CompanyName)
	w.style(cell("A", rowCompany), cell("A", rowCompany), s.title)
	w.merge(cell("A", rowCompany), cell(lastColumn, rowCompany))
	w.set(cell("A", rowCompany+1), header.CompanyAddress)
	if header.CompanyGSTIN != "" {
		w.set(cell("A", rowCompany+2), "GSTIN: "+header.CompanyGSTIN)
	}

	title, ok := documentTitles[order.DocumentKind]
	if !ok {
		title = order.DocumentKind
	}
	w.set(cell("A", rowTitle), title)
	w.style(cell("A", rowTitle), cell("A", rowTitle), s.title)
	w.merge(cell("A", rowTitle), cell(lastColumn, rowTitle))

	w.set(cell("I", rowBillTo), "No.")
	w.set(cell("J", rowBillTo), order.ID)
	w.set(cell("I", rowBillTo+1), "Date")
	w.set(cell("J", rowBillTo+1), order.CreatedAt.Format("02-01-2006"))

	w.set(cell("A", rowBillTo), "Bill To")
	w.style(cell("A", rowBillTo), cell("A", rowBillTo), s.bold)
	if c := header.Customer; c != nil {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		w.set(cell("B", rowBillTo), name)
		w.set(cell("B", rowBillTo+1), c.Address)
		if c.GSTIN != "" {
			w.set(cell("B", rowBillTo+2), "GSTIN: "+c.GSTIN)
		}
	}
}

// writeLines fills the line table and returns the first row after it
func (e *ExcelExporter) writeLines(w *sheetWriter, s exportStyles, lines []entity.OrderLine) int {
	w.row(cell("A", rowHeader), toCells(lineHeaders))
	w.style(cell("A", rowHeader), cell(lastColumn, rowHeader), s.header)

	row := rowFirstLine
	for _, l := range lines {
		name := l.ProductName
		if name == "" {
			name = l.ProductID
		}
		batch := l.BatchNumber
		if batch == "" {
			batch = l.BatchID
		}
		expiry := ""
		if l.ExpiryDate != nil {
			expiry = l.ExpiryDate.Format("01/2006")
		}

		w.row(cell("A", row), []interface{}{
			l.LineNo, name, l.HSNCode, batch, expiry,
			number(l.Quantity), number(l.FreeQuantity), money(l.UnitPrice), number(l.Discount),
			money(l.TotalPrice), number(l.TaxRate), money(l.TaxAmount),
		})
		row++
	}
	if row > rowFirstLine {
		w.style(cell("H", rowFirstLine), cell("H", row-1), s.money)
		w.style(cell("J", rowFirstLine), cell("J", row-1), s.money)
		w.style(cell("L", rowFirstLine), cell("L", row-1), s.money)
	}
	return row
}

// writeTaxTable fills the rate-wise GST summary starting at row and returns the
// first row after it
func (e *ExcelExporter) writeTaxTable(w *sheetWriter, s exportStyles, summary entity.Summary, row int) int {
	w.row(cell("A", row), toCells([]string{"", "GST Rate", "Taxable", "CGST", "SGST", "Total Tax"}))
	w.style(cell("A", row), cell("F", row), s.header)
	row++

	first := row
	for _, b := range summary.Buckets {
		label := b.Key
		if b.Key != pricing.BucketOther {
			label += "%"
		}
		w.row(cell("B", row), []interface{}{
			label, money(b.TaxableAmount), money(b.CGST), money(b.SGST), money(b.TaxAmount),
		})
		row++
	}
	if row > first {
		w.style(cell("C", first), cell("F", row-1), s.money)
	}
	return row
}

func (e *ExcelExporter) writeTotals(w *sheetWriter, s exportStyles, summary entity.Summary, row int) {
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Gross Amount", summary.TotalAmount},
		{"Discount", summary.DiscountAmount},
		{"Taxable Amount", summary.TaxableAmount},
		{"CGST", summary.CGST},
		{"SGST", summary.SGST},
		{"Other Charges", summary.AdditionalCharges},
		{"Round Off", summary.RoundOff},
		{"Net Amount", summary.NetAmount},
	}

	first := row
	for _, t := range totals {
		w.set(cell("J", row), t.label)
		w.set(cell("L", row), money(t.value))
		row++
	}
	w.style(cell("L", first), cell("L", row-1), s.money)
	w.style(cell("J", row-1), cell("J", row-1), s.bold)

	w.set(cell("A", row+1), summary.AmountInWords)
	w.style(cell("A", row+1), cell("A", row+1), s.bold)
	w.merge(cell("A", row+1), cell(lastColumn, row+1))
}

// sheetWriter keeps the first excelize error so the layout code stays linear
type sheetWriter struct {
	file *excelize.File
	err  error
}

func (w *sheetWriter) set(axis string, value interface{}) {
	if w.err == nil {
		w.err = w.file.SetCellValue(sheetName, axis, value)
	}
}

func (w *sheetWriter) row(axis string, values []interface{}) {
	if w.err == nil {
		w.err = w.file.SetSheetRow(sheetName, axis, &values)
	}
}

func (w *sheetWriter) style(from, to string, styleID int) {
	if w.err == nil {
		w.err = w.file.SetCellStyle(sheetName, from, to, styleID)
	}
}

func (w *sheetWriter) merge(from, to string) {
	if w.err == nil {
		w.err = w.file.MergeCell(sheetName, from, to)
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// money is a two-decimal float for display; the stored amounts stay exact
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func number(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
