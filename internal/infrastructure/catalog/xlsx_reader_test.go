package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, values := range rows {
			axis, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			values := values
			require.NoError(t, f.SetSheetRow(name, axis, &values))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXReader_Read(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		SheetProducts: {
			{"ID", "Name", "HSN_Code", "MRP", "Sale_Price", "GST_Percent", "Active"},
			{"p1", " Paracetamol 500mg ", "30049099", "32.50", 25, 12, "yes"},
			{"p2", "Cough Syrup", "", "70", "60", "18", "no"},
			{"", "", "", "", "", "", ""},
		},
		SheetBatches: {
			{"product_id", "batch_number", "expiry_date", "quantity", "mrp", "sale_price", "id"},
			{"p1", "PCM-03", "2025-03-31", 10, "", "", "b-mar"},
			{"p1", "PCM-06", "06/2025", "5", "33", "26", ""},
			{"p2", "CS-01", "", "0", "", "", ""},
		},
		SheetCustomers: {
			{"id", "name", "gstin", "credit_limit"},
			{"c1", "City Medicals", "27aapfu0939f1zv", "50000"},
			{"c2", "Lake View Chemists", "27AAPFU0939F1ZA", ""},
		},
	})

	snapshot, err := NewXLSXReader(zap.NewNop()).Read(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, snapshot.Products, 2)
	p1 := snapshot.Products[0]
	assert.Equal(t, "p1", p1.ID)
	assert.Equal(t, "Paracetamol 500mg", p1.Name)
	assert.Equal(t, "32.5", p1.MRP.String())
	assert.Equal(t, "25", p1.SalePrice.String())
	assert.Equal(t, "12", p1.GSTPercent.String())
	assert.True(t, p1.IsActive)
	assert.False(t, snapshot.Products[1].IsActive)

	require.Len(t, snapshot.Batches, 3)
	assert.Equal(t, "b-mar", snapshot.Batches[0].ID)
	assert.Equal(t, int64(10), snapshot.Batches[0].QuantityAvailable)
	assert.Equal(t, "2025-03-31", snapshot.Batches[0].ExpiryDate.Format("2006-01-02"))
	assert.Equal(t, "p1:PCM-06", snapshot.Batches[1].ID)
	assert.Equal(t, "2025-06-30", snapshot.Batches[1].ExpiryDate.Format("2006-01-02"), "month-year means end of month")
	assert.Equal(t, "26", snapshot.Batches[1].SalePrice.String())
	assert.Nil(t, snapshot.Batches[2].ExpiryDate)

	require.Len(t, snapshot.Customers, 2)
	assert.Equal(t, "27AAPFU0939F1ZV", snapshot.Customers[0].GSTIN)
	assert.Equal(t, "50000", snapshot.Customers[0].CreditLimit.String())
	assert.Equal(t, "27AAPFU0939F1ZA", snapshot.Customers[1].GSTIN, "bad GSTIN is kept")
}

func TestXLSXReader_ExcelSerialDate(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		SheetBatches: {
			{"product_id", "batch_number", "expiry_date", "quantity"},
			{"p1", "PCM-03", 45747, 10},
		},
	})

	snapshot, err := NewXLSXReader(zap.NewNop()).Read(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, snapshot.Batches, 1)
	assert.Equal(t, "2025-03-31", snapshot.Batches[0].ExpiryDate.Format("2006-01-02"))
	assert.Empty(t, snapshot.Products)
}

func TestXLSXReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sheets  map[string][][]interface{}
		wantErr string
	}{
		{
			name:    "no known sheets",
			sheets:  map[string][][]interface{}{"Stock": {{"a"}}},
			wantErr: "has none of the sheets",
		},
		{
			name: "missing product name",
			sheets: map[string][][]interface{}{SheetProducts: {
				{"id", "name"},
				{"p1", ""},
			}},
			wantErr: "Products row 2: name is required",
		},
		{
			name: "bad HSN",
			sheets: map[string][][]interface{}{SheetProducts: {
				{"id", "name", "hsn_code"},
				{"p1", "Paracetamol", "30A"},
			}},
			wantErr: "hsn_code",
		},
		{
			name: "fractional stock",
			sheets: map[string][][]interface{}{SheetBatches: {
				{"product_id", "batch_number", "quantity"},
				{"p1", "PCM-03", "2.5"},
			}},
			wantErr: "Batches row 2: quantity must be a whole number",
		},
		{
			name: "negative price",
			sheets: map[string][][]interface{}{SheetBatches: {
				{"product_id", "batch_number", "mrp"},
				{"p1", "PCM-03", "-4"},
			}},
			wantErr: "mrp cannot be negative",
		},
		{
			name: "unparseable expiry",
			sheets: map[string][][]interface{}{SheetBatches: {
				{"product_id", "batch_number", "expiry_date"},
				{"p1", "PCM-03", "soon"},
			}},
			wantErr: "expiry_date is not a date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeWorkbook(t, tt.sheets)

			_, err := NewXLSXReader(zap.NewNop()).Read(context.Background(), path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestXLSXReader_MissingFile(t *testing.T) {
	_, err := NewXLSXReader(zap.NewNop()).Read(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
