package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	inventoryerrors "cyclecount/internal/inventory/errors"
	"cyclecount/pkg/model"
	"cyclecount/pkg/sanitizer"
)

// Workbook wraps an uploaded xlsx file.
type Workbook struct {
	file *excelize.File
}

func Open(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Parse extracts inventory items from the mapped sheet. Rows whose
// expected quantity cell cannot be read as a number are skipped, not
// failed; warehouse exports routinely carry subtotal and note rows.
func (w *Workbook) Parse(mapping *model.ColumnMapping) ([]*model.InventoryItem, *model.ImportResult, error) {
	if mapping == nil || mapping.ExpectedCol == "" {
		return nil, nil, inventoryerrors.ErrNoMapping
	}

	rows, err := w.file.GetRows(mapping.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", inventoryerrors.ErrSheetNotFound, mapping.SheetName)
	}
	if len(rows) <= mapping.HeaderRow {
		return nil, nil, inventoryerrors.ErrEmptyWorkbook
	}

	header := rows[mapping.HeaderRow]
	cols := headerIndex(header)

	expectedIdx, ok := findColumn(cols, mapping.ExpectedCol)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", inventoryerrors.ErrMissingExpectedCol, mapping.ExpectedCol)
	}
	locationIdx, _ := findColumn(cols, mapping.LocationCol)
	palletIdx, _ := findColumn(cols, mapping.PalletCol)
	skuIdx, _ := findColumn(cols, mapping.SKUCol)
	lotIdx, _ := findColumn(cols, mapping.LotCol)

	batchID := uuid.NewString()
	importedAt := time.Now().UTC()

	result := &model.ImportResult{
		BatchID:   batchID,
		SheetName: mapping.SheetName,
	}

	var items []*model.InventoryItem
	for i := mapping.HeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		result.RowsRead++

		qty, ok := coerceQty(cell(row, expectedIdx))
		if !ok {
			result.RowsSkipped++
			continue
		}

		item := &model.InventoryItem{
			Location:    sanitizer.SanitizeCode(cell(row, locationIdx)),
			PalletID:    sanitizer.SanitizeCode(cell(row, palletIdx)),
			SKU:         sanitizer.SanitizeCode(cell(row, skuIdx)),
			Lot:         sanitizer.SanitizeCode(cell(row, lotIdx)),
			ExpectedQty: qty,
			BatchID:     batchID,
			SourceSheet: mapping.SheetName,
			RowNum:      i + 1,
			ImportedAt:  importedAt,
		}

		// A row with a quantity but no identifying value at all is
		// unaddressable; count it as skipped.
		if item.Location == "" && item.PalletID == "" && item.SKU == "" {
			result.RowsSkipped++
			continue
		}

		items = append(items, item)
		result.RowsStored++
	}

	if result.RowsStored == 0 {
		return nil, nil, inventoryerrors.ErrEmptyWorkbook
	}

	return items, result, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if key == "" {
			continue
		}
		if _, exists := cols[key]; !exists {
			cols[key] = i
		}
	}
	return cols
}

func findColumn(cols map[string]int, name string) (int, bool) {
	if name == "" {
		return -1, false
	}
	idx, ok := cols[normalizeHeader(name)]
	if !ok {
		return -1, false
	}
	return idx, true
}

func normalizeHeader(name string) string {
	return strings.ToLower(sanitizer.TrimAndNormalize(name))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// coerceQty reads a cell as an integer, falling back through float for
// spreadsheet values like "12.0". Expected stock cannot go below zero,
// so negative cells are skipped like any other unreadable value.
func coerceQty(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		if f < 0 {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}
