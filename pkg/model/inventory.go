package model

import "time"

// InventoryItem is one row of the imported expected-quantity workbook.
type InventoryItem struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Location    string    `json:"location" bson:"location"`
	PalletID    string    `json:"pallet_id,omitempty" bson:"pallet_id,omitempty"`
	SKU         string    `json:"sku,omitempty" bson:"sku,omitempty"`
	Lot         string    `json:"lot,omitempty" bson:"lot,omitempty"`
	ExpectedQty int       `json:"expected_qty" bson:"expected_qty"`
	BatchID     string    `json:"batch_id" bson:"batch_id"`
	SourceSheet string    `json:"source_sheet" bson:"source_sheet"`
	RowNum      int       `json:"row_num" bson:"row_num"`
	ImportedAt  time.Time `json:"imported_at" bson:"imported_at"`
}

// ColumnMapping describes where the importer finds its columns in the
// uploaded workbook. Column values are header names, not letters.
// ExpectedCol is the only required column; the rest widen the lookup.
type ColumnMapping struct {
	SheetName   string `json:"sheet_name" bson:"sheet_name" validate:"required"`
	HeaderRow   int    `json:"header_row" bson:"header_row" validate:"min=0"`
	ExpectedCol string `json:"expected_col" bson:"expected_col" validate:"required"`
	LocationCol string `json:"location_col,omitempty" bson:"location_col,omitempty"`
	PalletCol   string `json:"pallet_col,omitempty" bson:"pallet_col,omitempty"`
	SKUCol      string `json:"sku_col,omitempty" bson:"sku_col,omitempty"`
	LotCol      string `json:"lot_col,omitempty" bson:"lot_col,omitempty"`
}

// ImportResult summarizes one workbook import.
type ImportResult struct {
	BatchID     string `json:"batch_id"`
	SheetName   string `json:"sheet_name"`
	RowsRead    int    `json:"rows_read"`
	RowsStored  int    `json:"rows_stored"`
	RowsSkipped int    `json:"rows_skipped"`
}

// ExpectedQtyLookup carries the values a lookup may filter on.
type ExpectedQtyLookup struct {
	Location string
	PalletID string
	SKU      string
	Lot      string
}
