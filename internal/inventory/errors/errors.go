package errors

import "errors"

var (
	ErrNoMapping = errors.New("no column mapping configured")

	ErrSheetNotFound = errors.New("sheet not found in workbook")

	ErrMissingExpectedCol = errors.New("expected quantity column not found in header row")

	ErrNotFound = errors.New("inventory item not found")

	ErrEmptyWorkbook = errors.New("workbook contains no usable rows")
)
