package service

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	inventoryerrors "cyclecount/internal/inventory/errors"
	"cyclecount/internal/inventory/importer"
	"cyclecount/internal/inventory/repository"
	"cyclecount/pkg/config"
	apperrors "cyclecount/pkg/errors"
	"cyclecount/pkg/model"
	"cyclecount/pkg/sanitizer"
)

type InventoryService interface {
	Import(ctx context.Context, workbook io.Reader, sheetOverride string, headerRowOverride *int) (*model.ImportResult, error)
	ListSheets(ctx context.Context, workbook io.Reader) ([]string, error)
	SaveMapping(ctx context.Context, mapping *model.ColumnMapping) error
	GetMapping(ctx context.Context) (*model.ColumnMapping, error)
	ResolveExpectedQty(ctx context.Context, lookup model.ExpectedQtyLookup) (int, bool, error)
}

type inventoryService struct {
	repo repository.InventoryRepository
	cfg  *config.Config
}

func NewInventoryService(repo repository.InventoryRepository, cfg *config.Config) InventoryService {
	return &inventoryService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *inventoryService) Import(ctx context.Context, workbook io.Reader, sheetOverride string, headerRowOverride *int) (*model.ImportResult, error) {
	mapping, err := s.repo.GetMapping(ctx)
	if err != nil {
		if errors.Is(err, inventoryerrors.ErrNoMapping) {
			return nil, apperrors.Conflict("No column mapping configured; set the mapping before importing")
		}
		return nil, apperrors.Internal("Failed to load column mapping", err)
	}

	if sheetOverride != "" {
		mapping.SheetName = sheetOverride
	}
	if headerRowOverride != nil {
		mapping.HeaderRow = *headerRowOverride
	}

	wb, err := importer.Open(workbook)
	if err != nil {
		return nil, apperrors.InvalidInput("Uploaded file is not a readable xlsx workbook")
	}
	defer wb.Close()

	items, result, err := wb.Parse(mapping)
	if err != nil {
		switch {
		case errors.Is(err, inventoryerrors.ErrSheetNotFound):
			return nil, apperrors.InvalidInput("Sheet not found in workbook: " + mapping.SheetName)
		case errors.Is(err, inventoryerrors.ErrMissingExpectedCol):
			return nil, apperrors.InvalidInput("Expected quantity column not found: " + mapping.ExpectedCol)
		case errors.Is(err, inventoryerrors.ErrEmptyWorkbook):
			return nil, apperrors.InvalidInput("Workbook contains no usable rows")
		}
		return nil, apperrors.Internal("Failed to parse workbook", err)
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.ReplaceBatch(sessCtx, result.BatchID, items); err != nil {
			return apperrors.Internal("Failed to store inventory batch", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to import inventory", "sheet", mapping.SheetName, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Inventory imported successfully",
		"batch_id", result.BatchID,
		"sheet", result.SheetName,
		"rows_stored", result.RowsStored,
		"rows_skipped", result.RowsSkipped,
	)
	return result, nil
}

func (s *inventoryService) ListSheets(_ context.Context, workbook io.Reader) ([]string, error) {
	wb, err := importer.Open(workbook)
	if err != nil {
		return nil, apperrors.InvalidInput("Uploaded file is not a readable xlsx workbook")
	}
	defer wb.Close()

	return wb.Sheets(), nil
}

func (s *inventoryService) SaveMapping(ctx context.Context, mapping *model.ColumnMapping) error {
	s.sanitizeMapping(mapping)
	if mapping.SheetName == "" || mapping.ExpectedCol == "" {
		return apperrors.Validation("Invalid column mapping", map[string]any{
			"sheet_name":   "required",
			"expected_col": "required",
		})
	}
	if mapping.HeaderRow < 0 {
		return apperrors.Validation("Invalid column mapping", map[string]any{
			"header_row": "must not be negative",
		})
	}

	if err := s.repo.SaveMapping(ctx, mapping); err != nil {
		s.cfg.Log.Error("Failed to save column mapping", "error", err)
		return apperrors.Internal("Failed to save column mapping", err)
	}

	s.cfg.Log.Info("Column mapping saved",
		"sheet", mapping.SheetName,
		"expected_col", mapping.ExpectedCol,
	)
	return nil
}

func (s *inventoryService) GetMapping(ctx context.Context) (*model.ColumnMapping, error) {
	mapping, err := s.repo.GetMapping(ctx)
	if err != nil {
		if errors.Is(err, inventoryerrors.ErrNoMapping) {
			return nil, apperrors.NotFound("Column mapping")
		}
		return nil, apperrors.Internal("Failed to load column mapping", err)
	}
	return mapping, nil
}

// ResolveExpectedQty tries lookups in order of specificity:
// pallet+location, pallet, location, sku+lot, sku. The first strategy
// whose values are all present and match a row wins.
func (s *inventoryService) ResolveExpectedQty(ctx context.Context, lookup model.ExpectedQtyLookup) (int, bool, error) {
	lookup.Location = sanitizer.SanitizeCode(lookup.Location)
	lookup.PalletID = sanitizer.SanitizeCode(lookup.PalletID)
	lookup.SKU = sanitizer.SanitizeCode(lookup.SKU)
	lookup.Lot = sanitizer.SanitizeCode(lookup.Lot)

	strategies := []bson.M{
		filterFor(map[string]string{"pallet_id": lookup.PalletID, "location": lookup.Location}),
		filterFor(map[string]string{"pallet_id": lookup.PalletID}),
		filterFor(map[string]string{"location": lookup.Location}),
		filterFor(map[string]string{"sku": lookup.SKU, "lot": lookup.Lot}),
		filterFor(map[string]string{"sku": lookup.SKU}),
	}

	for _, filter := range strategies {
		if filter == nil {
			continue
		}
		qty, err := s.repo.FindExpectedQty(ctx, filter)
		if err != nil {
			if errors.Is(err, inventoryerrors.ErrNotFound) {
				continue
			}
			return 0, false, err
		}
		return qty, true, nil
	}

	return 0, false, nil
}

// filterFor returns nil when any of the strategy's values is missing,
// which disqualifies the strategy rather than widening it.
func filterFor(fields map[string]string) bson.M {
	filter := bson.M{}
	for key, value := range fields {
		if value == "" {
			return nil
		}
		filter[key] = value
	}
	return filter
}

func (s *inventoryService) sanitizeMapping(m *model.ColumnMapping) {
	m.SheetName = sanitizer.TrimAndNormalize(m.SheetName)
	m.ExpectedCol = sanitizer.TrimAndNormalize(m.ExpectedCol)
	m.LocationCol = sanitizer.TrimAndNormalize(m.LocationCol)
	m.PalletCol = sanitizer.TrimAndNormalize(m.PalletCol)
	m.SKUCol = sanitizer.TrimAndNormalize(m.SKUCol)
	m.LotCol = sanitizer.TrimAndNormalize(m.LotCol)
}
