package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"

	inventoryerrors "cyclecount/internal/inventory/errors"
	"cyclecount/pkg/config"
	mongotx "cyclecount/pkg/db/mongo"
	apperrors "cyclecount/pkg/errors"
	"cyclecount/pkg/logger"
	"cyclecount/pkg/model"
)

type mockInventoryRepository struct {
	replaceBatchFunc    func(ctx context.Context, batchID string, items []*model.InventoryItem) error
	findExpectedQtyFunc func(ctx context.Context, filter bson.M) (int, error)
	saveMappingFunc     func(ctx context.Context, mapping *model.ColumnMapping) error
	getMappingFunc      func(ctx context.Context) (*model.ColumnMapping, error)
}

func (m *mockInventoryRepository) ReplaceBatch(ctx context.Context, batchID string, items []*model.InventoryItem) error {
	if m.replaceBatchFunc != nil {
		return m.replaceBatchFunc(ctx, batchID, items)
	}
	return nil
}

func (m *mockInventoryRepository) FindExpectedQty(ctx context.Context, filter bson.M) (int, error) {
	if m.findExpectedQtyFunc != nil {
		return m.findExpectedQtyFunc(ctx, filter)
	}
	return 0, inventoryerrors.ErrNotFound
}

func (m *mockInventoryRepository) CountItems(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockInventoryRepository) SaveMapping(ctx context.Context, mapping *model.ColumnMapping) error {
	if m.saveMappingFunc != nil {
		return m.saveMappingFunc(ctx, mapping)
	}
	return nil
}

func (m *mockInventoryRepository) GetMapping(ctx context.Context) (*model.ColumnMapping, error) {
	if m.getMappingFunc != nil {
		return m.getMappingFunc(ctx)
	}
	return nil, inventoryerrors.ErrNoMapping
}

func (m *mockInventoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func testService(repo *mockInventoryRepository) InventoryService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewInventoryService(repo, &config.Config{Log: log})
}

func workbookBytes(t *testing.T) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	cells := map[string]any{
		"A1": "Location", "B1": "Expected Qty",
		"A2": "A-01-01", "B2": "10",
		"A3": "A-01-02", "B3": "20",
	}
	for cell, value := range cells {
		if err := f.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatalf("set cell: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImport_RequiresMapping(t *testing.T) {
	svc := testService(&mockInventoryRepository{})

	_, err := svc.Import(context.Background(), workbookBytes(t), "", nil)
	if err == nil {
		t.Fatal("expected error with no mapping configured")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestImport_ReplacesBatch(t *testing.T) {
	var storedBatch string
	var storedItems []*model.InventoryItem
	repo := &mockInventoryRepository{
		getMappingFunc: func(ctx context.Context) (*model.ColumnMapping, error) {
			return &model.ColumnMapping{
				SheetName:   "Sheet1",
				ExpectedCol: "Expected Qty",
				LocationCol: "Location",
			}, nil
		},
		replaceBatchFunc: func(ctx context.Context, batchID string, items []*model.InventoryItem) error {
			storedBatch = batchID
			storedItems = items
			return nil
		},
	}
	svc := testService(repo)

	result, err := svc.Import(context.Background(), workbookBytes(t), "", nil)
	if err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}

	if result.RowsStored != 2 {
		t.Errorf("RowsStored = %d, want 2", result.RowsStored)
	}
	if storedBatch != result.BatchID {
		t.Errorf("stored batch %q does not match result %q", storedBatch, result.BatchID)
	}
	if len(storedItems) != 2 {
		t.Errorf("stored %d items, want 2", len(storedItems))
	}
}

func TestImport_SheetOverride(t *testing.T) {
	repo := &mockInventoryRepository{
		getMappingFunc: func(ctx context.Context) (*model.ColumnMapping, error) {
			return &model.ColumnMapping{
				SheetName:   "Old Sheet",
				ExpectedCol: "Expected Qty",
			}, nil
		},
	}
	svc := testService(repo)

	// Mapping points at a sheet that no longer exists; the override
	// redirects the import to the real one.
	result, err := svc.Import(context.Background(), workbookBytes(t), "Sheet1", nil)
	if err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}
	if result.SheetName != "Sheet1" {
		t.Errorf("SheetName = %q, want Sheet1", result.SheetName)
	}
}

func TestImport_BadUpload(t *testing.T) {
	svc := testService(&mockInventoryRepository{
		getMappingFunc: func(ctx context.Context) (*model.ColumnMapping, error) {
			return &model.ColumnMapping{SheetName: "Sheet1", ExpectedCol: "Expected Qty"}, nil
		},
	})

	_, err := svc.Import(context.Background(), bytes.NewReader([]byte("not a workbook")), "", nil)
	if err == nil {
		t.Fatal("expected error for a non-xlsx upload")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestSaveMapping_Validation(t *testing.T) {
	svc := testService(&mockInventoryRepository{})

	tests := []struct {
		name    string
		mapping *model.ColumnMapping
		wantErr bool
	}{
		{
			name: "valid",
			mapping: &model.ColumnMapping{
				SheetName:   "Sheet1",
				ExpectedCol: "Expected Qty",
			},
			wantErr: false,
		},
		{
			name: "missing sheet",
			mapping: &model.ColumnMapping{
				ExpectedCol: "Expected Qty",
			},
			wantErr: true,
		},
		{
			name: "missing expected column",
			mapping: &model.ColumnMapping{
				SheetName: "Sheet1",
			},
			wantErr: true,
		},
		{
			name: "whitespace only sheet",
			mapping: &model.ColumnMapping{
				SheetName:   "   ",
				ExpectedCol: "Expected Qty",
			},
			wantErr: true,
		},
		{
			name: "negative header row",
			mapping: &model.ColumnMapping{
				SheetName:   "Sheet1",
				ExpectedCol: "Expected Qty",
				HeaderRow:   -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SaveMapping(context.Background(), tt.mapping)
			if (err != nil) != tt.wantErr {
				t.Errorf("SaveMapping() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveExpectedQty_StrategyOrder(t *testing.T) {
	var filters []bson.M
	repo := &mockInventoryRepository{
		findExpectedQtyFunc: func(ctx context.Context, filter bson.M) (int, error) {
			filters = append(filters, filter)
			return 0, inventoryerrors.ErrNotFound
		},
	}
	svc := testService(repo)

	qty, found, err := svc.ResolveExpectedQty(context.Background(), model.ExpectedQtyLookup{
		Location: "A-01-01",
		PalletID: "PLT-1",
		SKU:      "SKU100",
		Lot:      "LOT-9",
	})
	if err != nil {
		t.Fatalf("ResolveExpectedQty() unexpected error: %v", err)
	}
	if found || qty != 0 {
		t.Errorf("expected no match, got qty=%d found=%v", qty, found)
	}

	want := []bson.M{
		{"pallet_id": "PLT-1", "location": "A-01-01"},
		{"pallet_id": "PLT-1"},
		{"location": "A-01-01"},
		{"sku": "SKU100", "lot": "LOT-9"},
		{"sku": "SKU100"},
	}
	if len(filters) != len(want) {
		t.Fatalf("tried %d strategies, want %d", len(filters), len(want))
	}
	for i := range want {
		if len(filters[i]) != len(want[i]) {
			t.Errorf("strategy %d filter = %v, want %v", i, filters[i], want[i])
			continue
		}
		for key, value := range want[i] {
			if filters[i][key] != value {
				t.Errorf("strategy %d filter = %v, want %v", i, filters[i], want[i])
				break
			}
		}
	}
}

func TestResolveExpectedQty_FirstMatchWins(t *testing.T) {
	calls := 0
	repo := &mockInventoryRepository{
		findExpectedQtyFunc: func(ctx context.Context, filter bson.M) (int, error) {
			calls++
			if calls == 2 {
				return 42, nil
			}
			return 0, inventoryerrors.ErrNotFound
		},
	}
	svc := testService(repo)

	qty, found, err := svc.ResolveExpectedQty(context.Background(), model.ExpectedQtyLookup{
		Location: "A-01-01",
		PalletID: "PLT-1",
	})
	if err != nil {
		t.Fatalf("ResolveExpectedQty() unexpected error: %v", err)
	}
	if !found || qty != 42 {
		t.Errorf("got qty=%d found=%v, want 42 from the pallet strategy", qty, found)
	}
	if calls != 2 {
		t.Errorf("made %d lookups, want 2", calls)
	}
}

func TestResolveExpectedQty_SkipsIncompleteStrategies(t *testing.T) {
	var filters []bson.M
	repo := &mockInventoryRepository{
		findExpectedQtyFunc: func(ctx context.Context, filter bson.M) (int, error) {
			filters = append(filters, filter)
			return 0, inventoryerrors.ErrNotFound
		},
	}
	svc := testService(repo)

	// Without a pallet or lot, only the location and sku strategies
	// qualify; a missing value disqualifies rather than widens.
	_, _, err := svc.ResolveExpectedQty(context.Background(), model.ExpectedQtyLookup{
		Location: "A-01-01",
		SKU:      "SKU100",
	})
	if err != nil {
		t.Fatalf("ResolveExpectedQty() unexpected error: %v", err)
	}

	if len(filters) != 2 {
		t.Fatalf("tried %d strategies, want 2", len(filters))
	}
	if _, ok := filters[0]["location"]; !ok || len(filters[0]) != 1 {
		t.Errorf("first strategy = %v, want location only", filters[0])
	}
	if _, ok := filters[1]["sku"]; !ok || len(filters[1]) != 1 {
		t.Errorf("second strategy = %v, want sku only", filters[1])
	}
}

func TestResolveExpectedQty_SanitizesLookup(t *testing.T) {
	var filter bson.M
	repo := &mockInventoryRepository{
		findExpectedQtyFunc: func(ctx context.Context, f bson.M) (int, error) {
			filter = f
			return 5, nil
		},
	}
	svc := testService(repo)

	_, _, err := svc.ResolveExpectedQty(context.Background(), model.ExpectedQtyLookup{
		Location: " tun 01 a ",
		PalletID: "plt-7",
	})
	if err != nil {
		t.Fatalf("ResolveExpectedQty() unexpected error: %v", err)
	}
	if filter["location"] != "TUN-01-A" || filter["pallet_id"] != "PLT-7" {
		t.Errorf("lookup not sanitized: %v", filter)
	}
}
