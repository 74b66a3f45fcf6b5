package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	inventoryerrors "cyclecount/internal/inventory/errors"
	"cyclecount/pkg/config"
	mongotx "cyclecount/pkg/db/mongo"
	"cyclecount/pkg/model"
)

const (
	CollectionName        = "Inventory_items"
	MappingCollectionName = "Column_mapping"

	// Single mapping document; reconfiguring replaces it.
	mappingDocID = "active"
)

type InventoryRepository interface {
	ReplaceBatch(ctx context.Context, batchID string, items []*model.InventoryItem) error
	FindExpectedQty(ctx context.Context, filter bson.M) (int, error)
	CountItems(ctx context.Context) (int64, error)
	SaveMapping(ctx context.Context, mapping *model.ColumnMapping) error
	GetMapping(ctx context.Context) (*model.ColumnMapping, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoInventoryRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	mappingCol *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoInventoryRepository(cfg *config.Config) InventoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInventoryRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		mappingCol: db.Collection(MappingCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoInventoryRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// ReplaceBatch inserts the new import and removes every older batch.
// Runs inside a transaction when given a session context.
func (r *mongoInventoryRepository) ReplaceBatch(ctx context.Context, batchID string, items []*model.InventoryItem) error {
	docs := make([]interface{}, len(items))
	for i, item := range items {
		docs[i] = item
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert inventory batch: %w", err)
	}

	if _, err := r.collection.DeleteMany(ctx, bson.M{"batch_id": bson.M{"$ne": batchID}}); err != nil {
		return fmt.Errorf("failed to drop previous inventory batches: %w", err)
	}

	return nil
}

// FindExpectedQty returns the expected quantity of the first row
// matching the filter, workbook order.
func (r *mongoInventoryRepository) FindExpectedQty(ctx context.Context, filter bson.M) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "row_num", Value: 1}})

	var item model.InventoryItem
	err := r.collection.FindOne(ctx, filter, opts).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, inventoryerrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up expected quantity: %w", err)
	}

	return item.ExpectedQty, nil
}

func (r *mongoInventoryRepository) CountItems(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory items: %w", err)
	}
	return count, nil
}

func (r *mongoInventoryRepository) SaveMapping(ctx context.Context, mapping *model.ColumnMapping) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"sheet_name":   mapping.SheetName,
		"header_row":   mapping.HeaderRow,
		"expected_col": mapping.ExpectedCol,
		"location_col": mapping.LocationCol,
		"pallet_col":   mapping.PalletCol,
		"sku_col":      mapping.SKUCol,
		"lot_col":      mapping.LotCol,
	}}

	opts := options.Update().SetUpsert(true)
	if _, err := r.mappingCol.UpdateOne(ctx, bson.M{"_id": mappingDocID}, update, opts); err != nil {
		return fmt.Errorf("failed to save column mapping: %w", err)
	}
	return nil
}

func (r *mongoInventoryRepository) GetMapping(ctx context.Context) (*model.ColumnMapping, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var mapping model.ColumnMapping
	err := r.mappingCol.FindOne(ctx, bson.M{"_id": mappingDocID}).Decode(&mapping)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrNoMapping
		}
		return nil, fmt.Errorf("failed to load column mapping: %w", err)
	}

	return &mapping, nil
}

func (r *mongoInventoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
