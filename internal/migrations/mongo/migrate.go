package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cyclecount/internal/migrations/mongo/validators"
)

var (
	AssignmentsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "locked_until", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	// expireAfterSeconds 0 lets expires_at itself carry the deadline.
	AssignmentLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	InventoryItemsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "pallet_id", Value: 1}, {Key: "location", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: 1}}},
		{Keys: bson.D{{Key: "sku", Value: 1}, {Key: "lot", Value: 1}}},
		{Keys: bson.D{{Key: "batch_id", Value: 1}}},
	}

	CountSubmissionsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "counted_by", Value: 1}, {Key: "submitted_at", Value: -1}}},
		{Keys: bson.D{{Key: "assignment_id", Value: 1}}},
		{Keys: bson.D{{Key: "submitted_at", Value: -1}, {Key: "variance", Value: 1}}},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("Running cycle count Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Assignments": {
			Indexes:   AssignmentsIndexes,
			Validator: validators.AssignmentValidator,
		},
		"Assignment_locks": {
			Indexes:   AssignmentLocksIndexes,
			Validator: validators.AssignmentLockValidator,
		},
		"Inventory_items": {
			Indexes:   InventoryItemsIndexes,
			Validator: validators.InventoryItemValidator,
		},
		"Column_mapping": {
			Validator: validators.ColumnMappingValidator,
		},
		"Count_submissions": {
			Indexes:   CountSubmissionsIndexes,
			Validator: validators.CountSubmissionValidator,
		},
		"User_settings": {
			Validator: validators.UserSettingsValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("Collection %s already exists - updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("Ensured indexes for %s\n", name)
	return nil
}
