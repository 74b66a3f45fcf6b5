package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"cyclecount/pkg/config"
	"cyclecount/pkg/model"
)

const LockCollectionName = "Assignment_locks"

// AssignmentLockRepository provides operations for the per-location
// claim documents. The collection carries a TTL index on expires_at so
// abandoned locks age out on their own.
type AssignmentLockRepository interface {
	Create(ctx context.Context, lock *model.AssignmentLock) (*model.AssignmentLock, error)
	Find(ctx context.Context, location string) (*model.AssignmentLock, error)
	Delete(ctx context.Context, location string, expiresAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type mongoAssignmentLockRepository struct {
	collection *mongo.Collection
}

func NewAssignmentLockRepository(cfg *config.Config) AssignmentLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAssignmentLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Returns duplicate key error if the location is already claimed
func (r *mongoAssignmentLockRepository) Create(ctx context.Context, lock *model.AssignmentLock) (*model.AssignmentLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoAssignmentLockRepository) Find(ctx context.Context, location string) (*model.AssignmentLock, error) {
	var lock model.AssignmentLock
	err := r.collection.FindOne(ctx, bson.M{"_id": location}).Decode(&lock)
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// Delete removes the claim on a location. Only claims expiring at or
// before expiresAt are removed, so releasing a stale assignment cannot
// evict a newer counter's claim on the same location.
func (r *mongoAssignmentLockRepository) Delete(ctx context.Context, location string, expiresAt time.Time) error {
	filter := bson.M{
		"_id":        location,
		"expires_at": bson.M{"$lte": expiresAt},
	}
	_, err := r.collection.DeleteOne(ctx, filter)
	return err
}

// DeleteExpired sweeps lapsed claims. The TTL monitor only runs about
// once a minute, so the cron sweep keeps conflict errors honest in
// between.
func (r *mongoAssignmentLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
