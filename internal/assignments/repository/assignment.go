package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	assignmenterrors "cyclecount/internal/assignments/errors"
	"cyclecount/pkg/config"
	mongotx "cyclecount/pkg/db/mongo"
	"cyclecount/pkg/model"
)

const (
	CollectionName = "Assignments"
)

type mongoAssignmentRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	FindByID(ctx context.Context, id string) (*model.Assignment, error)
	FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Assignment, error)
	FindByUser(ctx context.Context, userName string, openOnly bool, limit int, offset int64) ([]*model.Assignment, error)
	FindOpenByLocation(ctx context.Context, location string) (*model.Assignment, error)
	Update(ctx context.Context, id string, assignment *model.Assignment) (*mongo.UpdateResult, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, status string) (int64, error)
	CountByUser(ctx context.Context, userName string, openOnly bool) (int64, error)
	RevertExpiredInProgress(ctx context.Context, now time.Time) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoAssignmentRepository(cfg *config.Config) AssignmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAssignmentRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoAssignmentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	assignment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		assignment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", assignmenterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}

	var assignment model.Assignment
	err = r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, assignmenterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}

	return &assignment, nil
}

func (r *mongoAssignmentRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Assignment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignments: %w", err)
	}
	defer cursor.Close(ctx)

	var assignments []*model.Assignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}

	return assignments, nil
}

func (r *mongoAssignmentRepository) FindByUser(ctx context.Context, userName string, openOnly bool, limit int, offset int64) ([]*model.Assignment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.buildUserFilter(userName, openOnly)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignments for user: %w", err)
	}
	defer cursor.Close(ctx)

	var assignments []*model.Assignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}

	return assignments, nil
}

// FindOpenByLocation returns the open assignment whose claim window
// still covers a location, or ErrNotFound when the location is free.
// An open assignment past its locked_until no longer blocks the
// location.
func (r *mongoAssignmentRepository) FindOpenByLocation(ctx context.Context, location string) (*model.Assignment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"location":     location,
		"status":       bson.M{"$in": []string{model.StatusAssigned, model.StatusInProgress}},
		"locked_until": bson.M{"$gt": time.Now().UTC()},
	}

	var assignment model.Assignment
	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, assignmenterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find assignment by location: %w", err)
	}

	return &assignment, nil
}

func (r *mongoAssignmentRepository) Update(ctx context.Context, id string, assignment *model.Assignment) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", assignmenterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set": bson.M{
			"assigned_to":  assignment.AssignedTo,
			"pallet_id":    assignment.PalletID,
			"sku":          assignment.SKU,
			"lot":          assignment.Lot,
			"expected_qty": assignment.ExpectedQty,
			"status":       assignment.Status,
			"locked_until": assignment.LockedUntil,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, assignmenterrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoAssignmentRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", assignmenterrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment status: %w", err)
	}

	if result.MatchedCount == 0 {
		return assignmenterrors.ErrNotFound
	}

	return nil
}

func (r *mongoAssignmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", assignmenterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	if result.DeletedCount == 0 {
		return assignmenterrors.ErrNotFound
	}

	return nil
}

func (r *mongoAssignmentRepository) Count(ctx context.Context, status string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	return count, nil
}

func (r *mongoAssignmentRepository) CountByUser(ctx context.Context, userName string, openOnly bool) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, r.buildUserFilter(userName, openOnly))
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments for user: %w", err)
	}

	return count, nil
}

// RevertExpiredInProgress flips in_progress assignments whose location
// claim lapsed back to assigned, so the sweeper can hand them out again.
func (r *mongoAssignmentRepository) RevertExpiredInProgress(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"status":       model.StatusInProgress,
		"locked_until": bson.M{"$lt": now},
	}

	result, err := r.collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"status": model.StatusAssigned},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to revert expired assignments: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *mongoAssignmentRepository) buildUserFilter(userName string, openOnly bool) bson.M {
	filter := bson.M{"assigned_to": userName}
	if openOnly {
		filter["status"] = bson.M{"$in": []string{model.StatusAssigned, model.StatusInProgress}}
	}
	return filter
}

func (r *mongoAssignmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
