package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cyclecount/pkg/config"
	mongotx "cyclecount/pkg/db/mongo"
	"cyclecount/pkg/model"
)

const (
	CollectionName = "Count_submissions"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.CountSubmission) error
	FindAll(ctx context.Context, countedBy string, limit int, offset int64) ([]*model.CountSubmission, error)
	Count(ctx context.Context, countedBy string) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountVarianceSince(ctx context.Context, since time.Time, withVariance bool) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSubmissionRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSubmissionRepository(cfg *config.Config) SubmissionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSubmissionRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoSubmissionRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoSubmissionRepository) Create(ctx context.Context, submission *model.CountSubmission) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	submission.SubmittedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, submission)
	if err != nil {
		return fmt.Errorf("failed to create count submission: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		submission.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSubmissionRepository) FindAll(ctx context.Context, countedBy string, limit int, offset int64) ([]*model.CountSubmission, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if countedBy != "" {
		filter["counted_by"] = countedBy
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find count submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var submissions []*model.CountSubmission
	if err = cursor.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode count submissions: %w", err)
	}

	return submissions, nil
}

func (r *mongoSubmissionRepository) Count(ctx context.Context, countedBy string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if countedBy != "" {
		filter["counted_by"] = countedBy
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

func (r *mongoSubmissionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"submitted_at": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions since %s: %w", since.Format(time.RFC3339), err)
	}
	return count, nil
}

func (r *mongoSubmissionRepository) CountVarianceSince(ctx context.Context, since time.Time, withVariance bool) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	varianceFilter := bson.M{"$eq": 0}
	if withVariance {
		varianceFilter = bson.M{"$ne": 0}
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"submitted_at": bson.M{"$gte": since},
		"variance":     varianceFilter,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions by variance: %w", err)
	}
	return count, nil
}

func (r *mongoSubmissionRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
