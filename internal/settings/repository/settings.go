package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	settingserrors "cyclecount/internal/settings/errors"
	"cyclecount/pkg/config"
	"cyclecount/pkg/model"
)

const (
	CollectionName = "User_settings"
)

type SettingsRepository interface {
	Find(ctx context.Context, userName string) (*model.UserSettings, error)
	Upsert(ctx context.Context, settings *model.UserSettings) error
}

type mongoSettingsRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSettingsRepository(cfg *config.Config) SettingsRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSettingsRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoSettingsRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoSettingsRepository) Find(ctx context.Context, userName string) (*model.UserSettings, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var settings model.UserSettings
	err := r.collection.FindOne(ctx, bson.M{"_id": userName}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, settingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user settings: %w", err)
	}

	return &settings, nil
}

func (r *mongoSettingsRepository) Upsert(ctx context.Context, settings *model.UserSettings) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	settings.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	update := bson.M{"$set": bson.M{
		"language":     settings.Language,
		"sound_on":     settings.SoundOn,
		"vibration_on": settings.VibrationOn,
		"timezone":     settings.Timezone,
		"updated_at":   settings.UpdatedAt,
	}}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": settings.UserName}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert user settings: %w", err)
	}

	return nil
}
