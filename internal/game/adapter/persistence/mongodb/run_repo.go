package mongodb

import (
	"context"
	"errors"

	"territory-run/internal/game/domain/model"
	apperrors "territory-run/internal/shared/errors"
	"territory-run/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const runsCollection = "runs"

// MongoRunRepository persists immutable run records.
type MongoRunRepository struct {
	runs *mongo.Collection
	log  logger.Logger
}

// NewMongoRunRepository creates the repository and ensures its indexes.
func NewMongoRunRepository(db *mongo.Database, log logger.Logger) (*MongoRunRepository, error) {
	repo := &MongoRunRepository{
		runs: db.Collection(runsCollection),
		log:  log.WithComponent("run-repository"),
	}

	ctx := context.Background()

	idIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.runs.Indexes().CreateOne(ctx, idIndex); err != nil {
		return nil, err
	}

	// Serves the newest-first listing per user.
	userIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	}
	if _, err := repo.runs.Indexes().CreateOne(ctx, userIndex); err != nil {
		return nil, err
	}

	return repo, nil
}

// Create inserts a run record.
func (r *MongoRunRepository) Create(ctx context.Context, run *model.Run) error {
	if _, err := r.runs.InsertOne(ctx, run); err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}

// GetByID returns the run with the given id, or ErrRunNotFound.
func (r *MongoRunRepository) GetByID(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run
	err := r.runs.FindOne(ctx, bson.M{"id": id}).Decode(&run)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrRunNotFound
		}
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return &run, nil
}

// ListByUser returns the user's most recent runs, newest first.
func (r *MongoRunRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.runs.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	defer cursor.Close(ctx)

	runs := make([]model.Run, 0)
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return runs, nil
}
