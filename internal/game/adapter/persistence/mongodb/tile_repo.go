package mongodb

import (
	"context"
	"errors"
	"time"

	"territory-run/internal/game/domain/geo"
	"territory-run/internal/game/domain/model"
	apperrors "territory-run/internal/shared/errors"
	"territory-run/internal/shared/logger"

	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tilesCollection = "tiles"

// claimRetries bounds the duplicate-key retry loop during concurrent
// first-touch creation of the same cell.
const claimRetries = 3

// MongoTileStore implements the TileStore interface using MongoDB. The
// unique compound index on (row, col) guarantees a single tile row per cell;
// the claim is one FindOneAndUpdate so read-previous-owner and
// write-new-owner cannot interleave with another transaction's write.
type MongoTileStore struct {
	tiles *mongo.Collection
	log   logger.Logger
}

// NewMongoTileStore creates the store and ensures its indexes.
func NewMongoTileStore(db *mongo.Database, log logger.Logger) (*MongoTileStore, error) {
	store := &MongoTileStore{
		tiles: db.Collection(tilesCollection),
		log:   log.WithComponent("tile-store"),
	}

	ctx := context.Background()

	// Cell identity index (unique). Concurrent first-touch creation races
	// resolve here: the second upsert hits E11000 and retries against the
	// winner's document.
	cellIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "row", Value: 1}, {Key: "col", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := store.tiles.Indexes().CreateOne(ctx, cellIndex); err != nil {
		return nil, err
	}

	// Owner index for leaderboard aggregation.
	ownerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}},
		Options: options.Index().SetSparse(true),
	}
	if _, err := store.tiles.Indexes().CreateOne(ctx, ownerIndex); err != nil {
		return nil, err
	}

	return store, nil
}

// GetByCell returns the tile for a cell, or ErrTileNotFound when absent.
func (s *MongoTileStore) GetByCell(ctx context.Context, cell geo.Cell) (*model.Tile, error) {
	var tile model.Tile
	err := s.tiles.FindOne(ctx, bson.M{"row": cell.Row, "col": cell.Col}).Decode(&tile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrTileNotFound
		}
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return &tile, nil
}

// UpsertClaim atomically claims a cell for ownerID and returns the previous
// owner. Create-or-update happens in a single conditional update; the
// pre-image comes back from the same atomic step, so no separate pre-read
// can go stale.
func (s *MongoTileStore) UpsertClaim(ctx context.Context, cell geo.Cell, bounds orb.Bound, ownerID string) (string, error) {
	now := time.Now().UTC()

	filter := bson.M{"row": cell.Row, "col": cell.Col}
	update := bson.M{
		"$set": bson.M{
			"owner_id":   ownerID,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"row":        cell.Row,
			"col":        cell.Col,
			"min_lat":    bounds.Min.Lat(),
			"min_lng":    bounds.Min.Lon(),
			"max_lat":    bounds.Max.Lat(),
			"max_lng":    bounds.Max.Lon(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var lastErr error
	for attempt := 0; attempt < claimRetries; attempt++ {
		var before model.Tile
		err := s.tiles.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
		if err == nil {
			return before.OwnerID, nil
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Upsert inserted a fresh tile; there was no previous owner.
			return "", nil
		}
		if mongo.IsDuplicateKeyError(err) {
			// Lost the first-touch creation race; the winner's tile exists
			// now, so the same update claims it on retry.
			s.log.WithContext(ctx).Debugf("duplicate cell (%d,%d) on claim, retrying", cell.Row, cell.Col)
			lastErr = err
			continue
		}
		return "", apperrors.NewStoreUnavailableError(err)
	}
	return "", apperrors.NewStoreUnavailableError(lastErr)
}

// RangeQuery returns tiles inside the inclusive cell-index box ordered by
// (row, col) ascending.
func (s *MongoTileStore) RangeQuery(ctx context.Context, rowMin, rowMax, colMin, colMax, limit int) ([]model.Tile, error) {
	filter := bson.M{
		"row": bson.M{"$gte": rowMin, "$lte": rowMax},
		"col": bson.M{"$gte": colMin, "$lte": colMax},
	}
	return s.findTiles(ctx, filter, limit)
}

// AllTiles returns up to limit tiles ordered by (row, col) ascending.
func (s *MongoTileStore) AllTiles(ctx context.Context, limit int) ([]model.Tile, error) {
	return s.findTiles(ctx, bson.M{}, limit)
}

func (s *MongoTileStore) findTiles(ctx context.Context, filter bson.M, limit int) ([]model.Tile, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "row", Value: 1}, {Key: "col", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.tiles.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	defer cursor.Close(ctx)

	tiles := make([]model.Tile, 0)
	if err := cursor.All(ctx, &tiles); err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return tiles, nil
}

// CountByOwner aggregates tile counts per owning user. Unowned tiles never
// contribute.
func (s *MongoTileStore) CountByOwner(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner_id": bson.M{"$exists": true, "$ne": ""}}}},
		{{Key: "$group", Value: bson.M{"_id": "$owner_id", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := s.tiles.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			OwnerID string `bson:"_id"`
			Count   int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, apperrors.NewStoreUnavailableError(err)
		}
		counts[row.OwnerID] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return counts, nil
}
