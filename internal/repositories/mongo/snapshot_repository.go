package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fund-analytics-api/internal/models"
	"fund-analytics-api/internal/repositories"
)

// MongoSnapshotRepository implements SnapshotRepository using MongoDB
type MongoSnapshotRepository struct {
	collection *mongo.Collection
}

// NewSnapshotRepository creates a new MongoDB score snapshot repository
func NewSnapshotRepository(db *mongo.Database) repositories.SnapshotRepository {
	return &MongoSnapshotRepository{
		collection: db.Collection("score_snapshots"),
	}
}

// Create persists a new score snapshot
func (r *MongoSnapshotRepository) Create(ctx context.Context, snapshot *models.ScoreSnapshot) error {
	if snapshot.ID.IsZero() {
		snapshot.ID = primitive.NewObjectID()
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("failed to create score snapshot: %w", err)
	}

	return nil
}

// BulkCreate persists a batch of snapshots from the precompute job
func (r *MongoSnapshotRepository) BulkCreate(ctx context.Context, snapshots []models.ScoreSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	docs := make([]interface{}, len(snapshots))
	for i := range snapshots {
		if snapshots[i].ID.IsZero() {
			snapshots[i].ID = primitive.NewObjectID()
		}
		if snapshots[i].Timestamp.IsZero() {
			snapshots[i].Timestamp = time.Now()
		}
		docs[i] = snapshots[i]
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to bulk create score snapshots: %w", err)
	}

	return nil
}

// GetHistory retrieves snapshots for a scheme, newest first
func (r *MongoSnapshotRepository) GetHistory(ctx context.Context, schemeCode string, limit int) ([]models.ScoreSnapshot, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"scheme_code": schemeCode}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}
	defer cursor.Close(ctx)

	var snapshots []models.ScoreSnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode score snapshots: %w", err)
	}

	return snapshots, nil
}

// GetLatest retrieves the most recent snapshot for a scheme
func (r *MongoSnapshotRepository) GetLatest(ctx context.Context, schemeCode string) (*models.ScoreSnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	var snapshot models.ScoreSnapshot
	err := r.collection.FindOne(ctx, bson.M{"scheme_code": schemeCode}, opts).Decode(&snapshot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, repositories.ErrFundNotFound
		}
		return nil, fmt.Errorf("failed to get latest score snapshot: %w", err)
	}

	return &snapshot, nil
}

// DeleteOlderThan removes snapshots past the retention window
func (r *MongoSnapshotRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := r.collection.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old score snapshots: %w", err)
	}

	return result.DeletedCount, nil
}
