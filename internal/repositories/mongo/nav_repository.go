package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fund-analytics-api/internal/models"
	"fund-analytics-api/internal/repositories"
)

// MongoNAVRepository implements NAVRepository using MongoDB
type MongoNAVRepository struct {
	collection *mongo.Collection
}

// NewNAVRepository creates a new MongoDB NAV history repository
func NewNAVRepository(db *mongo.Database) repositories.NAVRepository {
	return &MongoNAVRepository{
		collection: db.Collection("nav_history"),
	}
}

// Upsert inserts or replaces a single NAV observation
func (r *MongoNAVRepository) Upsert(ctx context.Context, record *models.NAVRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid NAV record: %w", err)
	}

	filter := bson.M{"scheme_code": record.SchemeCode, "date": record.Date}
	update := bson.M{
		"$set": bson.M{
			"nav": record.NAV,
		},
		"$setOnInsert": bson.M{
			"scheme_code": record.SchemeCode,
			"date":        record.Date,
			"created_at":  time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert NAV record: %w", err)
	}

	return nil
}

// BulkUpsert inserts or replaces a batch of NAV observations. Returns the
// number of writes applied. Invalid records are skipped, not fatal.
func (r *MongoNAVRepository) BulkUpsert(ctx context.Context, records []models.NAVRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var writes []mongo.WriteModel
	for i := range records {
		if records[i].Validate() != nil {
			continue
		}
		filter := bson.M{"scheme_code": records[i].SchemeCode, "date": records[i].Date}
		update := bson.M{
			"$set": bson.M{
				"nav": records[i].NAV,
			},
			"$setOnInsert": bson.M{
				"scheme_code": records[i].SchemeCode,
				"date":        records[i].Date,
				"created_at":  time.Now(),
			},
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(update).
			SetUpsert(true))
	}

	if len(writes) == 0 {
		return 0, nil
	}

	result, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to bulk upsert NAV records: %w", err)
	}

	return result.UpsertedCount + result.ModifiedCount, nil
}

// GetHistory retrieves the full NAV series for a scheme, oldest first
func (r *MongoNAVRepository) GetHistory(ctx context.Context, schemeCode string) ([]models.NAVPoint, error) {
	return r.findPoints(ctx, bson.M{"scheme_code": schemeCode})
}

// GetHistoryRange retrieves NAV observations within a date range
func (r *MongoNAVRepository) GetHistoryRange(ctx context.Context, schemeCode string, from, to time.Time) ([]models.NAVPoint, error) {
	filter := bson.M{
		"scheme_code": schemeCode,
		"date":        bson.M{"$gte": from, "$lte": to},
	}
	return r.findPoints(ctx, filter)
}

func (r *MongoNAVRepository) findPoints(ctx context.Context, filter bson.M) ([]models.NAVPoint, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV history: %w", err)
	}
	defer cursor.Close(ctx)

	var points []models.NAVPoint
	if err := cursor.All(ctx, &points); err != nil {
		return nil, fmt.Errorf("failed to decode NAV history: %w", err)
	}

	return points, nil
}

// GetLatest retrieves the most recent NAV observation for a scheme
func (r *MongoNAVRepository) GetLatest(ctx context.Context, schemeCode string) (*models.NAVRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})

	var record models.NAVRecord
	err := r.collection.FindOne(ctx, bson.M{"scheme_code": schemeCode}, opts).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, repositories.ErrFundNotFound
		}
		return nil, fmt.Errorf("failed to get latest NAV: %w", err)
	}

	return &record, nil
}

// Count returns the number of stored observations for a scheme
func (r *MongoNAVRepository) Count(ctx context.Context, schemeCode string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"scheme_code": schemeCode})
	if err != nil {
		return 0, fmt.Errorf("failed to count NAV records: %w", err)
	}
	return count, nil
}

// DeleteBefore removes observations older than the cutoff
func (r *MongoNAVRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"date": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old NAV records: %w", err)
	}
	return result.DeletedCount, nil
}
