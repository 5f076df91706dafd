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

// MongoFundRepository implements FundRepository using MongoDB
type MongoFundRepository struct {
	collection *mongo.Collection
}

// NewFundRepository creates a new MongoDB fund repository
func NewFundRepository(db *mongo.Database) repositories.FundRepository {
	return &MongoFundRepository{
		collection: db.Collection("funds"),
	}
}

// Create creates a new fund
func (r *MongoFundRepository) Create(ctx context.Context, fund *models.Fund) error {
	if fund.ID.IsZero() {
		fund.ID = primitive.NewObjectID()
	}
	fund.CreatedAt = time.Now()
	fund.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, fund)
	if err != nil {
		// Concurrent registration of the same scheme is not an error
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to create fund: %w", err)
	}

	return nil
}

// GetBySchemeCode retrieves a fund by its scheme code
func (r *MongoFundRepository) GetBySchemeCode(ctx context.Context, schemeCode string) (*models.Fund, error) {
	var fund models.Fund
	err := r.collection.FindOne(ctx, bson.M{"scheme_code": schemeCode}).Decode(&fund)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, repositories.ErrFundNotFound
		}
		return nil, fmt.Errorf("failed to get fund %s: %w", schemeCode, err)
	}

	return &fund, nil
}

// GetBySchemeCodes retrieves multiple funds at once
func (r *MongoFundRepository) GetBySchemeCodes(ctx context.Context, schemeCodes []string) ([]*models.Fund, error) {
	filter := bson.M{"scheme_code": bson.M{"$in": schemeCodes}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get funds: %w", err)
	}
	defer cursor.Close(ctx)

	var funds []*models.Fund
	if err := cursor.All(ctx, &funds); err != nil {
		return nil, fmt.Errorf("failed to decode funds: %w", err)
	}

	return funds, nil
}

// Update updates an existing fund
func (r *MongoFundRepository) Update(ctx context.Context, fund *models.Fund) error {
	fund.UpdatedAt = time.Now()

	filter := bson.M{"scheme_code": fund.SchemeCode}
	update := bson.M{"$set": fund}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update fund: %w", err)
	}

	if result.MatchedCount == 0 {
		return repositories.ErrFundNotFound
	}

	return nil
}

// UpdateMetrics replaces only the computed metrics and metadata
func (r *MongoFundRepository) UpdateMetrics(ctx context.Context, schemeCode string, metrics models.FundMetrics, metadata models.FundMetadata) error {
	filter := bson.M{"scheme_code": schemeCode}
	update := bson.M{
		"$set": bson.M{
			"metrics":    metrics,
			"metadata":   metadata,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update fund metrics: %w", err)
	}

	if result.MatchedCount == 0 {
		return repositories.ErrFundNotFound
	}

	return nil
}

// Delete deletes a fund by scheme code
func (r *MongoFundRepository) Delete(ctx context.Context, schemeCode string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"scheme_code": schemeCode})
	if err != nil {
		return fmt.Errorf("failed to delete fund: %w", err)
	}

	if result.DeletedCount == 0 {
		return repositories.ErrFundNotFound
	}

	return nil
}

// List retrieves funds with optional category filter and pagination
func (r *MongoFundRepository) List(ctx context.Context, category string, limit, offset int) ([]*models.Fund, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "scheme_code", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	defer cursor.Close(ctx)

	var funds []*models.Fund
	if err := cursor.All(ctx, &funds); err != nil {
		return nil, fmt.Errorf("failed to decode funds: %w", err)
	}

	return funds, nil
}

// GetNeedingRecalculation retrieves funds flagged for metric recomputation
func (r *MongoFundRepository) GetNeedingRecalculation(ctx context.Context, limit int) ([]*models.Fund, error) {
	filter := bson.M{"metadata.needs_recalculation": true}
	opts := options.Find().SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get funds needing recalculation: %w", err)
	}
	defer cursor.Close(ctx)

	var funds []*models.Fund
	if err := cursor.All(ctx, &funds); err != nil {
		return nil, fmt.Errorf("failed to decode funds: %w", err)
	}

	return funds, nil
}

// MarkForRecalculation flags a fund for the precompute job
func (r *MongoFundRepository) MarkForRecalculation(ctx context.Context, schemeCode string) error {
	filter := bson.M{"scheme_code": schemeCode}
	update := bson.M{
		"$set": bson.M{
			"metadata.needs_recalculation": true,
			"updated_at":                   time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark fund for recalculation: %w", err)
	}

	if result.MatchedCount == 0 {
		return repositories.ErrFundNotFound
	}

	return nil
}

// GetByManager retrieves every fund run by the named manager
func (r *MongoFundRepository) GetByManager(ctx context.Context, managerName string) ([]*models.Fund, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"manager_name": managerName})
	if err != nil {
		return nil, fmt.Errorf("failed to get funds by manager: %w", err)
	}
	defer cursor.Close(ctx)

	var funds []*models.Fund
	if err := cursor.All(ctx, &funds); err != nil {
		return nil, fmt.Errorf("failed to decode funds: %w", err)
	}

	return funds, nil
}

// GetFundStats retrieves aggregate statistics across all funds
func (r *MongoFundRepository) GetFundStats(ctx context.Context) (*repositories.FundStats, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count funds: %w", err)
	}

	pending, err := r.collection.CountDocuments(ctx, bson.M{"metadata.needs_recalculation": true})
	if err != nil {
		return nil, fmt.Errorf("failed to count pending funds: %w", err)
	}

	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":         "$category",
			"count":       bson.M{"$sum": 1},
			"avg_expense": bson.M{"$avg": "$expense_ratio"},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate fund stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := &repositories.FundStats{
		TotalFunds:         total,
		NeedsRecalculation: pending,
		FundsByCategory:    make(map[string]int),
	}

	var expenseSum float64
	var groups int
	for cursor.Next(ctx) {
		var group struct {
			Category   string  `bson:"_id"`
			Count      int     `bson:"count"`
			AvgExpense float64 `bson:"avg_expense"`
		}
		if err := cursor.Decode(&group); err != nil {
			return nil, fmt.Errorf("failed to decode fund stats group: %w", err)
		}
		stats.FundsByCategory[group.Category] = group.Count
		expenseSum += group.AvgExpense
		groups++
	}

	if groups > 0 {
		stats.AverageExpenseRatio = expenseSum / float64(groups)
	}

	return stats, nil
}
