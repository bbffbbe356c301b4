package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := ensureComparisonIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure comparison indexes: %w", err)
	}
	return nil
}

func ensureComparisonIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColComparisons)
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("comparisons_status_created"),
		},
		{Keys: bson.D{{Key: "line", Value: 1}},
			Options: options.Index().SetName("comparisons_line"),
		},
		{Keys: bson.D{{Key: "policy_number", Value: 1}},
			Options: options.Index().SetName("comparisons_policy_number"),
		},
		// Partial index: the CRM sync worker only scans unsynced docs
		{Keys: bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().
				SetName("comparisons_unsynced").
				SetPartialFilterExpression(bson.M{"status_synced": false}),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}
