package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mdelaney/renewal-ops/internal/core"
)

type ComparisonRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewComparisonRepo(db *mongodrv.Database, opTimeout time.Duration) *ComparisonRepoMongo {
	return &ComparisonRepoMongo{
		coll:      db.Collection(ColComparisons),
		opTimeout: opTimeout,
	}
}

func (repo *ComparisonRepoMongo) Create(ctx context.Context, c core.RenewalComparison) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	doc := toComparisonDoc(c)
	_, err := repo.coll.InsertOne(ctx, doc)
	if err != nil {
		var we mongodrv.WriteException
		if errors.As(err, &we) {
			for _, e := range we.WriteErrors {
				if e.Code == 11000 {
					return core.ErrComparisonExists
				}
			}
		}
		return fmt.Errorf("comparisons.insert: %w", err)
	}
	return nil
}

func (repo *ComparisonRepoMongo) Get(ctx context.Context, id string) (core.RenewalComparison, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	var doc ComparisonDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.RenewalComparison{}, core.ErrComparisonNotFound
		}
		return core.RenewalComparison{}, fmt.Errorf("comparisons.findOne: %w", err)
	}
	return fromComparisonDoc(doc), nil
}

func (repo *ComparisonRepoMongo) List(ctx context.Context, filter core.ComparisonFilter, limit, offset int) ([]core.RenewalComparison, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	mongoFilter := bson.M{}
	if filter.Status != "" {
		mongoFilter["status"] = string(filter.Status)
	}
	if filter.Line != "" {
		mongoFilter["line"] = string(filter.Line)
	}

	// Get total count
	total, err := repo.coll.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("comparisons.count: %w", err)
	}

	// Get paginated results
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := repo.coll.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("comparisons.find: %w", err)
	}
	defer cursor.Close(ctx)

	var comparisons []core.RenewalComparison
	for cursor.Next(ctx) {
		var doc ComparisonDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("comparisons.decode: %w", err)
		}
		comparisons = append(comparisons, fromComparisonDoc(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("comparisons.cursor: %w", err)
	}

	return comparisons, total, nil
}

func (repo *ComparisonRepoMongo) SetCheckReview(ctx context.Context, id, ruleID, field string, reviewed bool, by string, at *time.Time, updatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	set := bson.M{
		"checks.$[c].reviewed": reviewed,
		"updated_at":           updatedAt,
	}
	unset := bson.M{}
	if reviewed {
		set["checks.$[c].reviewed_by"] = by
		set["checks.$[c].reviewed_at"] = at
	} else {
		unset["checks.$[c].reviewed_by"] = ""
		unset["checks.$[c].reviewed_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"c.rule_id": ruleID, "c.field": field}},
	})

	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": id, "checks": bson.M{"$elemMatch": bson.M{"rule_id": ruleID, "field": field}}},
		update, opts)
	if err != nil {
		return fmt.Errorf("comparisons.setCheckReview: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing comparison from a missing check
		if _, getErr := repo.Get(ctx, id); getErr != nil {
			return getErr
		}
		return core.ErrCheckNotFound
	}
	return nil
}

func (repo *ComparisonRepoMongo) RecordDecision(ctx context.Context, id string, d core.Decision, from, to core.ComparisonStatus) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	if from.Terminal() {
		return core.ErrDecisionConflict
	}

	recoverable := bson.A{}
	for _, k := range core.RecoverableDecisionKinds() {
		recoverable = append(recoverable, string(k))
	}

	// The filter is the at-most-one-final-decision guard: the write
	// lands only while the stage still matches the one the caller read,
	// no final decision exists, and the status is not terminal.
	filter := bson.M{
		"_id":    id,
		"status": string(from),
		"$or": bson.A{
			bson.M{"decision": bson.M{"$exists": false}},
			bson.M{"decision": nil},
			bson.M{"decision.kind": bson.M{"$in": recoverable}},
		},
	}

	doc := toDecisionDoc(d)
	set := bson.M{
		"decision":   doc,
		"status":     string(to),
		"updated_at": d.DecidedAt,
	}
	// Only a real stage transition queues a CRM replay.
	if from != to {
		set["status_synced"] = false
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"decision_history": doc},
	}

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("comparisons.recordDecision: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, getErr := repo.Get(ctx, id); getErr != nil {
			return getErr
		}
		// The comparison exists but a final decision beat this one
		return core.ErrDecisionConflict
	}
	return nil
}

func (repo *ComparisonRepoMongo) Cancel(ctx context.Context, id string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(core.StatusPending)},
		bson.M{"$set": bson.M{
			"status":        string(core.StatusCancelled),
			"status_synced": false,
			"updated_at":    now,
		}})
	if err != nil {
		return fmt.Errorf("comparisons.cancel: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, getErr := repo.Get(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: only pending comparisons can be cancelled", core.ErrInvalidState)
	}
	return nil
}

func (repo *ComparisonRepoMongo) FindUnsynced(ctx context.Context, limit int) ([]core.RenewalComparison, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "updated_at", Value: 1}})

	cursor, err := repo.coll.Find(ctx, bson.M{"status_synced": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("comparisons.findUnsynced: %w", err)
	}
	defer cursor.Close(ctx)

	var comparisons []core.RenewalComparison
	for cursor.Next(ctx) {
		var doc ComparisonDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("comparisons.decode: %w", err)
		}
		comparisons = append(comparisons, fromComparisonDoc(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("comparisons.cursor: %w", err)
	}
	return comparisons, nil
}

func (repo *ComparisonRepoMongo) MarkSynced(ctx context.Context, id string, status core.ComparisonStatus) error {
	ctx, cancel := context.WithTimeout(ctx, repo.opTimeout)
	defer cancel()

	// Conditional on the status so a move that raced the replay keeps
	// its unsynced flag for the next poll.
	_, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(status)},
		bson.M{"$set": bson.M{"status_synced": true}})
	if err != nil {
		return fmt.Errorf("comparisons.markSynced: %w", err)
	}
	return nil
}
