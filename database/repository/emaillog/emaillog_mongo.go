package emaillogRepo

import (
	"context"
	"fmt"
	"time"

	"solera/database"
	"solera/models"
	"solera/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEmailLogRepo is the MongoDB-backed dedup ledger.
type MongoEmailLogRepo struct {
	coll *mongo.Collection
}

// NewMongoEmailLogRepo constructs a repository over the email_sent_log collection.
func NewMongoEmailLogRepo() *MongoEmailLogRepo {
	return &MongoEmailLogRepo{coll: database.EmailLogCollection()}
}

// HasBeenSent checks for an existing ledger row for the exact key tuple
// within the last 24 hours.
func (repo *MongoEmailLogRepo) HasBeenSent(ctx context.Context, bookingID *string, emailType, status, recipient string, now int64) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"booking_id":      bookingID,
		"email_type":      emailType,
		"status":          status,
		"recipient_email": recipient,
		"sent_at":         bson.M{"$gt": now - models.DedupWindowSeconds},
	}
	count, err := repo.coll.CountDocuments(ctxWithTimeout, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, utils.NewInternalError("error querying email ledger", err)
	}
	return count > 0, nil
}

// LogSent inserts a new ledger row. A duplicate-key error means a concurrent
// writer already logged this send; that is the dedup mechanism working, so it
// is swallowed rather than surfaced.
func (repo *MongoEmailLogRepo) LogSent(ctx context.Context, entry *models.EmailSentLog) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry.DayBucket = models.EmailDayBucket(entry.SentAt)
	_, err := repo.coll.InsertOne(ctxWithTimeout, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return utils.NewInternalError("error writing email ledger entry", err)
	}
	return nil
}

// PruneBefore removes ledger rows older than the cutoff.
func (repo *MongoEmailLogRepo) PruneBefore(ctx context.Context, cutoff int64) (int64, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := repo.coll.DeleteMany(ctxWithTimeout, bson.M{"sent_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, utils.NewInternalError("error pruning email ledger", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the unique dedup index on the ledger collection.
func (repo *MongoEmailLogRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// The dedup key: one row per tuple per day bucket. This index, not
		// any in-process lock, is what absorbs concurrent dispatch passes.
		{
			Keys: bson.D{
				{Key: "booking_id", Value: 1},
				{Key: "email_type", Value: 1},
				{Key: "status", Value: 1},
				{Key: "recipient_email", Value: 1},
				{Key: "day_bucket", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("unique_dedup_key"),
		},
		// Supports the rolling-window lookup and retention pruning.
		{
			Keys:    bson.D{{Key: "sent_at", Value: 1}},
			Options: options.Index().SetName("sent_at_idx"),
		},
	}

	_, err := repo.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create email ledger indexes: %w", err)
	}
	return nil
}
