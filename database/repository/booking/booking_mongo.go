package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solera/database"
	"solera/models"
	"solera/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo is the production MongoDB-backed booking repository.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a repository over the bookings collection.
func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{coll: database.BookingCollection()}
}

// validateStatus rejects unknown status values at the storage boundary
// instead of letting them flow into the state machine.
func validateStatus(b *models.Booking) error {
	if _, ok := models.ParseBookingStatus(string(b.Status)); !ok {
		return utils.NewInternalError(fmt.Sprintf("booking %s has unknown status %q", b.ID, b.Status), nil)
	}
	return nil
}

func (repo *MongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctxWithTimeout, filter).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewNotFoundError()
	}
	if err != nil {
		return nil, utils.NewInternalError("error fetching booking", err)
	}
	if err := validateStatus(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return repo.findOne(ctx, bson.M{"id": id})
}

// GetByResponseToken resolves the booking owning a capability token.
func (repo *MongoBookingRepo) GetByResponseToken(ctx context.Context, token string) (*models.Booking, error) {
	return repo.findOne(ctx, bson.M{"response_token": token})
}

// FindActive returns up to limit bookings that are not in a terminal status.
func (repo *MongoBookingRepo) FindActive(ctx context.Context, limit int64) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"status": bson.M{"$nin": models.TerminalStatuses()}}
	opts := options.Find().SetLimit(limit)
	cursor, err := repo.coll.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, utils.NewInternalError("error fetching active bookings", err)
	}
	defer cursor.Close(ctxWithTimeout)

	return repo.decodeAll(ctxWithTimeout, cursor)
}

// FindAcceptedStartingBetween returns accepted bookings starting in [from, to).
func (repo *MongoBookingRepo) FindAcceptedStartingBetween(ctx context.Context, from, to int64) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     models.StatusAccepted,
		"start_date": bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := repo.coll.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, utils.NewInternalError("error fetching upcoming bookings", err)
	}
	defer cursor.Close(ctxWithTimeout)

	return repo.decodeAll(ctxWithTimeout, cursor)
}

func (repo *MongoBookingRepo) decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]models.Booking, error) {
	var bookings []models.Booking
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, utils.NewInternalError("error decoding booking", err)
		}
		if err := validateStatus(&b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewInternalError("cursor error reading bookings", err)
	}
	return bookings, nil
}

// UpdateStatusIfCurrent performs the compare-and-swap status transition. The
// filter includes the expected current status so a concurrent actor that
// already moved the booking elsewhere makes this a no-op, never an overwrite.
func (repo *MongoBookingRepo) UpdateStatusIfCurrent(ctx context.Context, id string, from, to models.BookingStatus, now int64) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": now}}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return false, utils.NewInternalError(fmt.Sprintf("error updating booking %s", id), err)
	}
	return res.MatchedCount == 1, nil
}

// AttachDepositEvidence stores the evidence URL and moves pending_deposit to
// paid_deposit in one conditional update.
func (repo *MongoBookingRepo) AttachDepositEvidence(ctx context.Context, id, evidenceURL string, now int64) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.StatusPendingDeposit}
	update := bson.M{"$set": bson.M{
		"deposit_evidence_url": evidenceURL,
		"status":               models.StatusPaidDeposit,
		"updated_at":           now,
	}}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return false, utils.NewInternalError(fmt.Sprintf("error attaching evidence to booking %s", id), err)
	}
	return res.MatchedCount == 1, nil
}

// CountByStatus aggregates bookings per status.
func (repo *MongoBookingRepo) CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := repo.coll.Aggregate(ctxWithTimeout, pipeline)
	if err != nil {
		return nil, utils.NewInternalError("error aggregating booking counts", err)
	}
	defer cursor.Close(ctxWithTimeout)

	counts := make(map[models.BookingStatus]int64)
	for cursor.Next(ctxWithTimeout) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, utils.NewInternalError("error decoding booking counts", err)
		}
		status, ok := models.ParseBookingStatus(row.Status)
		if !ok {
			return nil, utils.NewInternalError(fmt.Sprintf("unknown status %q in booking counts", row.Status), nil)
		}
		counts[status] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewInternalError("cursor error reading booking counts", err)
	}
	return counts, nil
}
