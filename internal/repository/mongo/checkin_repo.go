package mongo

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const checkInCollectionName = "checkins"

type mongoCheckInRepository struct {
	collection *mongo.Collection
}

// NewMongoCheckInRepository creates a new CheckIn repository backed by MongoDB.
func NewMongoCheckInRepository(db *mongo.Database) repository.CheckInRepository {
	return &mongoCheckInRepository{
		collection: db.Collection(checkInCollectionName),
	}
}

func (r *mongoCheckInRepository) Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	if checkIn.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("check-in requires clientId")
	}
	checkIn.ID = primitive.NewObjectID()
	if checkIn.SubmittedAt.IsZero() {
		checkIn.SubmittedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, checkIn)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

func (r *mongoCheckInRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	var checkIn domain.CheckIn
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &checkIn); err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// pendingFilter matches check-ins without a coach response.
func pendingFilter() bson.M {
	return bson.M{"respondedAt": bson.M{"$exists": false}}
}

func (r *mongoCheckInRepository) HasPending(ctx context.Context, clientID primitive.ObjectID) (bool, error) {
	filter := pendingFilter()
	filter["clientId"] = clientID
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetPendingByCoach lists unanswered check-ins addressed to a coach, oldest first.
func (r *mongoCheckInRepository) GetPendingByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.CheckIn, error) {
	filter := pendingFilter()
	filter["coachId"] = coachID
	findOptions := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	return findAll[domain.CheckIn](ctx, r.collection, filter, findOptions)
}

// Respond stores the coach response. A check-in is answered once.
func (r *mongoCheckInRepository) Respond(ctx context.Context, id primitive.ObjectID, response string) error {
	filter := pendingFilter()
	filter["_id"] = id
	update := bson.M{
		"$set": bson.M{
			"response":    response,
			"respondedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrUpdateFailed
	}
	return nil
}

func (r *mongoCheckInRepository) AssignPendingToCoach(ctx context.Context, clientID, coachID primitive.ObjectID) (int64, error) {
	filter := pendingFilter()
	filter["clientId"] = clientID
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"coachId": coachID}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func EnsureCheckInIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "submittedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
}
