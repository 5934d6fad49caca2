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

const requestCollectionName = "requests"

type mongoRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoRequestRepository creates a new Request repository backed by MongoDB.
func NewMongoRequestRepository(db *mongo.Database) repository.RequestRepository {
	return &mongoRequestRepository{
		collection: db.Collection(requestCollectionName),
	}
}

func (r *mongoRequestRepository) Create(ctx context.Context, req *domain.Request) (primitive.ObjectID, error) {
	if req.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("request requires clientId")
	}
	req.ID = primitive.NewObjectID()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = domain.RequestPending
	}

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

func (r *mongoRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Request, error) {
	var req domain.Request
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetPending lists open requests, oldest first.
func (r *mongoRequestRepository) GetPending(ctx context.Context) ([]domain.Request, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return findAll[domain.Request](ctx, r.collection, bson.M{"status": domain.RequestPending}, findOptions)
}

func (r *mongoRequestRepository) ResolvePending(ctx context.Context, clientID, resolvedBy primitive.ObjectID, status domain.RequestStatus) (int64, error) {
	filter := bson.M{"clientId": clientID, "status": domain.RequestPending}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"resolvedAt": time.Now().UTC(),
			"resolvedBy": resolvedBy,
		},
	}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoRequestRepository) Update(ctx context.Context, req *domain.Request) error {
	set := bson.M{"status": req.Status}
	if req.ResolvedAt != nil {
		set["resolvedAt"] = *req.ResolvedAt
	}
	if req.ResolvedBy != nil {
		set["resolvedBy"] = *req.ResolvedBy
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": req.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureRequestIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index(),
		},
	})
}
