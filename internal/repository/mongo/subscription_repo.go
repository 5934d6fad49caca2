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

const subscriptionCollectionName = "subscriptions"

type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new Subscription repository backed by MongoDB.
func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{
		collection: db.Collection(subscriptionCollectionName),
	}
}

func (r *mongoSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	if sub.UserID == primitive.NilObjectID || sub.PlanType == "" {
		return primitive.NilObjectID, errors.New("subscription requires userId and planType")
	}
	sub.ID = primitive.NewObjectID()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.UpdatedAt = sub.CreatedAt

	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

func (r *mongoSubscriptionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subscription, error) {
	var sub domain.Subscription
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByUser returns all of a user's subscriptions, newest first.
func (r *mongoSubscriptionRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.Subscription](ctx, r.collection, bson.M{"userId": userID}, findOptions)
}

func (r *mongoSubscriptionRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	if err := findOne(ctx, r.collection, bson.M{"checkoutSessionId": sessionID}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Update writes the mutable billing fields of a subscription.
func (r *mongoSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	if sub.ID == primitive.NilObjectID {
		return errors.New("subscription ID is required for update")
	}
	sub.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"status":            sub.Status,
		"startDate":         sub.StartDate,
		"checkoutSessionId": sub.CheckoutSessionID,
		"updatedAt":         sub.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if sub.EndDate != nil {
		set["endDate"] = *sub.EndDate
	} else {
		update["$unset"] = bson.M{"endDate": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": sub.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "checkoutSessionId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
}
