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

const libraryCollectionName = "library_items"

// mongoLibraryRepository implements repository.LibraryRepository
type mongoLibraryRepository struct {
	collection *mongo.Collection
}

// NewMongoLibraryRepository creates a new library repository backed by MongoDB.
func NewMongoLibraryRepository(db *mongo.Database) repository.LibraryRepository {
	return &mongoLibraryRepository{
		collection: db.Collection(libraryCollectionName),
	}
}

// Create inserts a new exercise or recipe.
func (r *mongoLibraryRepository) Create(ctx context.Context, item *domain.LibraryItem) (primitive.ObjectID, error) {
	if item.Name == "" || item.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("library item name and coach ID are required")
	}

	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByID retrieves a library item by its ID.
func (r *mongoLibraryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.LibraryItem, error) {
	var item domain.LibraryItem
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByCoach retrieves a coach's items of one kind, or of every kind when
// kind is empty.
func (r *mongoLibraryRepository) GetByCoach(ctx context.Context, coachID primitive.ObjectID, kind domain.LibraryKind) ([]domain.LibraryItem, error) {
	filter := bson.M{"coachId": coachID}
	if kind != "" {
		filter["kind"] = kind
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}) // Sort by newest first
	return findAll[domain.LibraryItem](ctx, r.collection, filter, findOptions)
}

// Update modifies an existing item. The owner and kind never change.
func (r *mongoLibraryRepository) Update(ctx context.Context, item *domain.LibraryItem) error {
	if item.ID == primitive.NilObjectID {
		return errors.New("library item ID is required for update")
	}
	if item.Name == "" {
		return errors.New("library item name cannot be empty")
	}

	filter := bson.M{"_id": item.ID, "coachId": item.CoachID}
	item.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":        item.Name,
			"description": item.Description,
			"muscleGroup": item.MuscleGroup,
			"difficulty":  item.Difficulty,
			"videoUrl":    item.VideoURL,
			"calories":    item.Calories,
			"ingredients": item.Ingredients,
			"updatedAt":   item.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an item, ensuring it belongs to the specified coach.
// Another coach's item is reported as not found.
func (r *mongoLibraryRepository) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "coachId": coachID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureLibraryIndexes creates necessary indexes for the library collection.
func EnsureLibraryIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("library_text_search"),
		},
	})
}
