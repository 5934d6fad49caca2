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

const assignmentCollectionName = "assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment. The partial unique index on active
// assignments turns a second active assignment into repository.ErrDuplicate.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error) {
	if assignment.ProgramID == primitive.NilObjectID || assignment.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires programId and clientId")
	}

	assignment.ID = primitive.NewObjectID()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	assignment.UpdatedAt = assignment.AssignedAt
	if assignment.Status == "" { // Default status if not provided
		assignment.Status = domain.AssignmentActive
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error) {
	var assignment domain.ProgramAssignment
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *mongoAssignmentRepository) GetActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	var assignment domain.ProgramAssignment
	filter := bson.M{"clientId": clientID, "status": domain.AssignmentActive}
	if err := findOne(ctx, r.collection, filter, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GetLatestByClient retrieves the client's most recent assignment.
func (r *mongoAssignmentRepository) GetLatestByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	var assignment domain.ProgramAssignment
	opts := options.FindOne().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	if err := findOne(ctx, r.collection, bson.M{"clientId": clientID}, &assignment, opts); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GetByClient retrieves all assignments for a client, newest first.
func (r *mongoAssignmentRepository) GetByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ProgramAssignment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	return findAll[domain.ProgramAssignment](ctx, r.collection, bson.M{"clientId": clientID}, findOptions)
}

// UpdateStatus is a compare-and-set on the status field.
func (r *mongoAssignmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.AssignmentStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":    to,
			"updatedAt": time.Now().UTC(),
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

func (r *mongoAssignmentRepository) HasActiveForProgram(ctx context.Context, programID primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"programId": programID, "status": domain.AssignmentActive},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// At most one active assignment per client
			Keys: bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index().
				SetName("one_active_per_client").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.AssignmentActive}),
		},
		{
			// A specific client's assignments sorted by date
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "assignedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	})
}
