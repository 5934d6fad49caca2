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

const programCollectionName = "programs"

// mongoProgramRepository implements repository.ProgramRepository. The week,
// day and block tree is embedded in the program document so a save is a
// single atomic replace.
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new Program repository.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("program requires createdBy")
	}
	program.ID = primitive.NewObjectID()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now().UTC()
	}
	if program.UpdatedAt.IsZero() {
		program.UpdatedAt = program.CreatedAt
	}
	if program.Weeks == nil {
		program.Weeks = []domain.Week{}
	}

	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByID retrieves a single program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	var program domain.Program
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &program); err != nil {
		return nil, err
	}
	return &program, nil
}

// GetByCoach lists a coach's programs, most recently updated first.
func (r *mongoProgramRepository) GetByCoach(ctx context.Context, coachID primitive.ObjectID, includeArchived bool) ([]domain.Program, error) {
	filter := bson.M{"createdBy": coachID}
	if !includeArchived {
		filter["state"] = bson.M{"$ne": domain.ProgramArchived}
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return findAll[domain.Program](ctx, r.collection, filter, findOptions)
}

// Update replaces the stored program document.
func (r *mongoProgramRepository) Update(ctx context.Context, program *domain.Program) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": program.ID}, program)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureProgramIndexes creates necessary indexes. Call during startup.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Main query: a coach's library of programs, newest first
			Keys:    bson.D{{Key: "createdBy", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index(),
		},
	})
}
