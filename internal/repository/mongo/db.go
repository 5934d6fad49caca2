package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI and
// pings the primary before returning the client.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// NewRepositories builds every MongoDB-backed repository on db.
func NewRepositories(db *mongo.Database) repository.Repositories {
	return repository.Repositories{
		Users:         NewMongoUserRepository(db),
		Programs:      NewMongoProgramRepository(db),
		Assignments:   NewMongoAssignmentRepository(db),
		Subscriptions: NewMongoSubscriptionRepository(db),
		Requests:      NewMongoRequestRepository(db),
		CheckIns:      NewMongoCheckInRepository(db),
		Library:       NewMongoLibraryRepository(db),
		Media:         NewMongoMediaRepository(db),
	}
}

// EnsureIndexes creates the indexes of every collection. The unique indexes
// back invariants (one account per email, one active assignment per client),
// so failures are returned rather than ignored.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return errors.Join(
		EnsureUserIndexes(ctx, db.Collection(userCollectionName)),
		EnsureProgramIndexes(ctx, db.Collection(programCollectionName)),
		EnsureAssignmentIndexes(ctx, db.Collection(assignmentCollectionName)),
		EnsureSubscriptionIndexes(ctx, db.Collection(subscriptionCollectionName)),
		EnsureRequestIndexes(ctx, db.Collection(requestCollectionName)),
		EnsureCheckInIndexes(ctx, db.Collection(checkInCollectionName)),
		EnsureLibraryIndexes(ctx, db.Collection(libraryCollectionName)),
		EnsureMediaIndexes(ctx, db.Collection(mediaCollectionName)),
	)
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// insertedObjectID asserts the type of the inserted ID.
func insertedObjectID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return id, nil
}

// findOne decodes the single document matching filter into out.
func findOne(ctx context.Context, collection *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOneOptions) error {
	err := collection.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

// findAll decodes every document matching filter. An empty result is a
// non-nil empty slice.
func findAll[T any](ctx context.Context, collection *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
