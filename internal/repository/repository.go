package repository

import (
	"alcyxob/coaching-app/internal/domain" // Import our defined domain models
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	AddClientIDToCoach(ctx context.Context, coachID, clientID primitive.ObjectID) error
	SetCoachForClient(ctx context.Context, clientID, coachID primitive.ObjectID) error
	TouchActivity(ctx context.Context, id primitive.ObjectID) error
	SetOnboardingComplete(ctx context.Context, id primitive.ObjectID) error
}

// ProgramRepository stores programs with their embedded week/day/block tree.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	// GetByCoach lists a coach's programs, newest first. Archived programs
	// are included only when includeArchived is set.
	GetByCoach(ctx context.Context, coachID primitive.ObjectID, includeArchived bool) ([]domain.Program, error)
	// Update replaces the stored program document. UpdatedAt is taken from
	// the argument so that no-op saves can keep it unchanged.
	Update(ctx context.Context, program *domain.Program) error
}

// AssignmentRepository defines the interface for interacting with program assignments.
type AssignmentRepository interface {
	// Create fails with ErrDuplicate when the client already has an active assignment.
	Create(ctx context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error)
	GetActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.ProgramAssignment, error)
	// GetLatestByClient returns the most recently assigned program, whatever its status.
	GetLatestByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.ProgramAssignment, error)
	GetByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ProgramAssignment, error)
	// UpdateStatus moves an assignment from one status to another; it returns
	// ErrUpdateFailed when the stored status is no longer `from`.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.AssignmentStatus) error
	HasActiveForProgram(ctx context.Context, programID primitive.ObjectID) (bool, error)
}

// SubscriptionRepository stores customer subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subscription, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error)
	GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Subscription, error)
	Update(ctx context.Context, sub *domain.Subscription) error
}

// RequestRepository stores clients' coaching requests.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Request, error)
	GetPending(ctx context.Context) ([]domain.Request, error)
	// ResolvePending moves every PENDING request of the client to status.
	ResolvePending(ctx context.Context, clientID, resolvedBy primitive.ObjectID, status domain.RequestStatus) (int64, error)
	Update(ctx context.Context, req *domain.Request) error
}

// CheckInRepository stores client check-ins and coach responses.
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error)
	HasPending(ctx context.Context, clientID primitive.ObjectID) (bool, error)
	GetPendingByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.CheckIn, error)
	Respond(ctx context.Context, id primitive.ObjectID, response string) error
	// AssignPendingToCoach addresses the client's unanswered check-ins to
	// coachID and returns how many were moved.
	AssignPendingToCoach(ctx context.Context, clientID, coachID primitive.ObjectID) (int64, error)
}

// LibraryRepository defines the interface for interacting with library items.
type LibraryRepository interface {
	Create(ctx context.Context, item *domain.LibraryItem) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.LibraryItem, error)
	GetByCoach(ctx context.Context, coachID primitive.ObjectID, kind domain.LibraryKind) ([]domain.LibraryItem, error)
	Update(ctx context.Context, item *domain.LibraryItem) error
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error // Ensure coach owns the item
}

// MediaRepository defines the interface for interacting with upload metadata.
type MediaRepository interface {
	Create(ctx context.Context, asset *domain.MediaAsset) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaAsset, error)
}

// Repositories bundles every repository so storage backends can be swapped
// as a unit.
type Repositories struct {
	Users         UserRepository
	Programs      ProgramRepository
	Assignments   AssignmentRepository
	Subscriptions SubscriptionRepository
	Requests      RequestRepository
	CheckIns      CheckInRepository
	Library       LibraryRepository
	Media         MediaRepository
}
