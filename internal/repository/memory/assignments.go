package memory

import (
	"context"
	"errors"
	"slices"
	"time"

	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type assignmentRepository struct {
	db *table[domain.ProgramAssignment]
}

func NewAssignmentRepository() repository.AssignmentRepository {
	return &assignmentRepository{db: newTable[domain.ProgramAssignment]()}
}

func newestAssignmentFirst(a, b domain.ProgramAssignment) int {
	return b.AssignedAt.Compare(a.AssignedAt)
}

// Create mirrors the partial unique index of the MongoDB store: a client
// holds at most one active assignment.
func (repo *assignmentRepository) Create(_ context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error) {
	if assignment.ProgramID == primitive.NilObjectID || assignment.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires programId and clientId")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if assignment.Status == "" {
		assignment.Status = domain.AssignmentActive
	}
	if assignment.IsActive() {
		active := repo.db.filter(func(a *domain.ProgramAssignment) bool {
			return a.ClientID == assignment.ClientID && a.IsActive()
		})
		if len(active) > 0 {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}

	assignment.ID = primitive.NewObjectID()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	assignment.UpdatedAt = assignment.AssignedAt
	repo.db.put(assignment.ID, assignment)
	return assignment.ID, nil
}

func (repo *assignmentRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.get(id)
}

func (repo *assignmentRepository) GetActiveByClient(_ context.Context, clientID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.filter(func(a *domain.ProgramAssignment) bool { return a.ClientID == clientID && a.IsActive() })
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (repo *assignmentRepository) GetLatestByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	all, err := repo.GetByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, repository.ErrNotFound
	}
	return &all[0], nil
}

func (repo *assignmentRepository) GetByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.ProgramAssignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.filter(func(a *domain.ProgramAssignment) bool { return a.ClientID == clientID })
	slices.SortStableFunc(found, newestAssignmentFirst)
	return found, nil
}

func (repo *assignmentRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to domain.AssignmentStatus) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, err := repo.db.get(id)
	if err != nil {
		return err
	}
	if a.Status != from {
		return repository.ErrUpdateFailed
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	repo.db.put(id, a)
	return nil
}

func (repo *assignmentRepository) HasActiveForProgram(_ context.Context, programID primitive.ObjectID) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.filter(func(a *domain.ProgramAssignment) bool { return a.ProgramID == programID && a.IsActive() })
	return len(found) > 0, nil
}
