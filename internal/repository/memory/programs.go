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

type programRepository struct {
	db *table[domain.Program]
}

func NewProgramRepository() repository.ProgramRepository {
	return &programRepository{db: newTable[domain.Program]()}
}

func (repo *programRepository) Create(_ context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("program requires createdBy")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

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
	repo.db.put(program.ID, program)
	return program.ID, nil
}

func (repo *programRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.get(id)
}

func (repo *programRepository) GetByCoach(_ context.Context, coachID primitive.ObjectID, includeArchived bool) ([]domain.Program, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	programs := repo.db.filter(func(p *domain.Program) bool {
		return p.CreatedBy == coachID && (includeArchived || p.State != domain.ProgramArchived)
	})
	slices.SortStableFunc(programs, func(a, b domain.Program) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return programs, nil
}

func (repo *programRepository) Update(_ context.Context, program *domain.Program) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, err := repo.db.get(program.ID); err != nil {
		return err
	}
	repo.db.put(program.ID, program)
	return nil
}
