package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct {
	db *table[domain.User]
}

func NewUserRepository() repository.UserRepository {
	return &userRepository{db: newTable[domain.User]()}
}

func (repo *userRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.filter(nil) {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}

	user.ID = primitive.NewObjectID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	repo.db.put(user.ID, user)
	return user.ID, nil
}

func (repo *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.filter(func(u *domain.User) bool { return u.Email == email })
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (repo *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.get(id)
}

func (repo *userRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := repo.db.filter(func(u *domain.User) bool { return slices.Contains(ids, u.ID) })
	slices.SortStableFunc(users, func(a, b domain.User) int { return strings.Compare(a.Name, b.Name) })
	return users, nil
}

// update applies fn to a stored user. It reports ErrNotFound when the user
// is missing or match rejects it.
func (repo *userRepository) update(id primitive.ObjectID, match func(*domain.User) bool, fn func(*domain.User)) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	u, err := repo.db.get(id)
	if err != nil {
		return err
	}
	if match != nil && !match(u) {
		return repository.ErrNotFound
	}
	fn(u)
	repo.db.put(id, u)
	return nil
}

func (repo *userRepository) AddClientIDToCoach(_ context.Context, coachID, clientID primitive.ObjectID) error {
	return repo.update(coachID, (*domain.User).IsCoach, func(u *domain.User) {
		if !slices.Contains(u.ClientIDs, clientID) {
			u.ClientIDs = append(u.ClientIDs, clientID)
		}
		u.UpdatedAt = time.Now().UTC()
	})
}

func (repo *userRepository) SetCoachForClient(_ context.Context, clientID, coachID primitive.ObjectID) error {
	return repo.update(clientID, (*domain.User).IsCustomer, func(u *domain.User) {
		u.CoachID = &coachID
		u.UpdatedAt = time.Now().UTC()
	})
}

func (repo *userRepository) TouchActivity(_ context.Context, id primitive.ObjectID) error {
	return repo.update(id, nil, func(u *domain.User) {
		now := time.Now().UTC()
		u.LastActiveAt = &now
	})
}

func (repo *userRepository) SetOnboardingComplete(_ context.Context, id primitive.ObjectID) error {
	return repo.update(id, nil, func(u *domain.User) {
		u.OnboardingComplete = true
		u.UpdatedAt = time.Now().UTC()
	})
}
