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

type checkInRepository struct {
	db *table[domain.CheckIn]
}

func NewCheckInRepository() repository.CheckInRepository {
	return &checkInRepository{db: newTable[domain.CheckIn]()}
}

func (repo *checkInRepository) Create(_ context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	if checkIn.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("check-in requires clientId")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	checkIn.ID = primitive.NewObjectID()
	if checkIn.SubmittedAt.IsZero() {
		checkIn.SubmittedAt = time.Now().UTC()
	}
	repo.db.put(checkIn.ID, checkIn)
	return checkIn.ID, nil
}

func (repo *checkInRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.get(id)
}

func (repo *checkInRepository) HasPending(_ context.Context, clientID primitive.ObjectID) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.filter(func(c *domain.CheckIn) bool { return c.ClientID == clientID && c.Pending() })
	return len(found) > 0, nil
}

func (repo *checkInRepository) GetPendingByCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.CheckIn, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.filter(func(c *domain.CheckIn) bool {
		return c.CoachID != nil && *c.CoachID == coachID && c.Pending()
	})
	slices.SortStableFunc(found, func(a, b domain.CheckIn) int { return a.SubmittedAt.Compare(b.SubmittedAt) })
	return found, nil
}

func (repo *checkInRepository) Respond(_ context.Context, id primitive.ObjectID, response string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c, err := repo.db.get(id)
	if err != nil {
		return err
	}
	if !c.Pending() {
		return repository.ErrUpdateFailed
	}
	now := time.Now().UTC()
	c.Response = response
	c.RespondedAt = &now
	repo.db.put(id, c)
	return nil
}

func (repo *checkInRepository) AssignPendingToCoach(_ context.Context, clientID, coachID primitive.ObjectID) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pending := repo.db.filter(func(c *domain.CheckIn) bool { return c.ClientID == clientID && c.Pending() })
	var moved int64
	for i := range pending {
		c := &pending[i]
		if c.CoachID != nil && *c.CoachID == coachID {
			continue
		}
		c.CoachID = &coachID
		repo.db.put(c.ID, c)
		moved++
	}
	return moved, nil
}

type libraryRepository struct {
	db *table[domain.LibraryItem]
}

func NewLibraryRepository() repository.LibraryRepository {
	return &libraryRepository{db: newTable[domain.LibraryItem]()}
}

func (repo *libraryRepository) Create(_ context.Context, item *domain.LibraryItem) (primitive.ObjectID, error) {
	if item.Name == "" || item.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("library item name and coach ID are required")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	repo.db.put(item.ID, item)
	return item.ID, nil
}

func (repo *libraryRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.LibraryItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.get(id)
}

func (repo *libraryRepository) GetByCoach(_ context.Context, coachID primitive.ObjectID, kind domain.LibraryKind) ([]domain.LibraryItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := repo.db.filter(func(i *domain.LibraryItem) bool {
		return i.CoachID == coachID && (kind == "" || i.Kind == kind)
	})
	slices.Reverse(items)
	return items, nil
}

func (repo *libraryRepository) Update(_ context.Context, item *domain.LibraryItem) error {
	if item.ID == primitive.NilObjectID {
		return errors.New("library item ID is required for update")
	}
	if item.Name == "" {
		return errors.New("library item name cannot be empty")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, err := repo.db.get(item.ID)
	if err != nil {
		return err
	}
	if stored.CoachID != item.CoachID {
		return repository.ErrNotFound
	}
	item.Kind = stored.Kind
	item.CreatedAt = stored.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	repo.db.put(item.ID, item)
	return nil
}

func (repo *libraryRepository) Delete(_ context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, err := repo.db.get(id)
	if err != nil {
		return err
	}
	if stored.CoachID != coachID {
		return repository.ErrNotFound
	}
	repo.db.remove(id)
	return nil
}

type mediaRepository struct {
	db *table[domain.MediaAsset]
}

func NewMediaRepository() repository.MediaRepository {
	return &mediaRepository{db: newTable[domain.MediaAsset]()}
}

func (repo *mediaRepository) Create(_ context.Context, asset *domain.MediaAsset) (primitive.ObjectID, error) {
	if asset.OwnerID == primitive.NilObjectID || asset.ObjectKey == "" {
		return primitive.NilObjectID, errors.New("media requires ownerId and objectKey")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if len(repo.db.filter(func(m *domain.MediaAsset) bool { return m.ObjectKey == asset.ObjectKey })) > 0 {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	asset.ID = primitive.NewObjectID()
	asset.CreatedAt = time.Now().UTC()
	repo.db.put(asset.ID, asset)
	return asset.ID, nil
}

func (repo *mediaRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.MediaAsset, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.get(id)
}
