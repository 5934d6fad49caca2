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

type subscriptionRepository struct {
	db *table[domain.Subscription]
}

func NewSubscriptionRepository() repository.SubscriptionRepository {
	return &subscriptionRepository{db: newTable[domain.Subscription]()}
}

func (repo *subscriptionRepository) Create(_ context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	if sub.UserID == primitive.NilObjectID || sub.PlanType == "" {
		return primitive.NilObjectID, errors.New("subscription requires userId and planType")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sub.ID = primitive.NewObjectID()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.UpdatedAt = sub.CreatedAt
	repo.db.put(sub.ID, sub)
	return sub.ID, nil
}

func (repo *subscriptionRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Subscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.get(id)
}

func (repo *subscriptionRepository) GetByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := repo.db.filter(func(s *domain.Subscription) bool { return s.UserID == userID })
	slices.SortStableFunc(subs, func(a, b domain.Subscription) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return subs, nil
}

func (repo *subscriptionRepository) GetByCheckoutSession(_ context.Context, sessionID string) (*domain.Subscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.filter(func(s *domain.Subscription) bool { return sessionID != "" && s.CheckoutSessionID == sessionID })
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (repo *subscriptionRepository) Update(_ context.Context, sub *domain.Subscription) error {
	if sub.ID == primitive.NilObjectID {
		return errors.New("subscription ID is required for update")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, err := repo.db.get(sub.ID)
	if err != nil {
		return err
	}
	sub.UpdatedAt = time.Now().UTC()
	stored.Status = sub.Status
	stored.StartDate = sub.StartDate
	stored.EndDate = sub.EndDate
	stored.CheckoutSessionID = sub.CheckoutSessionID
	stored.UpdatedAt = sub.UpdatedAt
	repo.db.put(sub.ID, stored)
	return nil
}

type requestRepository struct {
	db *table[domain.Request]
}

func NewRequestRepository() repository.RequestRepository {
	return &requestRepository{db: newTable[domain.Request]()}
}

func (repo *requestRepository) Create(_ context.Context, req *domain.Request) (primitive.ObjectID, error) {
	if req.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("request requires clientId")
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	req.ID = primitive.NewObjectID()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = domain.RequestPending
	}
	repo.db.put(req.ID, req)
	return req.ID, nil
}

func (repo *requestRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.get(id)
}

func (repo *requestRepository) GetPending(_ context.Context) ([]domain.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reqs := repo.db.filter(func(r *domain.Request) bool { return r.Status == domain.RequestPending })
	slices.SortStableFunc(reqs, func(a, b domain.Request) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return reqs, nil
}

func (repo *requestRepository) ResolvePending(_ context.Context, clientID, resolvedBy primitive.ObjectID, status domain.RequestStatus) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pending := repo.db.filter(func(r *domain.Request) bool {
		return r.ClientID == clientID && r.Status == domain.RequestPending
	})
	now := time.Now().UTC()
	for i := range pending {
		r := &pending[i]
		r.Status = status
		r.ResolvedAt = &now
		r.ResolvedBy = &resolvedBy
		repo.db.put(r.ID, r)
	}
	return int64(len(pending)), nil
}

func (repo *requestRepository) Update(_ context.Context, req *domain.Request) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, err := repo.db.get(req.ID)
	if err != nil {
		return err
	}
	stored.Status = req.Status
	if req.ResolvedAt != nil {
		stored.ResolvedAt = req.ResolvedAt
	}
	if req.ResolvedBy != nil {
		stored.ResolvedBy = req.ResolvedBy
	}
	repo.db.put(req.ID, stored)
	return nil
}
