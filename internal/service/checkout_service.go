package service

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/payment"
	"alcyxob/coaching-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrTrialAlreadyUsed = errors.New("trial has already been used")
	ErrNotCustomer      = errors.New("only customers can subscribe")
)

// CheckoutResult carries either the activated trial or the hosted checkout URL.
type CheckoutResult struct {
	Subscription *domain.Subscription
	URL          string
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID primitive.ObjectID, plan domain.PlanType) (*CheckoutResult, error)
	// HandleWebhook activates the subscription behind a completed checkout.
	// Replayed notifications are no-ops.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	CurrentSubscription(ctx context.Context, userID primitive.ObjectID) (*domain.Subscription, error)
}

type checkoutService struct {
	userRepo      repository.UserRepository
	subRepo       repository.SubscriptionRepository
	gateway       payment.Gateway
	trialDuration time.Duration
	paidDuration  time.Duration
}

func NewCheckoutService(repos repository.Repositories, gateway payment.Gateway, trialDuration, paidDuration time.Duration) CheckoutService {
	return &checkoutService{
		userRepo:      repos.Users,
		subRepo:       repos.Subscriptions,
		gateway:       gateway,
		trialDuration: trialDuration,
		paidDuration:  paidDuration,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, userID primitive.ObjectID, plan domain.PlanType) (*CheckoutResult, error) {
	if !plan.Valid() {
		return nil, ErrInvalidPlanType
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsCustomer() {
		return nil, ErrNotCustomer
	}

	subs, err := s.subRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !plan.Paid() {
		for _, sub := range subs {
			if sub.PlanType == domain.PlanTrial {
				return nil, ErrTrialAlreadyUsed
			}
		}
		sub := newSubscription(userID, plan, time.Now().UTC(), s.trialDuration)
		if _, err := s.subRepo.Create(ctx, sub); err != nil {
			return nil, err
		}
		return &CheckoutResult{Subscription: sub}, nil
	}

	// Reuse an unpaid subscription for the same plan, e.g. the one created
	// at registration or an abandoned checkout.
	var pending *domain.Subscription
	for i := range subs {
		if subs[i].PlanType == plan && subs[i].Status == domain.SubscriptionPending {
			pending = &subs[i]
			break
		}
	}
	if pending == nil {
		pending = newSubscription(userID, plan, time.Now().UTC(), 0)
		if _, err := s.subRepo.Create(ctx, pending); err != nil {
			return nil, err
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		UserID:         userID.Hex(),
		SubscriptionID: pending.ID.Hex(),
		Email:          user.Email,
		Plan:           plan,
	})
	if err != nil {
		return nil, err
	}

	pending.CheckoutSessionID = session.ID
	if err := s.subRepo.Update(ctx, pending); err != nil {
		return nil, fmt.Errorf("store checkout session: %w", err)
	}
	return &CheckoutResult{Subscription: pending, URL: session.URL}, nil
}

func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if event.Type != payment.EventCheckoutCompleted {
		slog.Debug("ignoring payment event", "type", event.Type)
		return nil
	}
	if !event.Paid {
		slog.Info("checkout completed without payment", "session_id", event.SessionID)
		return nil
	}

	sub, err := s.subRepo.GetByCheckoutSession(ctx, event.SessionID)
	if errors.Is(err, repository.ErrNotFound) && event.SubscriptionID != "" {
		sub, err = s.subscriptionByHex(ctx, event.SubscriptionID)
	}
	if err != nil {
		return fmt.Errorf("find subscription for session %s: %w", event.SessionID, err)
	}
	if sub.Status == domain.SubscriptionActive {
		return nil
	}

	now := time.Now().UTC()
	end := now.Add(s.paidDuration)
	sub.Status = domain.SubscriptionActive
	sub.StartDate = now
	sub.EndDate = &end
	sub.CheckoutSessionID = event.SessionID
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return err
	}

	// A paid plan replaces a running trial.
	others, err := s.subRepo.GetByUser(ctx, sub.UserID)
	if err != nil {
		return err
	}
	for i := range others {
		other := &others[i]
		if other.ID != sub.ID && other.PlanType == domain.PlanTrial && other.Status == domain.SubscriptionActive {
			other.Status = domain.SubscriptionCanceled
			if err := s.subRepo.Update(ctx, other); err != nil {
				return err
			}
		}
	}

	slog.Info("subscription activated", "user_id", sub.UserID.Hex(), "plan", sub.PlanType)
	return nil
}

func (s *checkoutService) subscriptionByHex(ctx context.Context, hex string) (*domain.Subscription, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return s.subRepo.GetByID(ctx, id)
}

// CurrentSubscription returns the subscription that counts for the user,
// or nil when they have none.
func (s *checkoutService) CurrentSubscription(ctx context.Context, userID primitive.ObjectID) (*domain.Subscription, error) {
	subs, err := s.subRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.CurrentSubscription(subs), nil
}
