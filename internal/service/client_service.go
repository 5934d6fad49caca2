package service

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/repository"
	"alcyxob/coaching-app/internal/status"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCheckInNotFound        = errors.New("check-in not found")
	ErrCheckInAccessDenied    = errors.New("access denied to this check-in")
	ErrCheckInAlreadyAnswered = errors.New("check-in has already been answered")
	ErrRequestNotFound        = errors.New("request not found")
	ErrEmptyMessage           = errors.New("message cannot be empty")
)

// ClientOverview is a client together with the inputs and result of status
// derivation.
type ClientOverview struct {
	Client         domain.User               `json:"client"`
	Status         domain.ClientStatus       `json:"status"`
	Subscription   *domain.Subscription      `json:"subscription,omitempty"`
	Assignment     *domain.ProgramAssignment `json:"assignment,omitempty"`
	PendingRequest bool                      `json:"pendingRequest"`
}

type ClientService interface {
	// ListClientsWithStatus returns the coach's roster plus every client
	// still waiting on a coaching request.
	ListClientsWithStatus(ctx context.Context, coachID primitive.ObjectID) ([]ClientOverview, error)
	MyStatus(ctx context.Context, clientID primitive.ObjectID) (*ClientOverview, error)

	SubmitCheckIn(ctx context.Context, clientID primitive.ObjectID, notes string) (*domain.CheckIn, error)
	RespondToCheckIn(ctx context.Context, coachID, checkInID primitive.ObjectID, response string) (*domain.CheckIn, error)
	ListPendingCheckIns(ctx context.Context, coachID primitive.ObjectID) ([]domain.CheckIn, error)

	ListPendingRequests(ctx context.Context) ([]domain.Request, error)
	MarkRequestSeen(ctx context.Context, coachID, requestID primitive.ObjectID) (*domain.Request, error)
}

// --- Service Implementation ---

type clientService struct {
	userRepo       repository.UserRepository
	subRepo        repository.SubscriptionRepository
	assignmentRepo repository.AssignmentRepository
	requestRepo    repository.RequestRepository
	checkInRepo    repository.CheckInRepository
	thresholds     status.Thresholds
	now            func() time.Time
}

func NewClientService(repos repository.Repositories, thresholds status.Thresholds) ClientService {
	return &clientService{
		userRepo:       repos.Users,
		subRepo:        repos.Subscriptions,
		assignmentRepo: repos.Assignments,
		requestRepo:    repos.Requests,
		checkInRepo:    repos.CheckIns,
		thresholds:     thresholds,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *clientService) ListClientsWithStatus(ctx context.Context, coachID primitive.ObjectID) ([]ClientOverview, error) {
	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	pending, err := s.requestRepo.GetPending(ctx)
	if err != nil {
		return nil, err
	}
	waiting := make(map[primitive.ObjectID]bool, len(pending))
	ids := slices.Clone(coach.ClientIDs)
	for _, r := range pending {
		if !waiting[r.ClientID] && !slices.Contains(coach.ClientIDs, r.ClientID) {
			ids = append(ids, r.ClientID)
		}
		waiting[r.ClientID] = true
	}
	if len(ids) == 0 {
		return []ClientOverview{}, nil
	}

	clients, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]ClientOverview, 0, len(clients))
	for _, c := range clients {
		overview, err := s.overview(ctx, c, now)
		if err != nil {
			return nil, err
		}
		overview.PendingRequest = waiting[c.ID]
		out = append(out, *overview)
	}
	slices.SortStableFunc(out, func(a, b ClientOverview) int {
		return strings.Compare(strings.ToLower(a.Client.Name), strings.ToLower(b.Client.Name))
	})
	return out, nil
}

func (s *clientService) MyStatus(ctx context.Context, clientID primitive.ObjectID) (*ClientOverview, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.overview(ctx, *client, s.now())
}

// overview gathers the deriver's inputs for one client.
func (s *clientService) overview(ctx context.Context, client domain.User, now time.Time) (*ClientOverview, error) {
	client.PasswordHash = ""

	subs, err := s.subRepo.GetByUser(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	sub := domain.CurrentSubscription(subs)

	assignment, err := s.assignmentRepo.GetLatestByClient(ctx, client.ID)
	if errors.Is(err, repository.ErrNotFound) {
		assignment, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	pendingFeedback, err := s.checkInRepo.HasPending(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	st := status.Derive(status.Input{
		Subscription:    sub,
		Assignment:      assignment,
		LastActivityAt:  client.LastActivity(),
		PendingFeedback: pendingFeedback,
	}, s.thresholds, now)

	return &ClientOverview{
		Client:       client,
		Status:       st,
		Subscription: sub,
		Assignment:   assignment,
	}, nil
}

func (s *clientService) SubmitCheckIn(ctx context.Context, clientID primitive.ObjectID, notes string) (*domain.CheckIn, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrEmptyMessage
	}
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	checkIn := &domain.CheckIn{
		ClientID:    clientID,
		CoachID:     client.CoachID,
		Notes:       notes,
		SubmittedAt: s.now(),
	}
	if _, err := s.checkInRepo.Create(ctx, checkIn); err != nil {
		return nil, err
	}
	if err := s.userRepo.TouchActivity(ctx, clientID); err != nil {
		slog.Warn("failed to record check-in activity", "client_id", clientID.Hex(), "error", err)
	}
	return checkIn, nil
}

func (s *clientService) RespondToCheckIn(ctx context.Context, coachID, checkInID primitive.ObjectID, response string) (*domain.CheckIn, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, ErrEmptyMessage
	}
	checkIn, err := s.checkInRepo.GetByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCheckInNotFound
		}
		return nil, err
	}
	if checkIn.CoachID == nil || *checkIn.CoachID != coachID {
		return nil, ErrCheckInAccessDenied
	}
	if !checkIn.Pending() {
		return nil, ErrCheckInAlreadyAnswered
	}

	if err := s.checkInRepo.Respond(ctx, checkInID, response); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, ErrCheckInAlreadyAnswered
		}
		return nil, err
	}
	return s.checkInRepo.GetByID(ctx, checkInID)
}

func (s *clientService) ListPendingCheckIns(ctx context.Context, coachID primitive.ObjectID) ([]domain.CheckIn, error) {
	return s.checkInRepo.GetPendingByCoach(ctx, coachID)
}

// ListPendingRequests returns unanswered coaching requests, oldest first.
func (s *clientService) ListPendingRequests(ctx context.Context) ([]domain.Request, error) {
	return s.requestRepo.GetPending(ctx)
}

func (s *clientService) MarkRequestSeen(ctx context.Context, coachID, requestID primitive.ObjectID) (*domain.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status == domain.RequestSeen {
		return req, nil
	}
	if req.Status != domain.RequestPending {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	req.Status = domain.RequestSeen
	req.ResolvedAt = &now
	req.ResolvedBy = &coachID
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}
