package service

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/events"
	"alcyxob/coaching-app/internal/repository"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrAssignmentAccessDenied = errors.New("access denied to this assignment")
	ErrActiveAssignmentExists = errors.New("client already has an active program")
	ErrProgramNotPublished    = errors.New("only published programs can be assigned")
	ErrClientNotFound         = errors.New("client not found")
	ErrNotAClient             = errors.New("programs can only be assigned to customers")
)

type AssignmentService interface {
	// AssignProgram gives a published program to a client. A client holds at
	// most one active assignment; an overdue one is expired first.
	AssignProgram(ctx context.Context, coachID, programID, clientID primitive.ObjectID, personalMessage string) (*domain.ProgramAssignment, error)
	MarkComplete(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, error)
	Expire(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, error)
	ListForClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ProgramAssignment, error)
	// CurrentForClient returns the active assignment and its program. An
	// assignment past its end date is not current.
	CurrentForClient(ctx context.Context, clientID primitive.ObjectID) (*domain.ProgramAssignment, *domain.Program, error)
}

type assignmentService struct {
	userRepo       repository.UserRepository
	programRepo    repository.ProgramRepository
	assignmentRepo repository.AssignmentRepository
	requestRepo    repository.RequestRepository
	checkInRepo    repository.CheckInRepository
	publisher      events.Publisher
	now            func() time.Time
}

func NewAssignmentService(repos repository.Repositories, publisher events.Publisher) AssignmentService {
	return &assignmentService{
		userRepo:       repos.Users,
		programRepo:    repos.Programs,
		assignmentRepo: repos.Assignments,
		requestRepo:    repos.Requests,
		checkInRepo:    repos.CheckIns,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *assignmentService) AssignProgram(ctx context.Context, coachID, programID, clientID primitive.ObjectID, personalMessage string) (*domain.ProgramAssignment, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.CreatedBy != coachID {
		return nil, ErrProgramAccessDenied
	}
	if program.State != domain.ProgramPublished {
		return nil, ErrProgramNotPublished
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsCustomer() {
		return nil, ErrNotAClient
	}

	now := s.now()
	active, err := s.assignmentRepo.GetActiveByClient(ctx, clientID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, err
	case active.Overdue(now):
		if _, err := s.transition(ctx, active, domain.AssignmentExpired); err != nil && !errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
	default:
		return nil, ErrActiveAssignmentExists
	}

	assignment := &domain.ProgramAssignment{
		ProgramID:       programID,
		ClientID:        clientID,
		AssignedBy:      coachID,
		AssignedAt:      now,
		EndsAt:          now.Add(program.Duration()),
		Status:          domain.AssignmentActive,
		PersonalMessage: strings.TrimSpace(personalMessage),
		UpdatedAt:       now,
	}
	if _, err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		// Lost a race with another assignment for the same client.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrActiveAssignmentExists
		}
		return nil, err
	}

	if _, err := s.requestRepo.ResolvePending(ctx, clientID, coachID, domain.RequestAssigned); err != nil {
		slog.Warn("failed to resolve pending requests", "client_id", clientID.Hex(), "error", err)
	}
	if err := s.userRepo.AddClientIDToCoach(ctx, coachID, clientID); err != nil {
		slog.Warn("failed to add client to coach roster", "coach_id", coachID.Hex(), "client_id", clientID.Hex(), "error", err)
	}
	if err := s.userRepo.SetCoachForClient(ctx, clientID, coachID); err != nil {
		slog.Warn("failed to set coach for client", "coach_id", coachID.Hex(), "client_id", clientID.Hex(), "error", err)
	}
	// Unanswered check-ins follow the client to the new coach.
	if _, err := s.checkInRepo.AssignPendingToCoach(ctx, clientID, coachID); err != nil {
		slog.Warn("failed to hand pending check-ins to coach", "coach_id", coachID.Hex(), "client_id", clientID.Hex(), "error", err)
	}

	slog.Info("program assigned", "assignment_id", assignment.ID.Hex(), "program_id", programID.Hex(), "client_id", clientID.Hex())
	created := *assignment
	go func() {
		if err := s.publisher.PublishAssignmentCreated(&created); err != nil {
			slog.Warn("failed to publish assignment event", "assignment_id", created.ID.Hex(), "error", err)
		}
	}()
	return assignment, nil
}

func (s *assignmentService) MarkComplete(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	return s.coachTransition(ctx, coachID, assignmentID, domain.AssignmentCompleted)
}

func (s *assignmentService) Expire(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	return s.coachTransition(ctx, coachID, assignmentID, domain.AssignmentExpired)
}

func (s *assignmentService) coachTransition(ctx context.Context, coachID, assignmentID primitive.ObjectID, to domain.AssignmentStatus) (*domain.ProgramAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.AssignedBy != coachID {
		return nil, ErrAssignmentAccessDenied
	}
	return s.transition(ctx, assignment, to)
}

// transition ends an active assignment. Completed and expired are final.
func (s *assignmentService) transition(ctx context.Context, a *domain.ProgramAssignment, to domain.AssignmentStatus) (*domain.ProgramAssignment, error) {
	if !a.IsActive() {
		return nil, ErrInvalidTransition
	}
	from := a.Status
	if err := s.assignmentRepo.UpdateStatus(ctx, a.ID, from, to); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	a.Status = to
	a.UpdatedAt = s.now()

	changed := *a
	go func() {
		if err := s.publisher.PublishAssignmentStatusChanged(&changed, from); err != nil {
			slog.Warn("failed to publish assignment status event", "assignment_id", changed.ID.Hex(), "error", err)
		}
	}()
	return a, nil
}

func (s *assignmentService) ListForClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ProgramAssignment, error) {
	return s.assignmentRepo.GetByClient(ctx, clientID)
}

func (s *assignmentService) CurrentForClient(ctx context.Context, clientID primitive.ObjectID) (*domain.ProgramAssignment, *domain.Program, error) {
	assignment, err := s.assignmentRepo.GetActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAssignmentNotFound
		}
		return nil, nil, err
	}
	// Past its end date the program is over even before anyone expires it.
	if assignment.Overdue(s.now()) {
		return nil, nil, ErrAssignmentNotFound
	}
	program, err := s.programRepo.GetByID(ctx, assignment.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProgramNotFound
		}
		return nil, nil, err
	}
	return assignment, program, nil
}
