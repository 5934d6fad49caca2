package service

import (
	"alcyxob/coaching-app/internal/builder"
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/events"
	"alcyxob/coaching-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProgramNotFound     = errors.New("program not found")
	ErrProgramAccessDenied = errors.New("access denied to this program")
	ErrProgramFrozen       = errors.New("published programs only accept metadata edits, fork the program to change its structure")
	ErrProgramArchived     = errors.New("archived programs cannot be edited")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrInvalidCategory     = errors.New("category must be fitness, nutrition or mental")
)

// ProgramPatch lists the fields to change. Nil fields are left untouched.
type ProgramPatch struct {
	Title       *string
	Description *string
	Tags        *[]string
	Category    *domain.Category
	HeaderImage *string
	Guidance    *string
	ProTip      *string
	Warnings    *string
	Weeks       *[]domain.Week
}

// Structural reports whether the patch touches the week/day/block tree.
func (p ProgramPatch) Structural() bool {
	return p.Weeks != nil
}

// EditFunc is a single authoring step, normally one of the builder operations.
type EditFunc func(domain.Program) (domain.Program, error)

type ProgramService interface {
	CreateProgram(ctx context.Context, coachID primitive.ObjectID, patch ProgramPatch) (*domain.Program, error)
	// SaveDraft applies the patch and persists it. Saving unchanged content
	// writes nothing and keeps updatedAt.
	SaveDraft(ctx context.Context, coachID, programID primitive.ObjectID, patch ProgramPatch) (*domain.Program, error)
	Edit(ctx context.Context, coachID, programID primitive.ObjectID, op EditFunc) (*domain.Program, error)
	Publish(ctx context.Context, coachID, programID primitive.ObjectID) (*domain.Program, error)
	Archive(ctx context.Context, coachID, programID primitive.ObjectID) (*domain.Program, error)
	Fork(ctx context.Context, coachID, programID primitive.ObjectID) (*domain.Program, error)
	ListPrograms(ctx context.Context, coachID primitive.ObjectID, includeArchived bool) ([]domain.Program, error)
	// GetProgram is open to the owning coach and to clients the program was assigned to.
	GetProgram(ctx context.Context, userID primitive.ObjectID, role domain.Role, programID primitive.ObjectID) (*domain.Program, error)
}

type programService struct {
	programRepo    repository.ProgramRepository
	assignmentRepo repository.AssignmentRepository
	libraryRepo    repository.LibraryRepository
	publisher      events.Publisher
}

func NewProgramService(repos repository.Repositories, publisher events.Publisher) ProgramService {
	return &programService{
		programRepo:    repos.Programs,
		assignmentRepo: repos.Assignments,
		libraryRepo:    repos.Library,
		publisher:      publisher,
	}
}

func (s *programService) CreateProgram(ctx context.Context, coachID primitive.ObjectID, patch ProgramPatch) (*domain.Program, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}
	now := time.Now().UTC()
	program := domain.Program{
		State:     domain.ProgramDraft,
		CreatedBy: coachID,
		Weeks:     []domain.Week{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	program, err := applyPatch(program, patch)
	if err != nil {
		return nil, err
	}

	if _, err := s.programRepo.Create(ctx, &program); err != nil {
		return nil, err
	}
	slog.Info("program created", "program_id", program.ID.Hex(), "coach_id", coachID.Hex())
	return &program, nil
}

func (s *programService) SaveDraft(ctx context.Context, coachID, programID primitive.ObjectID, patch ProgramPatch) (*domain.Program, error) {
	current, err := s.getOwned(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	if current.State == domain.ProgramArchived {
		return nil, ErrProgramArchived
	}

	next, err := applyPatch(*current, patch)
	if err != nil {
		return nil, err
	}
	normalizedCurrent, err := builder.Normalize(*current)
	if err != nil {
		return nil, err
	}
	if sameContent(normalizedCurrent, next) {
		return current, nil
	}

	if current.State == domain.ProgramPublished {
		if !reflect.DeepEqual(normalizedCurrent.Weeks, next.Weeks) {
			return nil, ErrProgramFrozen
		}
		// A published program must stay publishable.
		if err := builder.ValidateForPublish(next); err != nil {
			return nil, err
		}
	}

	next.UpdatedAt = time.Now().UTC()
	if err := s.programRepo.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *programService) Edit(ctx context.Context, coachID, programID primitive.ObjectID, op EditFunc) (*domain.Program, error) {
	current, err := s.getOwned(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	switch current.State {
	case domain.ProgramPublished:
		return nil, ErrProgramFrozen
	case domain.ProgramArchived:
		return nil, ErrProgramArchived
	}

	next, err := op(*current)
	if err != nil {
		return nil, err
	}
	normalizedCurrent, err := builder.Normalize(*current)
	if err != nil {
		return nil, err
	}
	if next, err = builder.Normalize(next); err != nil {
		return nil, err
	}
	if sameContent(normalizedCurrent, next) {
		return current, nil
	}
	next.UpdatedAt = time.Now().UTC()
	if err := s.programRepo.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *programService) Publish(ctx context.Context, coachID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.getOwned(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	if program.State == domain.ProgramPublished {
		return program, nil
	}
	if !program.State.CanTransition(domain.ProgramPublished) {
		return nil, ErrInvalidTransition
	}

	verr := &builder.ValidationError{}
	if err := builder.ValidateForPublish(*program); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}
	if err := s.checkLibraryRefs(ctx, program, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	program.Title = strings.TrimSpace(program.Title)
	program.State = domain.ProgramPublished
	program.PublishedAt = &now
	program.UpdatedAt = now
	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}

	slog.Info("program published", "program_id", program.ID.Hex(), "weeks", len(program.Weeks))
	published := *program
	go func() {
		if err := s.publisher.PublishProgramPublished(&published); err != nil {
			slog.Warn("failed to publish program event", "program_id", published.ID.Hex(), "error", err)
		}
	}()
	return program, nil
}

// checkLibraryRefs adds an error for every reference block whose item is
// missing, of the wrong kind or owned by another coach.
func (s *programService) checkLibraryRefs(ctx context.Context, p *domain.Program, verr *builder.ValidationError) error {
	for wi, w := range p.Weeks {
		for di, d := range w.Days {
			for bi, b := range d.Blocks {
				if !b.Type.IsReference() || b.Payload.RefID == "" {
					continue
				}
				field := fmt.Sprintf("weeks[%d].days[%d].blocks[%d].payload.refId", wi, di, bi)
				id, err := primitive.ObjectIDFromHex(b.Payload.RefID)
				if err != nil {
					verr.Add(field, "is not a valid library item id")
					continue
				}
				item, err := s.libraryRepo.GetByID(ctx, id)
				if errors.Is(err, repository.ErrNotFound) {
					verr.Add(field, "library item %s does not exist", b.Payload.RefID)
					continue
				}
				if err != nil {
					return err
				}
				if item.CoachID != p.CreatedBy {
					verr.Add(field, "library item %s belongs to another coach", b.Payload.RefID)
				} else if item.Kind.BlockType() != b.Type {
					verr.Add(field, "library item %s is a %s", b.Payload.RefID, item.Kind)
				}
			}
		}
	}
	return nil
}

func (s *programService) Archive(ctx context.Context, coachID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.getOwned(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	if program.State == domain.ProgramArchived {
		return program, nil
	}
	if !program.State.CanTransition(domain.ProgramArchived) {
		return nil, ErrInvalidTransition
	}

	active, err := s.assignmentRepo.HasActiveForProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if active {
		// Assigned clients keep reading the archived program until their
		// assignment ends.
		slog.Warn("archiving program with active assignments", "program_id", programID.Hex(), "coach_id", coachID.Hex())
	}

	now := time.Now().UTC()
	program.State = domain.ProgramArchived
	program.ArchivedAt = &now
	program.UpdatedAt = now
	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}
	return program, nil
}

// Fork copies a program of any state into a new draft with fresh tree ids.
func (s *programService) Fork(ctx context.Context, coachID, programID primitive.ObjectID) (*domain.Program, error) {
	source, err := s.getOwned(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sourceID := source.ID
	fork := domain.Program{
		Title:       source.Title,
		Description: source.Description,
		Tags:        slices.Clone(source.Tags),
		Category:    source.Category,
		HeaderImage: source.HeaderImage,
		Guidance:    source.Guidance,
		ProTip:      source.ProTip,
		Warnings:    source.Warnings,
		State:       domain.ProgramDraft,
		CreatedBy:   coachID,
		Weeks:       builder.CloneTree(source.Weeks),
		ForkedFrom:  &sourceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.programRepo.Create(ctx, &fork); err != nil {
		return nil, err
	}
	return &fork, nil
}

func (s *programService) ListPrograms(ctx context.Context, coachID primitive.ObjectID, includeArchived bool) ([]domain.Program, error) {
	return s.programRepo.GetByCoach(ctx, coachID, includeArchived)
}

func (s *programService) GetProgram(ctx context.Context, userID primitive.ObjectID, role domain.Role, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.get(ctx, programID)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleCoach {
		if program.CreatedBy != userID {
			return nil, ErrProgramAccessDenied
		}
		return program, nil
	}

	assignments, err := s.assignmentRepo.GetByClient(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if a.ProgramID == programID {
			return program, nil
		}
	}
	return nil, ErrProgramAccessDenied
}

func (s *programService) get(ctx context.Context, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

func (s *programService) getOwned(ctx context.Context, coachID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.get(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.CreatedBy != coachID {
		return nil, ErrProgramAccessDenied
	}
	return program, nil
}

// applyPatch returns p with the patch applied and the tree normalized.
func applyPatch(p domain.Program, patch ProgramPatch) (domain.Program, error) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Tags != nil {
		p.Tags = normalizeTags(*patch.Tags)
	}
	if patch.Category != nil {
		if *patch.Category != "" && !patch.Category.Valid() {
			return p, ErrInvalidCategory
		}
		p.Category = *patch.Category
	}
	if patch.HeaderImage != nil {
		p.HeaderImage = *patch.HeaderImage
	}
	if patch.Guidance != nil {
		p.Guidance = *patch.Guidance
	}
	if patch.ProTip != nil {
		p.ProTip = *patch.ProTip
	}
	if patch.Warnings != nil {
		p.Warnings = *patch.Warnings
	}
	if patch.Weeks != nil {
		p.Weeks = *patch.Weeks
	}
	return builder.Normalize(p)
}

// normalizeTags trims, de-duplicates and sorts tags. No tags is nil.
func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// sameContent compares everything a coach can edit.
func sameContent(a, b domain.Program) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		slices.Equal(a.Tags, b.Tags) &&
		a.Category == b.Category &&
		a.HeaderImage == b.HeaderImage &&
		a.Guidance == b.Guidance &&
		a.ProTip == b.ProTip &&
		a.Warnings == b.Warnings &&
		reflect.DeepEqual(a.Weeks, b.Weeks)
}
