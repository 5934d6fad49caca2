package service

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrLibraryItemNotFound     = errors.New("library item not found")
	ErrLibraryItemAccessDenied = errors.New("access denied to modify or delete this library item")
	ErrValidationFailed        = errors.New("library item validation failed")
)

// LibraryItemInput holds the editable fields of a library item.
type LibraryItemInput struct {
	Kind        domain.LibraryKind
	Name        string
	Description string
	MuscleGroup string
	Difficulty  string
	VideoURL    string
	Calories    int
	Ingredients []string
}

type LibraryService interface {
	CreateItem(ctx context.Context, coachID primitive.ObjectID, in LibraryItemInput) (*domain.LibraryItem, error)
	GetItem(ctx context.Context, coachID, itemID primitive.ObjectID) (*domain.LibraryItem, error)
	// ListItems returns the coach's items; an empty kind lists both kinds.
	ListItems(ctx context.Context, coachID primitive.ObjectID, kind domain.LibraryKind) ([]domain.LibraryItem, error)
	UpdateItem(ctx context.Context, coachID, itemID primitive.ObjectID, in LibraryItemInput) (*domain.LibraryItem, error)
	DeleteItem(ctx context.Context, coachID, itemID primitive.ObjectID) error
}

// --- Service Implementation ---

type libraryService struct {
	libraryRepo repository.LibraryRepository
}

func NewLibraryService(libraryRepo repository.LibraryRepository) LibraryService {
	return &libraryService{libraryRepo: libraryRepo}
}

func validateItem(in *LibraryItemInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || !in.Kind.Valid() || in.Calories < 0 {
		return ErrValidationFailed
	}
	if in.Kind == domain.LibraryExercise {
		in.Calories, in.Ingredients = 0, nil
	} else {
		in.MuscleGroup, in.Difficulty = "", ""
	}
	return nil
}

func (s *libraryService) CreateItem(ctx context.Context, coachID primitive.ObjectID, in LibraryItemInput) (*domain.LibraryItem, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required to create a library item")
	}
	if err := validateItem(&in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &domain.LibraryItem{
		CoachID:     coachID,
		Kind:        in.Kind,
		Name:        in.Name,
		Description: in.Description,
		MuscleGroup: in.MuscleGroup,
		Difficulty:  in.Difficulty,
		VideoURL:    in.VideoURL,
		Calories:    in.Calories,
		Ingredients: in.Ingredients,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.libraryRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem is restricted to the owning coach.
func (s *libraryService) GetItem(ctx context.Context, coachID, itemID primitive.ObjectID) (*domain.LibraryItem, error) {
	item, err := s.libraryRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLibraryItemNotFound
		}
		return nil, err
	}
	if item.CoachID != coachID {
		return nil, ErrLibraryItemAccessDenied
	}
	return item, nil
}

func (s *libraryService) ListItems(ctx context.Context, coachID primitive.ObjectID, kind domain.LibraryKind) ([]domain.LibraryItem, error) {
	if kind != "" && !kind.Valid() {
		return nil, ErrValidationFailed
	}
	return s.libraryRepo.GetByCoach(ctx, coachID, kind)
}

// UpdateItem edits an item in place. The kind of an item never changes,
// since published programs may reference it.
func (s *libraryService) UpdateItem(ctx context.Context, coachID, itemID primitive.ObjectID, in LibraryItemInput) (*domain.LibraryItem, error) {
	existing, err := s.GetItem(ctx, coachID, itemID)
	if err != nil {
		return nil, err
	}
	in.Kind = existing.Kind
	if err := validateItem(&in); err != nil {
		return nil, err
	}

	existing.Name = in.Name
	existing.Description = in.Description
	existing.MuscleGroup = in.MuscleGroup
	existing.Difficulty = in.Difficulty
	existing.VideoURL = in.VideoURL
	existing.Calories = in.Calories
	existing.Ingredients = in.Ingredients
	existing.UpdatedAt = time.Now().UTC()

	if err := s.libraryRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLibraryItemNotFound
		}
		return nil, err
	}
	return existing, nil
}

// DeleteItem removes an item. The repository filters on the owner, so an
// item of another coach reads as not found.
func (s *libraryService) DeleteItem(ctx context.Context, coachID, itemID primitive.ObjectID) error {
	if err := s.libraryRepo.Delete(ctx, itemID, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLibraryItemNotFound
		}
		return err
	}
	return nil
}
