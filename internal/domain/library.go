// internal/domain/library.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LibraryKind separates exercises from recipes in a coach's library.
type LibraryKind string

const (
	LibraryExercise LibraryKind = "exercise"
	LibraryRecipe   LibraryKind = "recipe"
)

func (k LibraryKind) Valid() bool {
	return k == LibraryExercise || k == LibraryRecipe
}

// BlockType returns the content block type that references this kind.
func (k LibraryKind) BlockType() BlockType {
	if k == LibraryRecipe {
		return BlockRecipeRef
	}
	return BlockExerciseRef
}

// LibraryItem is a reusable exercise or recipe owned by a coach and referenced
// from exercise_ref / recipe_ref content blocks.
type LibraryItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"` // Coach who created/owns this item
	Kind        LibraryKind        `bson:"kind" json:"kind"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	// Exercise fields
	MuscleGroup string `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g., "Chest", "Legs"
	Difficulty  string `bson:"difficulty,omitempty" json:"difficulty,omitempty"`   // e.g., "Novice", "Advanced"
	VideoURL    string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`

	// Recipe fields
	Calories    int      `bson:"calories,omitempty" json:"calories,omitempty"` // per portion
	Ingredients []string `bson:"ingredients,omitempty" json:"ingredients,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
