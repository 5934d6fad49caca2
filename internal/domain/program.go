package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxDaysPerWeek caps the number of days a single week can hold.
const MaxDaysPerWeek = 7

// Category of coaching a program belongs to.
type Category string

const (
	CategoryFitness   Category = "fitness"
	CategoryNutrition Category = "nutrition"
	CategoryMental    Category = "mental"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFitness, CategoryNutrition, CategoryMental:
		return true
	}
	return false
}

// ProgramState tracks the authoring lifecycle: draft -> published -> archived.
type ProgramState string

const (
	ProgramDraft     ProgramState = "draft"
	ProgramPublished ProgramState = "published"
	ProgramArchived  ProgramState = "archived"
)

// CanTransition reports whether moving from s to next is allowed.
// Transitions are monotonic; nothing ever returns to draft.
func (s ProgramState) CanTransition(next ProgramState) bool {
	switch s {
	case ProgramDraft:
		return next == ProgramPublished
	case ProgramPublished:
		return next == ProgramArchived
	}
	return false
}

// BlockType is the kind of content a block carries.
type BlockType string

const (
	BlockText        BlockType = "text"
	BlockImage       BlockType = "image"
	BlockVideo       BlockType = "video"
	BlockLink        BlockType = "link"
	BlockProTip      BlockType = "pro_tip"
	BlockExerciseRef BlockType = "exercise_ref"
	BlockRecipeRef   BlockType = "recipe_ref"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockText, BlockImage, BlockVideo, BlockLink, BlockProTip, BlockExerciseRef, BlockRecipeRef:
		return true
	}
	return false
}

// IsReference reports whether the block points at a library item.
func (t BlockType) IsReference() bool {
	return t == BlockExerciseRef || t == BlockRecipeRef
}

// SetConfig is the prescription for an exercise_ref block.
// Either Reps is set (fixed) or RepsMin/RepsMax (ranged), never both.
type SetConfig struct {
	Sets    int    `bson:"sets" json:"sets"`
	Reps    *int   `bson:"reps,omitempty" json:"reps,omitempty"`
	RepsMin *int   `bson:"repsMin,omitempty" json:"repsMin,omitempty"`
	RepsMax *int   `bson:"repsMax,omitempty" json:"repsMax,omitempty"`
	Rest    string `bson:"rest,omitempty" json:"rest,omitempty"` // e.g. "60s"
	Notes   string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Ranged reports whether the config uses a rep range.
func (c SetConfig) Ranged() bool {
	return c.RepsMin != nil || c.RepsMax != nil
}

// BlockPayload holds type-specific block data. Only the fields relevant to
// the block's type are populated.
type BlockPayload struct {
	Text    string     `bson:"text,omitempty" json:"text,omitempty"`
	Title   string     `bson:"title,omitempty" json:"title,omitempty"`
	URL     string     `bson:"url,omitempty" json:"url,omitempty"`
	RefID   string     `bson:"refId,omitempty" json:"refId,omitempty"`     // library item hex id
	Portion string     `bson:"portion,omitempty" json:"portion,omitempty"` // recipe_ref only
	Sets    *SetConfig `bson:"sets,omitempty" json:"sets,omitempty"`       // exercise_ref only
}

// ContentBlock is one atomic instructional unit inside a Day.
type ContentBlock struct {
	ID      string       `bson:"id" json:"id"`
	Type    BlockType    `bson:"type" json:"type"`
	Payload BlockPayload `bson:"payload" json:"payload"`
	Order   int          `bson:"order" json:"order"`
}

// Day is an ordered collection of content blocks.
type Day struct {
	ID     string         `bson:"id" json:"id"`
	Name   string         `bson:"name" json:"name"`
	Order  int            `bson:"order" json:"order"`
	Blocks []ContentBlock `bson:"blocks" json:"blocks"`
}

// Week is an ordered collection of days, numbered from 1.
type Week struct {
	ID         string `bson:"id" json:"id"`
	WeekNumber int    `bson:"weekNumber" json:"weekNumber"`
	Days       []Day  `bson:"days" json:"days"`
}

// Program is a coach-authored curriculum. The weeks tree is stored embedded
// in the program document.
type Program struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title" validate:"required"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Tags        []string            `bson:"tags,omitempty" json:"tags,omitempty"`
	Category    Category            `bson:"category" json:"category" validate:"required,oneof=fitness nutrition mental"`
	HeaderImage string              `bson:"headerImage,omitempty" json:"headerImage,omitempty"`
	State       ProgramState        `bson:"state" json:"state"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	Weeks       []Week              `bson:"weeks" json:"weeks"`
	Guidance    string              `bson:"guidance,omitempty" json:"guidance,omitempty"`
	ProTip      string              `bson:"proTip,omitempty" json:"proTip,omitempty"`
	Warnings    string              `bson:"warnings,omitempty" json:"warnings,omitempty"`
	ForkedFrom  *primitive.ObjectID `bson:"forkedFrom,omitempty" json:"forkedFrom,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
	PublishedAt *time.Time          `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	ArchivedAt  *time.Time          `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`
}

// Duration is the nominal length of the program: one calendar week per Week.
func (p *Program) Duration() time.Duration {
	return time.Duration(len(p.Weeks)) * 7 * 24 * time.Hour
}

// FindWeek returns the index of the week with the given id, or -1.
func (p *Program) FindWeek(weekID string) int {
	for i := range p.Weeks {
		if p.Weeks[i].ID == weekID {
			return i
		}
	}
	return -1
}

// FindDay returns the index of the day with the given id, or -1.
func (w *Week) FindDay(dayID string) int {
	for i := range w.Days {
		if w.Days[i].ID == dayID {
			return i
		}
	}
	return -1
}

// FindBlock returns the index of the block with the given id, or -1.
func (d *Day) FindBlock(blockID string) int {
	for i := range d.Blocks {
		if d.Blocks[i].ID == blockID {
			return i
		}
	}
	return -1
}
