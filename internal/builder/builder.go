// Package builder holds the program authoring operations. Every operation
// takes a Program value and returns a new one; the input is never modified.
// Untouched weeks, days and blocks are shared between the old and new value,
// so callers must treat returned programs as immutable too.
package builder

import (
	"errors"
	"fmt"

	"alcyxob/coaching-app/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrWeekNotFound     = errors.New("week not found")
	ErrDayNotFound      = errors.New("day not found")
	ErrBlockNotFound    = errors.New("content block not found")
	ErrDayLimit         = fmt.Errorf("a week holds at most %d days", domain.MaxDaysPerWeek)
	ErrInvalidBlockType = errors.New("invalid content block type")
	ErrInvalidDirection = errors.New("direction must be up or down")
)

// Direction for MoveBlock.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// newID generates ids for weeks, days and blocks.
var newID = uuid.NewString

// AddWeek appends an empty week numbered after the last one.
func AddWeek(p domain.Program) domain.Program {
	out := p
	out.Weeks = append(copyWeeks(p.Weeks), domain.Week{
		ID:         newID(),
		WeekNumber: len(p.Weeks) + 1,
		Days:       []domain.Day{},
	})
	return out
}

// DuplicateWeek appends a deep copy of the week with fresh ids throughout.
func DuplicateWeek(p domain.Program, weekID string) (domain.Program, error) {
	i := p.FindWeek(weekID)
	if i < 0 {
		return p, ErrWeekNotFound
	}
	dup := cloneWeek(p.Weeks[i], true)
	dup.WeekNumber = len(p.Weeks) + 1

	out := p
	out.Weeks = append(copyWeeks(p.Weeks), dup)
	return out, nil
}

// RemoveWeek drops the week and renumbers the remaining ones from 1.
func RemoveWeek(p domain.Program, weekID string) (domain.Program, error) {
	i := p.FindWeek(weekID)
	if i < 0 {
		return p, ErrWeekNotFound
	}
	weeks := make([]domain.Week, 0, len(p.Weeks)-1)
	weeks = append(weeks, p.Weeks[:i]...)
	weeks = append(weeks, p.Weeks[i+1:]...)
	for n := range weeks {
		weeks[n].WeekNumber = n + 1
	}
	out := p
	out.Weeks = weeks
	return out, nil
}

// AddDay appends a day to the week. An empty name defaults to "Day N".
func AddDay(p domain.Program, weekID, name string) (domain.Program, error) {
	return withWeek(p, weekID, func(w domain.Week) (domain.Week, error) {
		if len(w.Days) >= domain.MaxDaysPerWeek {
			return w, ErrDayLimit
		}
		if name == "" {
			name = fmt.Sprintf("Day %d", len(w.Days)+1)
		}
		w.Days = append(copyDays(w.Days), domain.Day{
			ID:     newID(),
			Name:   name,
			Order:  len(w.Days),
			Blocks: []domain.ContentBlock{},
		})
		return w, nil
	})
}

// RenameDay changes the display label of a day.
func RenameDay(p domain.Program, weekID, dayID, name string) (domain.Program, error) {
	return withDay(p, weekID, dayID, func(d domain.Day) (domain.Day, error) {
		d.Name = name
		return d, nil
	})
}

// RemoveDay drops the day and compacts the order of its siblings.
func RemoveDay(p domain.Program, weekID, dayID string) (domain.Program, error) {
	return withWeek(p, weekID, func(w domain.Week) (domain.Week, error) {
		i := w.FindDay(dayID)
		if i < 0 {
			return w, ErrDayNotFound
		}
		days := make([]domain.Day, 0, len(w.Days)-1)
		days = append(days, w.Days[:i]...)
		days = append(days, w.Days[i+1:]...)
		for n := range days {
			days[n].Order = n
		}
		w.Days = days
		return w, nil
	})
}

// AddBlock appends the block at the end of the day with a fresh id.
func AddBlock(p domain.Program, weekID, dayID string, block domain.ContentBlock) (domain.Program, error) {
	if !block.Type.Valid() {
		return p, ErrInvalidBlockType
	}
	return withDay(p, weekID, dayID, func(d domain.Day) (domain.Day, error) {
		block.ID = newID()
		block.Order = len(d.Blocks)
		block.Payload = normalizePayload(block.Type, block.Payload)
		d.Blocks = append(copyBlocks(d.Blocks), block)
		return d, nil
	})
}

// UpdateBlock replaces the payload of a block, including the set
// configuration of exercise references.
func UpdateBlock(p domain.Program, weekID, dayID, blockID string, payload domain.BlockPayload) (domain.Program, error) {
	return withDay(p, weekID, dayID, func(d domain.Day) (domain.Day, error) {
		i := d.FindBlock(blockID)
		if i < 0 {
			return d, ErrBlockNotFound
		}
		blocks := copyBlocks(d.Blocks)
		blocks[i].Payload = normalizePayload(blocks[i].Type, payload)
		d.Blocks = blocks
		return d, nil
	})
}

// MoveBlock swaps the block with its neighbour. Moving the first block up or
// the last block down leaves the program unchanged.
func MoveBlock(p domain.Program, weekID, dayID, blockID string, dir Direction) (domain.Program, error) {
	if dir != Up && dir != Down {
		return p, ErrInvalidDirection
	}
	return withDay(p, weekID, dayID, func(d domain.Day) (domain.Day, error) {
		i := d.FindBlock(blockID)
		if i < 0 {
			return d, ErrBlockNotFound
		}
		j := i + 1
		if dir == Up {
			j = i - 1
		}
		if j < 0 || j >= len(d.Blocks) {
			return d, nil
		}
		blocks := copyBlocks(d.Blocks)
		blocks[i], blocks[j] = blocks[j], blocks[i]
		blocks[i].Order = i
		blocks[j].Order = j
		d.Blocks = blocks
		return d, nil
	})
}

// RemoveBlock drops the block and compacts the order of its siblings.
func RemoveBlock(p domain.Program, weekID, dayID, blockID string) (domain.Program, error) {
	return withDay(p, weekID, dayID, func(d domain.Day) (domain.Day, error) {
		i := d.FindBlock(blockID)
		if i < 0 {
			return d, ErrBlockNotFound
		}
		blocks := make([]domain.ContentBlock, 0, len(d.Blocks)-1)
		blocks = append(blocks, d.Blocks[:i]...)
		blocks = append(blocks, d.Blocks[i+1:]...)
		for n := range blocks {
			blocks[n].Order = n
		}
		d.Blocks = blocks
		return d, nil
	})
}

// Normalize makes a tree received from outside consistent: slice order is
// authoritative, so week numbers and orders are rewritten from it, missing
// ids are generated and payloads are stripped to their type's fields.
func Normalize(p domain.Program) (domain.Program, error) {
	out := p
	out.Weeks = make([]domain.Week, len(p.Weeks))
	for wi, w := range p.Weeks {
		if len(w.Days) > domain.MaxDaysPerWeek {
			return p, fmt.Errorf("week %d: %w", wi+1, ErrDayLimit)
		}
		nw := domain.Week{ID: w.ID, WeekNumber: wi + 1, Days: make([]domain.Day, len(w.Days))}
		if nw.ID == "" {
			nw.ID = newID()
		}
		for di, d := range w.Days {
			nd := domain.Day{ID: d.ID, Name: d.Name, Order: di, Blocks: make([]domain.ContentBlock, len(d.Blocks))}
			if nd.ID == "" {
				nd.ID = newID()
			}
			if nd.Name == "" {
				nd.Name = fmt.Sprintf("Day %d", di+1)
			}
			for bi, b := range d.Blocks {
				if !b.Type.Valid() {
					return p, fmt.Errorf("week %d, day %d, block %d: %w", wi+1, di+1, bi+1, ErrInvalidBlockType)
				}
				if b.ID == "" {
					b.ID = newID()
				}
				b.Order = bi
				b.Payload = normalizePayload(b.Type, b.Payload)
				nd.Blocks[bi] = b
			}
			nw.Days[di] = nd
		}
		out.Weeks[wi] = nw
	}
	return out, nil
}

// CloneTree deep-copies every week, day and block under fresh ids.
// Used when forking a program into a new draft.
func CloneTree(weeks []domain.Week) []domain.Week {
	out := make([]domain.Week, len(weeks))
	for i, w := range weeks {
		out[i] = cloneWeek(w, true)
	}
	return out
}

func withWeek(p domain.Program, weekID string, fn func(domain.Week) (domain.Week, error)) (domain.Program, error) {
	i := p.FindWeek(weekID)
	if i < 0 {
		return p, ErrWeekNotFound
	}
	w, err := fn(p.Weeks[i])
	if err != nil {
		return p, err
	}
	out := p
	out.Weeks = copyWeeks(p.Weeks)
	out.Weeks[i] = w
	return out, nil
}

func withDay(p domain.Program, weekID, dayID string, fn func(domain.Day) (domain.Day, error)) (domain.Program, error) {
	return withWeek(p, weekID, func(w domain.Week) (domain.Week, error) {
		i := w.FindDay(dayID)
		if i < 0 {
			return w, ErrDayNotFound
		}
		d, err := fn(w.Days[i])
		if err != nil {
			return w, err
		}
		w.Days = copyDays(w.Days)
		w.Days[i] = d
		return w, nil
	})
}

func copyWeeks(in []domain.Week) []domain.Week {
	return append(make([]domain.Week, 0, len(in)+1), in...)
}

func copyDays(in []domain.Day) []domain.Day {
	return append(make([]domain.Day, 0, len(in)+1), in...)
}

func copyBlocks(in []domain.ContentBlock) []domain.ContentBlock {
	return append(make([]domain.ContentBlock, 0, len(in)+1), in...)
}

func cloneWeek(w domain.Week, freshIDs bool) domain.Week {
	out := domain.Week{ID: w.ID, WeekNumber: w.WeekNumber, Days: make([]domain.Day, len(w.Days))}
	if freshIDs {
		out.ID = newID()
	}
	for i, d := range w.Days {
		nd := domain.Day{ID: d.ID, Name: d.Name, Order: d.Order, Blocks: make([]domain.ContentBlock, len(d.Blocks))}
		if freshIDs {
			nd.ID = newID()
		}
		for j, b := range d.Blocks {
			nb := b
			if freshIDs {
				nb.ID = newID()
			}
			nb.Payload.Sets = cloneSets(b.Payload.Sets)
			nd.Blocks[j] = nb
		}
		out.Days[i] = nd
	}
	return out
}

func cloneSets(c *domain.SetConfig) *domain.SetConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Reps = cloneInt(c.Reps)
	out.RepsMin = cloneInt(c.RepsMin)
	out.RepsMax = cloneInt(c.RepsMax)
	return &out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// normalizePayload keeps only the fields meaningful for the block type.
func normalizePayload(t domain.BlockType, in domain.BlockPayload) domain.BlockPayload {
	switch t {
	case domain.BlockText, domain.BlockProTip:
		return domain.BlockPayload{Text: in.Text, Title: in.Title}
	case domain.BlockImage, domain.BlockVideo, domain.BlockLink:
		return domain.BlockPayload{URL: in.URL, Title: in.Title, Text: in.Text}
	case domain.BlockExerciseRef:
		return domain.BlockPayload{RefID: in.RefID, Text: in.Text, Sets: cloneSets(in.Sets)}
	case domain.BlockRecipeRef:
		return domain.BlockPayload{RefID: in.RefID, Text: in.Text, Portion: in.Portion}
	}
	return in
}
