package builder_test

import (
	"testing"

	"alcyxob/coaching-app/internal/builder"
	"alcyxob/coaching-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func textBlock(s string) domain.ContentBlock {
	return domain.ContentBlock{Type: domain.BlockText, Payload: domain.BlockPayload{Text: s}}
}

// programWithDay returns a program holding one week with one empty day.
func programWithDay(t *testing.T) (domain.Program, string, string) {
	t.Helper()
	p := builder.AddWeek(domain.Program{Title: "Full Body", Category: domain.CategoryFitness})
	weekID := p.Weeks[0].ID
	p, err := builder.AddDay(p, weekID, "")
	require.NoError(t, err)
	return p, weekID, p.Weeks[0].Days[0].ID
}

func requireWeekNumbers(t *testing.T, p domain.Program) {
	t.Helper()
	for i, w := range p.Weeks {
		require.Equal(t, i+1, w.WeekNumber, "week at index %d", i)
	}
}

func requireBlockOrders(t *testing.T, d domain.Day) {
	t.Helper()
	for i, b := range d.Blocks {
		require.Equal(t, i, b.Order, "block at index %d", i)
	}
}

func TestWeekNumbersStayContiguous(t *testing.T) {
	var p domain.Program
	for i := 0; i < 4; i++ {
		p = builder.AddWeek(p)
	}
	requireWeekNumbers(t, p)

	p, err := builder.RemoveWeek(p, p.Weeks[1].ID)
	require.NoError(t, err)
	require.Len(t, p.Weeks, 3)
	requireWeekNumbers(t, p)

	p, err = builder.DuplicateWeek(p, p.Weeks[0].ID)
	require.NoError(t, err)
	require.Len(t, p.Weeks, 4)
	requireWeekNumbers(t, p)

	p, err = builder.RemoveWeek(p, p.Weeks[0].ID)
	require.NoError(t, err)
	p = builder.AddWeek(p)
	requireWeekNumbers(t, p)
}

func TestRemoveWeekUnknownID(t *testing.T) {
	p := builder.AddWeek(domain.Program{})
	_, err := builder.RemoveWeek(p, "nope")
	assert.ErrorIs(t, err, builder.ErrWeekNotFound)
}

func TestAddDayRejectsEighthDay(t *testing.T) {
	p := builder.AddWeek(domain.Program{})
	weekID := p.Weeks[0].ID

	var err error
	for i := 0; i < domain.MaxDaysPerWeek; i++ {
		p, err = builder.AddDay(p, weekID, "")
		require.NoError(t, err)
	}
	require.Len(t, p.Weeks[0].Days, 7)
	assert.Equal(t, "Day 7", p.Weeks[0].Days[6].Name)

	after, err := builder.AddDay(p, weekID, "Extra")
	require.ErrorIs(t, err, builder.ErrDayLimit)
	assert.Len(t, after.Weeks[0].Days, 7)
	assert.Equal(t, p, after)
}

func TestRemoveDayCompactsOrder(t *testing.T) {
	p := builder.AddWeek(domain.Program{})
	weekID := p.Weeks[0].ID
	for i := 0; i < 3; i++ {
		var err error
		p, err = builder.AddDay(p, weekID, "")
		require.NoError(t, err)
	}

	p, err := builder.RemoveDay(p, weekID, p.Weeks[0].Days[0].ID)
	require.NoError(t, err)
	require.Len(t, p.Weeks[0].Days, 2)
	for i, d := range p.Weeks[0].Days {
		assert.Equal(t, i, d.Order)
	}
}

func TestBlockOrderAndMoves(t *testing.T) {
	p, weekID, dayID := programWithDay(t)
	for _, s := range []string{"a", "b", "c"} {
		var err error
		p, err = builder.AddBlock(p, weekID, dayID, textBlock(s))
		require.NoError(t, err)
	}
	day := p.Weeks[0].Days[0]
	requireBlockOrders(t, day)
	first, last := day.Blocks[0].ID, day.Blocks[2].ID

	t.Run("first up is a no-op", func(t *testing.T) {
		moved, err := builder.MoveBlock(p, weekID, dayID, first, builder.Up)
		require.NoError(t, err)
		assert.Equal(t, p, moved)
	})

	t.Run("last down is a no-op", func(t *testing.T) {
		moved, err := builder.MoveBlock(p, weekID, dayID, last, builder.Down)
		require.NoError(t, err)
		assert.Equal(t, p, moved)
	})

	t.Run("swap with neighbour", func(t *testing.T) {
		moved, err := builder.MoveBlock(p, weekID, dayID, first, builder.Down)
		require.NoError(t, err)
		d := moved.Weeks[0].Days[0]
		requireBlockOrders(t, d)
		assert.Equal(t, "b", d.Blocks[0].Payload.Text)
		assert.Equal(t, "a", d.Blocks[1].Payload.Text)
		// original untouched
		assert.Equal(t, "a", p.Weeks[0].Days[0].Blocks[0].Payload.Text)
	})

	t.Run("remove compacts", func(t *testing.T) {
		removed, err := builder.RemoveBlock(p, weekID, dayID, day.Blocks[1].ID)
		require.NoError(t, err)
		d := removed.Weeks[0].Days[0]
		require.Len(t, d.Blocks, 2)
		requireBlockOrders(t, d)
		assert.Equal(t, "c", d.Blocks[1].Payload.Text)
	})

	t.Run("bad direction", func(t *testing.T) {
		_, err := builder.MoveBlock(p, weekID, dayID, first, "sideways")
		assert.ErrorIs(t, err, builder.ErrInvalidDirection)
	})
}

func TestAddBlockRejectsUnknownType(t *testing.T) {
	p, weekID, dayID := programWithDay(t)
	_, err := builder.AddBlock(p, weekID, dayID, domain.ContentBlock{Type: "gif"})
	assert.ErrorIs(t, err, builder.ErrInvalidBlockType)
}

func TestUpdateBlockEditsSetConfig(t *testing.T) {
	p, weekID, dayID := programWithDay(t)
	p, err := builder.AddBlock(p, weekID, dayID, domain.ContentBlock{
		Type:    domain.BlockExerciseRef,
		Payload: domain.BlockPayload{RefID: "ex1", Sets: &domain.SetConfig{Sets: 3, Reps: intPtr(10)}},
	})
	require.NoError(t, err)
	blockID := p.Weeks[0].Days[0].Blocks[0].ID

	updated, err := builder.UpdateBlock(p, weekID, dayID, blockID, domain.BlockPayload{
		RefID: "ex1",
		URL:   "https://ignored.example",
		Sets:  &domain.SetConfig{Sets: 4, RepsMin: intPtr(8), RepsMax: intPtr(12)},
	})
	require.NoError(t, err)

	got := updated.Weeks[0].Days[0].Blocks[0].Payload
	assert.Empty(t, got.URL, "fields foreign to the block type are dropped")
	assert.Equal(t, 4, got.Sets.Sets)
	assert.True(t, got.Sets.Ranged())
	assert.Equal(t, 3, p.Weeks[0].Days[0].Blocks[0].Payload.Sets.Sets)
}

func TestDuplicateWeekIsIndependent(t *testing.T) {
	p, weekID, dayID := programWithDay(t)
	p, err := builder.AddBlock(p, weekID, dayID, domain.ContentBlock{
		Type:    domain.BlockExerciseRef,
		Payload: domain.BlockPayload{RefID: "ex1", Sets: &domain.SetConfig{Sets: 3, Reps: intPtr(10)}},
	})
	require.NoError(t, err)

	p, err = builder.DuplicateWeek(p, weekID)
	require.NoError(t, err)
	require.Len(t, p.Weeks, 2)
	orig, dup := p.Weeks[0], p.Weeks[1]
	assert.Equal(t, 2, dup.WeekNumber)

	ids := map[string]bool{orig.ID: true}
	for _, d := range orig.Days {
		ids[d.ID] = true
		for _, b := range d.Blocks {
			ids[b.ID] = true
		}
	}
	assert.False(t, ids[dup.ID])
	for _, d := range dup.Days {
		assert.False(t, ids[d.ID], "day id reused")
		for _, b := range d.Blocks {
			assert.False(t, ids[b.ID], "block id reused")
		}
	}

	edited, err := builder.UpdateBlock(p, dup.ID, dup.Days[0].ID, dup.Days[0].Blocks[0].ID,
		domain.BlockPayload{RefID: "ex2", Sets: &domain.SetConfig{Sets: 5, Reps: intPtr(5)}})
	require.NoError(t, err)
	edited, err = builder.AddBlock(edited, dup.ID, dup.Days[0].ID, textBlock("extra"))
	require.NoError(t, err)

	assert.Equal(t, "ex1", edited.Weeks[0].Days[0].Blocks[0].Payload.RefID)
	assert.Len(t, edited.Weeks[0].Days[0].Blocks, 1)

	// a copy's set config never aliases the original
	*edited.Weeks[1].Days[0].Blocks[0].Payload.Sets.Reps = 99
	assert.Equal(t, 10, *edited.Weeks[0].Days[0].Blocks[0].Payload.Sets.Reps)
}

func TestDuplicateWeekUnknownID(t *testing.T) {
	p := builder.AddWeek(domain.Program{})
	after, err := builder.DuplicateWeek(p, "missing")
	require.ErrorIs(t, err, builder.ErrWeekNotFound)
	assert.Equal(t, p, after)
}

func TestNormalize(t *testing.T) {
	p := domain.Program{Weeks: []domain.Week{
		{WeekNumber: 7, Days: []domain.Day{{Order: 3, Blocks: []domain.ContentBlock{
			{Type: domain.BlockText, Order: 5, Payload: domain.BlockPayload{Text: "x", RefID: "stray"}},
		}}}},
		{WeekNumber: 2},
	}}

	out, err := builder.Normalize(p)
	require.NoError(t, err)
	requireWeekNumbers(t, out)
	day := out.Weeks[0].Days[0]
	assert.NotEmpty(t, out.Weeks[0].ID)
	assert.NotEmpty(t, day.ID)
	assert.Equal(t, "Day 1", day.Name)
	assert.Equal(t, 0, day.Order)
	requireBlockOrders(t, day)
	assert.Empty(t, day.Blocks[0].Payload.RefID)

	p.Weeks[0].Days = make([]domain.Day, 8)
	_, err = builder.Normalize(p)
	assert.ErrorIs(t, err, builder.ErrDayLimit)
}

func TestCloneTreeFreshIDs(t *testing.T) {
	p, _, _ := programWithDay(t)
	clone := builder.CloneTree(p.Weeks)
	require.Len(t, clone, 1)
	assert.NotEqual(t, p.Weeks[0].ID, clone[0].ID)
	assert.NotEqual(t, p.Weeks[0].Days[0].ID, clone[0].Days[0].ID)
	assert.Equal(t, p.Weeks[0].Days[0].Name, clone[0].Days[0].Name)
}
