package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/coaching-app/internal/builder"
	"alcyxob/coaching-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPublishRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)

	patch := fullBody()
	patch.Title = strPtr("   ")
	draft, err := env.programs.CreateProgram(ctx, coach.ID, patch)
	require.NoError(t, err)

	_, err = env.programs.Publish(ctx, coach.ID, draft.ID)
	var verr *builder.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("title"))

	stored, err := env.programs.GetProgram(ctx, coach.ID, domain.RoleCoach, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramDraft, stored.State)
}

func TestPublishFullBody(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(t)

	program := env.publishedProgram(t, coach.ID)

	assert.Equal(t, domain.ProgramPublished, program.State)
	require.NotNil(t, program.PublishedAt)
	assert.Eventually(t, func() bool { return env.publisher.publishedCount() == 1 }, time.Second, 10*time.Millisecond)

	// Publishing again changes nothing.
	again, err := env.programs.Publish(context.Background(), coach.ID, program.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramPublished, again.State)
}

func TestPublishListsEveryProblem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)

	weeks := []domain.Week{
		{Days: []domain.Day{{Blocks: []domain.ContentBlock{
			{Type: domain.BlockImage, Payload: domain.BlockPayload{URL: "not a url"}},
			{Type: domain.BlockRecipeRef, Payload: domain.BlockPayload{RefID: "0123456789abcdef01234567"}},
		}}}},
		{},
	}
	draft, err := env.programs.CreateProgram(ctx, coach.ID, ProgramPatch{Weeks: &weeks})
	require.NoError(t, err)

	_, err = env.programs.Publish(ctx, coach.ID, draft.ID)
	var verr *builder.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{
		"title",
		"category",
		"weeks[0].days[0].blocks[0].payload.url",
		"weeks[0].days[0].blocks[1].payload.refId",
		"weeks[1].days",
	} {
		assert.True(t, verr.Has(field), "expected an error for %s, got %v", field, verr)
	}
}

func TestPublishChecksLibraryOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)
	other := env.register(t, "other", domain.RoleCoach, "")

	mine, err := env.library.CreateItem(ctx, coach.ID, LibraryItemInput{Kind: domain.LibraryExercise, Name: "Squat"})
	require.NoError(t, err)
	theirs, err := env.library.CreateItem(ctx, other.ID, LibraryItemInput{Kind: domain.LibraryExercise, Name: "Lunge"})
	require.NoError(t, err)

	reps := 10
	sets := &domain.SetConfig{Sets: 3, Reps: &reps}
	patch := fullBody()
	(*patch.Weeks)[0].Days[0].Blocks = []domain.ContentBlock{
		{Type: domain.BlockExerciseRef, Payload: domain.BlockPayload{RefID: mine.ID.Hex(), Sets: sets}},
		{Type: domain.BlockExerciseRef, Payload: domain.BlockPayload{RefID: theirs.ID.Hex(), Sets: sets}},
		{Type: domain.BlockRecipeRef, Payload: domain.BlockPayload{RefID: mine.ID.Hex()}},
	}
	draft, err := env.programs.CreateProgram(ctx, coach.ID, patch)
	require.NoError(t, err)

	_, err = env.programs.Publish(ctx, coach.ID, draft.ID)
	var verr *builder.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, verr.Has("weeks[0].days[0].blocks[0].payload.refId"))
	assert.True(t, verr.Has("weeks[0].days[0].blocks[1].payload.refId"))
	assert.True(t, verr.Has("weeks[0].days[0].blocks[2].payload.refId"))
}

func TestSaveDraftIdenticalContentIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)

	draft, err := env.programs.CreateProgram(ctx, coach.ID, fullBody())
	require.NoError(t, err)
	before, err := env.programs.GetProgram(ctx, coach.ID, domain.RoleCoach, draft.ID)
	require.NoError(t, err)

	// Same content, sent back as a client would: ids included.
	weeks := before.Weeks
	_, err = env.programs.SaveDraft(ctx, coach.ID, draft.ID, ProgramPatch{
		Title:    strPtr("Full Body"),
		Category: categoryPtr(domain.CategoryFitness),
		Weeks:    &weeks,
	})
	require.NoError(t, err)

	after, err := env.programs.GetProgram(ctx, coach.ID, domain.RoleCoach, draft.ID)
	require.NoError(t, err)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))

	changed, err := env.programs.SaveDraft(ctx, coach.ID, draft.ID, ProgramPatch{Title: strPtr("Full Body v2")})
	require.NoError(t, err)
	assert.Equal(t, "Full Body v2", changed.Title)
	assert.False(t, changed.UpdatedAt.Before(before.UpdatedAt))
}

func TestSaveDraftKeepsIncompleteTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)

	weeks := []domain.Week{{}, {Days: []domain.Day{{}}}}
	draft, err := env.programs.CreateProgram(ctx, coach.ID, ProgramPatch{Weeks: &weeks})
	require.NoError(t, err)
	require.Len(t, draft.Weeks, 2)
	assert.Equal(t, 1, draft.Weeks[0].WeekNumber)
	assert.Equal(t, 2, draft.Weeks[1].WeekNumber)
	assert.Equal(t, "Day 1", draft.Weeks[1].Days[0].Name)
}

func TestPublishedProgramNeverReturnsToDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)
	program := env.publishedProgram(t, coach.ID)

	// Structural edits are frozen.
	_, err := env.programs.Edit(ctx, coach.ID, program.ID, func(p domain.Program) (domain.Program, error) {
		return builder.AddWeek(p), nil
	})
	assert.ErrorIs(t, err, ErrProgramFrozen)

	weeks := append(program.Weeks, domain.Week{Days: []domain.Day{{}}})
	_, err = env.programs.SaveDraft(ctx, coach.ID, program.ID, ProgramPatch{Weeks: &weeks})
	assert.ErrorIs(t, err, ErrProgramFrozen)

	// Metadata stays editable, but must stay publishable.
	updated, err := env.programs.SaveDraft(ctx, coach.ID, program.ID, ProgramPatch{Description: strPtr("Three sessions a week")})
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramPublished, updated.State)

	_, err = env.programs.SaveDraft(ctx, coach.ID, program.ID, ProgramPatch{Title: strPtr("")})
	var verr *builder.ValidationError
	assert.ErrorAs(t, err, &verr)

	archived, err := env.programs.Archive(ctx, coach.ID, program.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramArchived, archived.State)

	_, err = env.programs.Publish(ctx, coach.ID, program.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.programs.SaveDraft(ctx, coach.ID, program.ID, ProgramPatch{Title: strPtr("Again")})
	assert.ErrorIs(t, err, ErrProgramArchived)
}

func TestArchiveRequiresPublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)

	draft, err := env.programs.CreateProgram(ctx, coach.ID, fullBody())
	require.NoError(t, err)
	_, err = env.programs.Archive(ctx, coach.ID, draft.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestArchiveKeepsAssignedClientAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)
	client := env.register(t, "client", domain.RoleCustomer, domain.PlanTrial)
	program := env.publishedProgram(t, coach.ID)
	_, err := env.assignments.AssignProgram(ctx, coach.ID, program.ID, client.ID, "")
	require.NoError(t, err)

	active, err := env.repos.Assignments.HasActiveForProgram(ctx, program.ID)
	require.NoError(t, err)
	require.True(t, active)

	archived, err := env.programs.Archive(ctx, coach.ID, program.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramArchived, archived.State)
	assert.NotNil(t, archived.ArchivedAt)

	seen, err := env.programs.GetProgram(ctx, client.ID, domain.RoleCustomer, program.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgramArchived, seen.State)
}

func TestForkCopiesTreeIntoNewDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)
	program := env.publishedProgram(t, coach.ID)

	fork, err := env.programs.Fork(ctx, coach.ID, program.ID)
	require.NoError(t, err)
	assert.NotEqual(t, program.ID, fork.ID)
	assert.Equal(t, domain.ProgramDraft, fork.State)
	require.NotNil(t, fork.ForkedFrom)
	assert.Equal(t, program.ID, *fork.ForkedFrom)
	require.Len(t, fork.Weeks, 1)
	assert.NotEqual(t, program.Weeks[0].ID, fork.Weeks[0].ID)

	// The fork is a draft, so it can be restructured.
	_, err = env.programs.Edit(ctx, coach.ID, fork.ID, func(p domain.Program) (domain.Program, error) {
		return builder.AddWeek(p), nil
	})
	require.NoError(t, err)
}

func TestEditAppliesBuilderErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)
	draft, err := env.programs.CreateProgram(ctx, coach.ID, fullBody())
	require.NoError(t, err)
	weekID := draft.Weeks[0].ID

	for i := 1; i < domain.MaxDaysPerWeek; i++ {
		_, err = env.programs.Edit(ctx, coach.ID, draft.ID, func(p domain.Program) (domain.Program, error) {
			return builder.AddDay(p, weekID, "")
		})
		require.NoError(t, err)
	}
	_, err = env.programs.Edit(ctx, coach.ID, draft.ID, func(p domain.Program) (domain.Program, error) {
		return builder.AddDay(p, weekID, "")
	})
	assert.ErrorIs(t, err, builder.ErrDayLimit)

	stored, err := env.programs.GetProgram(ctx, coach.ID, domain.RoleCoach, draft.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Weeks[0].Days, domain.MaxDaysPerWeek)
}

func TestEditUnchangedTreeIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)
	draft, err := env.programs.CreateProgram(ctx, coach.ID, fullBody())
	require.NoError(t, err)

	stale := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	draft.UpdatedAt = stale
	require.NoError(t, env.repos.Programs.Update(ctx, draft))

	week := draft.Weeks[0]
	day := week.Days[0]
	_, err = env.programs.Edit(ctx, coach.ID, draft.ID, func(p domain.Program) (domain.Program, error) {
		return builder.MoveBlock(p, week.ID, day.ID, day.Blocks[0].ID, builder.Up)
	})
	require.NoError(t, err)

	stored, err := env.repos.Programs.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, stale.Equal(stored.UpdatedAt))

	_, err = env.programs.Edit(ctx, coach.ID, draft.ID, func(p domain.Program) (domain.Program, error) {
		return builder.AddDay(p, week.ID, "")
	})
	require.NoError(t, err)
	stored, err = env.repos.Programs.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.After(stale))
}

func TestProgramAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)
	other := env.register(t, "other", domain.RoleCoach, "")
	client := env.register(t, "client", domain.RoleCustomer, domain.PlanStandard)
	program := env.publishedProgram(t, coach.ID)

	_, err := env.programs.SaveDraft(ctx, other.ID, program.ID, ProgramPatch{Title: strPtr("Mine now")})
	assert.ErrorIs(t, err, ErrProgramAccessDenied)

	_, err = env.programs.GetProgram(ctx, client.ID, domain.RoleCustomer, program.ID)
	assert.ErrorIs(t, err, ErrProgramAccessDenied)

	_, err = env.assignments.AssignProgram(ctx, coach.ID, program.ID, client.ID, "")
	require.NoError(t, err)
	visible, err := env.programs.GetProgram(ctx, client.ID, domain.RoleCustomer, program.ID)
	require.NoError(t, err)
	assert.Equal(t, program.ID, visible.ID)

	_, err = env.programs.GetProgram(ctx, coach.ID, domain.RoleCoach, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrProgramNotFound)
}

func TestCreateProgramRejectsUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(t)
	_, err := env.programs.CreateProgram(context.Background(), coach.ID, ProgramPatch{Category: categoryPtr("cardio")})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestListProgramsHidesArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)
	program := env.publishedProgram(t, coach.ID)
	_, err := env.programs.CreateProgram(ctx, coach.ID, fullBody())
	require.NoError(t, err)
	_, err = env.programs.Archive(ctx, coach.ID, program.ID)
	require.NoError(t, err)

	active, err := env.programs.ListPrograms(ctx, coach.ID, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := env.programs.ListPrograms(ctx, coach.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"legs", "strength"}, normalizeTags([]string{" strength", "legs", "", "strength"}))
	assert.Nil(t, normalizeTags([]string{" "}))
}
