package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/ports"
)

func TestRoutineServiceCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	routine, err := env.routines.Create(ctx, owner, ports.CreateRoutineRequest{
		Name:       "  morning routine  ",
		RepeatType: entities.RepeatDaily,
		Templates:  entities.TaskTemplates{{Title: "stretch"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "morning routine", routine.Name)
	assert.True(t, routine.IsActive)
	assert.Equal(t, 1, routine.RepeatInterval, "interval defaults to 1")
	assert.False(t, routine.StartDate.IsZero())
}

func TestRoutineServiceCreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	tests := []struct {
		name string
		req  ports.CreateRoutineRequest
	}{
		{
			name: "empty name",
			req: ports.CreateRoutineRequest{
				Name: " ", RepeatType: entities.RepeatDaily,
				Templates: entities.TaskTemplates{{Title: "x"}},
			},
		},
		{
			name: "unknown repeat type",
			req: ports.CreateRoutineRequest{
				Name: "r", RepeatType: "fortnightly",
				Templates: entities.TaskTemplates{{Title: "x"}},
			},
		},
		{
			name: "custom without days",
			req: ports.CreateRoutineRequest{
				Name: "r", RepeatType: entities.RepeatCustom,
				Templates: entities.TaskTemplates{{Title: "x"}},
			},
		},
		{
			name: "no templates",
			req:  ports.CreateRoutineRequest{Name: "r", RepeatType: entities.RepeatDaily},
		},
		{
			name: "bad preferred time",
			req: ports.CreateRoutineRequest{
				Name: "r", RepeatType: entities.RepeatDaily,
				PreferredTime: strPtr("nine-ish"),
				Templates:     entities.TaskTemplates{{Title: "x"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.routines.Create(ctx, owner, tt.req)
			assert.ErrorIs(t, err, entities.ErrValidation)
		})
	}
}

func TestRoutineServiceGenerateSingleTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	_, err := env.routines.Create(ctx, owner, ports.CreateRoutineRequest{
		Name:          "daily checkin",
		RepeatType:    entities.RepeatDaily,
		StartDate:     &start,
		PreferredTime: strPtr("09:00"),
		Templates:     entities.TaskTemplates{{Title: "post standup", Priority: entities.PriorityHigh}},
	})
	require.NoError(t, err)

	date := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	tasks, err := env.routines.Generate(ctx, owner, date)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "post standup", tasks[0].Title)
	assert.Equal(t, entities.PriorityHigh, tasks[0].Priority)
	assert.Nil(t, tasks[0].ParentID)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, 9, tasks[0].DueDate.Hour())
}

func TestRoutineServiceGenerateMultiTemplateBuildsTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	_, err := env.routines.Create(ctx, owner, ports.CreateRoutineRequest{
		Name:       "morning routine",
		RepeatType: entities.RepeatDaily,
		StartDate:  &start,
		Templates: entities.TaskTemplates{
			{Title: "stretch"},
			{Title: "coffee"},
		},
	})
	require.NoError(t, err)

	tasks, err := env.routines.Generate(ctx, owner, start)
	require.NoError(t, err)
	require.Len(t, tasks, 3, "parent plus one task per template")

	parent := tasks[0]
	assert.Equal(t, "morning routine", parent.Title)
	assert.Nil(t, parent.ParentID)
	for _, child := range tasks[1:] {
		require.NotNil(t, child.ParentID)
		assert.Equal(t, parent.ID, *child.ParentID)
	}
}

func TestRoutineServiceGenerateOncePerDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	_, err := env.routines.Create(ctx, owner, ports.CreateRoutineRequest{
		Name:       "daily",
		RepeatType: entities.RepeatDaily,
		StartDate:  &start,
		Templates:  entities.TaskTemplates{{Title: "the thing"}},
	})
	require.NoError(t, err)

	first, err := env.routines.Generate(ctx, owner, start)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := env.routines.Generate(ctx, owner, start)
	require.NoError(t, err)
	assert.Empty(t, second, "same day generates nothing twice")

	nextDay, err := env.routines.Generate(ctx, owner, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, nextDay, 1)
}

func TestRoutineServiceGenerateSkipsInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	routine, err := env.routines.Create(ctx, owner, ports.CreateRoutineRequest{
		Name:       "paused",
		RepeatType: entities.RepeatDaily,
		StartDate:  &start,
		Templates:  entities.TaskTemplates{{Title: "skip me"}},
	})
	require.NoError(t, err)

	inactive := false
	_, err = env.routines.Update(ctx, owner, routine.ID, ports.UpdateRoutineRequest{IsActive: &inactive})
	require.NoError(t, err)

	tasks, err := env.routines.Generate(ctx, owner, start)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRoutineServiceUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	routine, err := env.routines.Create(ctx, owner, ports.CreateRoutineRequest{
		Name:       "original",
		RepeatType: entities.RepeatDaily,
		Templates:  entities.TaskTemplates{{Title: "x"}},
	})
	require.NoError(t, err)

	newName := "renamed"
	updated, err := env.routines.Update(ctx, owner, routine.ID, ports.UpdateRoutineRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	empty := entities.TaskTemplates{}
	_, err = env.routines.Update(ctx, owner, routine.ID, ports.UpdateRoutineRequest{Templates: &empty})
	assert.ErrorIs(t, err, entities.ErrValidation)

	require.NoError(t, env.routines.Delete(ctx, owner, routine.ID))
	_, err = env.routines.Get(ctx, owner, routine.ID)
	assert.ErrorIs(t, err, entities.ErrRoutineNotFound)
}

func TestRoutineServiceCrossOwnerAccessIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice").User.ID
	bob := env.register(t, "bob").User.ID

	routine, err := env.routines.Create(ctx, alice, ports.CreateRoutineRequest{
		Name:       "private",
		RepeatType: entities.RepeatDaily,
		Templates:  entities.TaskTemplates{{Title: "x"}},
	})
	require.NoError(t, err)

	_, err = env.routines.Get(ctx, bob, routine.ID)
	assert.ErrorIs(t, err, entities.ErrRoutineNotFound)
	assert.ErrorIs(t, env.routines.Delete(ctx, bob, routine.ID), entities.ErrRoutineNotFound)
}

func strPtr(s string) *string { return &s }
