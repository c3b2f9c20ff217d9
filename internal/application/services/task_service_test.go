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

func TestTaskServiceCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	task, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{
		Title: "  write report  ",
		Tags:  []string{"work"},
	})
	require.NoError(t, err)
	assert.Equal(t, "write report", task.Title, "title is trimmed")
	assert.Equal(t, entities.PriorityMedium, task.Priority, "priority defaults to medium")
	assert.False(t, task.Completed)
	assert.NotZero(t, task.ID)
}

func TestTaskServiceCreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	_, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "   "})
	assert.ErrorIs(t, err, entities.ErrValidation)

	bad := entities.Priority(9)
	_, err = env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "x", Priority: &bad})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestTaskServiceCreateWithParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	parent, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "project"})
	require.NoError(t, err)

	child, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "phase 1", ParentID: &parent.ID})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	missing := int64(9999)
	_, err = env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "dangling", ParentID: &missing})
	assert.ErrorIs(t, err, entities.ErrInvalidParent)
}

func TestTaskServiceCreateParentMustBelongToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice").User.ID
	bob := env.register(t, "bob").User.ID

	aliceTask, err := env.tasks.Create(ctx, alice, ports.CreateTaskRequest{Title: "private"})
	require.NoError(t, err)

	// Someone else's task is indistinguishable from a missing one.
	_, err = env.tasks.Create(ctx, bob, ports.CreateTaskRequest{Title: "intruder", ParentID: &aliceTask.ID})
	assert.ErrorIs(t, err, entities.ErrInvalidParent)
}

func TestTaskServiceUpdateFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	due := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	task, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "draft", DueDate: &due})
	require.NoError(t, err)

	newTitle := "final"
	newPriority := entities.PriorityUrgent
	updated, err := env.tasks.Update(ctx, owner, task.ID, ports.UpdateTaskRequest{
		Title:    &newTitle,
		Priority: &newPriority,
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, entities.PriorityUrgent, updated.Priority)
	require.NotNil(t, updated.DueDate, "unset fields stay untouched")

	cleared, err := env.tasks.Update(ctx, owner, task.ID, ports.UpdateTaskRequest{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)
}

func TestTaskServiceUpdateCompletionCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	parent, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "project"})
	require.NoError(t, err)
	child, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "phase 1", ParentID: &parent.ID})
	require.NoError(t, err)

	completed := true
	updated, err := env.tasks.Update(ctx, owner, parent.ID, ports.UpdateTaskRequest{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)

	gotChild, err := env.tasks.Get(ctx, owner, child.ID)
	require.NoError(t, err)
	assert.True(t, gotChild.Completed, "completing a task completes its subtree")

	reopened := false
	updated, err = env.tasks.Update(ctx, owner, parent.ID, ports.UpdateTaskRequest{Completed: &reopened})
	require.NoError(t, err)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)

	gotChild, err = env.tasks.Get(ctx, owner, child.ID)
	require.NoError(t, err)
	assert.True(t, gotChild.Completed, "reopening affects only the task itself")
}

func TestTaskServiceReparentRejectsCycles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	root, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "root"})
	require.NoError(t, err)
	child, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "child", ParentID: &root.ID})
	require.NoError(t, err)
	grandchild, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "grandchild", ParentID: &child.ID})
	require.NoError(t, err)

	// Self-parenting.
	_, err = env.tasks.Update(ctx, owner, root.ID, ports.UpdateTaskRequest{ParentID: &root.ID})
	assert.ErrorIs(t, err, entities.ErrInvalidParent)

	// Moving a task under its own descendant.
	_, err = env.tasks.Update(ctx, owner, root.ID, ports.UpdateTaskRequest{ParentID: &grandchild.ID})
	assert.ErrorIs(t, err, entities.ErrInvalidParent)

	// A legal move still works: grandchild directly under root.
	moved, err := env.tasks.Update(ctx, owner, grandchild.ID, ports.UpdateTaskRequest{ParentID: &root.ID})
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, root.ID, *moved.ParentID)

	// Detaching makes it a root again.
	detached, err := env.tasks.Update(ctx, owner, grandchild.ID, ports.UpdateTaskRequest{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)
}

func TestTaskServiceCrossOwnerAccessIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice").User.ID
	bob := env.register(t, "bob").User.ID

	task, err := env.tasks.Create(ctx, alice, ports.CreateTaskRequest{Title: "private"})
	require.NoError(t, err)

	_, err = env.tasks.Get(ctx, bob, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	assert.ErrorIs(t, env.tasks.Delete(ctx, bob, task.ID), entities.ErrTaskNotFound)

	title := "hijack"
	_, err = env.tasks.Update(ctx, bob, task.ID, ports.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestTaskServiceDeleteRemovesSubtree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	root, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "root"})
	require.NoError(t, err)
	child, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "child", ParentID: &root.ID})
	require.NoError(t, err)

	require.NoError(t, env.tasks.Delete(ctx, owner, root.ID))

	_, err = env.tasks.Get(ctx, owner, child.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestTaskServiceListValidatesFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	_, err := env.tasks.List(ctx, owner, ports.TaskFilter{Status: "bogus"})
	assert.ErrorIs(t, err, entities.ErrValidation)

	bad := entities.Priority(0)
	_, err = env.tasks.List(ctx, owner, ports.TaskFilter{Priority: &bad})
	assert.ErrorIs(t, err, entities.ErrValidation)

	tasks, err := env.tasks.List(ctx, owner, ports.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskServiceOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	past := time.Now().Add(-24 * time.Hour)
	task, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "late", DueDate: &past})
	require.NoError(t, err)

	overdue, err := env.tasks.Overdue(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.True(t, overdue)

	completed := true
	_, err = env.tasks.Update(ctx, owner, task.ID, ports.UpdateTaskRequest{Completed: &completed})
	require.NoError(t, err)

	overdue, err = env.tasks.Overdue(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.False(t, overdue, "completed tasks are never overdue")
}

func TestTaskServiceCompletionPercent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice").User.ID

	parent, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "project"})
	require.NoError(t, err)
	done, err := env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "done part", ParentID: &parent.ID})
	require.NoError(t, err)
	_, err = env.tasks.Create(ctx, owner, ports.CreateTaskRequest{Title: "open part", ParentID: &parent.ID})
	require.NoError(t, err)

	completed := true
	_, err = env.tasks.Update(ctx, owner, done.ID, ports.UpdateTaskRequest{Completed: &completed})
	require.NoError(t, err)

	percent, err := env.tasks.CompletionPercent(ctx, owner, parent.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, percent, 0.0001)
}
