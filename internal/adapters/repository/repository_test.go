package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/infrastructure/config"
	"github.com/tasknest/core/internal/infrastructure/database"
)

// newTestDB opens a fresh in-memory database with the full schema applied.
// The single-connection pool keeps the memory database alive for the whole
// test.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{
		Path:        ":memory:",
		BusyTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.MigrateUp())

	return db
}

func seedUser(t *testing.T, db *database.DB, username string) *entities.User {
	t.Helper()

	user := &entities.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
		IsActive:     true,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))

	return user
}

func seedTask(t *testing.T, db *database.DB, task *entities.Task) *entities.Task {
	t.Helper()

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = now
	}
	if task.Priority == 0 {
		task.Priority = entities.PriorityMedium
	}
	require.NoError(t, NewTaskRepository(db).Create(context.Background(), task))

	return task
}
