package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tasknest/core/internal/adapters/repository"
	"github.com/tasknest/core/internal/infrastructure/config"
	"github.com/tasknest/core/internal/infrastructure/database"
	"github.com/tasknest/core/internal/infrastructure/logger"
	"github.com/tasknest/core/internal/ports"
)

// testEnv wires the services against a real in-memory database so service
// tests exercise the same SQL the application runs.
type testEnv struct {
	db          *database.DB
	userRepo    ports.UserRepository
	taskRepo    ports.TaskRepository
	routineRepo ports.RoutineRepository
	auth        *AuthService
	tasks       *TaskService
	users       *UserService
	routines    *RoutineService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{
		Path:        ":memory:",
		BusyTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.MigrateUp())

	log := logger.NewNop()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	routineRepo := repository.NewRoutineRepository(db)

	// Low bcrypt cost keeps the tests fast.
	auth, err := NewAuthService(userRepo, config.AuthConfig{
		TokenTTL:   time.Hour,
		BcryptCost: 4,
		Issuer:     "tasknest-test",
	}, log)
	require.NoError(t, err)

	return &testEnv{
		db:          db,
		userRepo:    userRepo,
		taskRepo:    taskRepo,
		routineRepo: routineRepo,
		auth:        auth,
		tasks:       NewTaskService(taskRepo, log),
		users:       NewUserService(userRepo, log),
		routines:    NewRoutineService(routineRepo, taskRepo, log),
	}
}

func (e *testEnv) register(t *testing.T, username string) *ports.AuthResponse {
	t.Helper()

	resp, err := e.auth.Register(context.Background(), ports.RegisterRequest{
		Username: username,
		Password: "secret123",
	})
	require.NoError(t, err)

	return resp
}
