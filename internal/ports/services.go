package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/core/internal/domain/entities"
)

// RegisterRequest carries a new account registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest carries a credential check.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// AuthResponse is returned on successful register/login.
type AuthResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresIn int64          `json:"expires_in"`
	User      *entities.User `json:"user"`
}

// Claims are the validated session claims extracted from a token.
type Claims struct {
	UserID   uuid.UUID
	Username string
	TokenID  string
}

// AuthService authenticates accounts and manages sessions.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	// Logout revokes the session the token represents. Revocation is
	// in-process only; sessions never survive a restart.
	Logout(ctx context.Context, token string) error
	ValidateToken(token string) (*Claims, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
}

// CreateTaskRequest carries a new task. Priority defaults to medium when
// absent.
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required"`
	Description string              `json:"description"`
	Priority    *entities.Priority  `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	ParentID    *int64              `json:"parent_id"`
	Tags        []string            `json:"tags"`
	Properties  entities.Properties `json:"properties"`
}

// UpdateTaskRequest is a partial update; nil fields are left untouched.
// Clear flags exist because a nil pointer cannot distinguish "unset" from
// "set to nothing".
type UpdateTaskRequest struct {
	Title        *string             `json:"title"`
	Description  *string             `json:"description"`
	Completed    *bool               `json:"completed"`
	Priority     *entities.Priority  `json:"priority"`
	DueDate      *time.Time          `json:"due_date"`
	ClearDueDate bool                `json:"clear_due_date"`
	ParentID     *int64              `json:"parent_id"`
	ClearParent  bool                `json:"clear_parent"`
	Tags         *[]string           `json:"tags"`
	Properties   *entities.Properties `json:"properties"`
}

// TaskService is the owner-scoped task CRUD surface.
type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req CreateTaskRequest) (*entities.Task, error)
	Get(ctx context.Context, ownerID uuid.UUID, id int64) (*entities.Task, error)
	Update(ctx context.Context, ownerID uuid.UUID, id int64, req UpdateTaskRequest) (*entities.Task, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
	List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*entities.Task, error)
	Overdue(ctx context.Context, ownerID uuid.UUID, id int64) (bool, error)
	CompletionPercent(ctx context.Context, ownerID uuid.UUID, id int64) (float64, error)
}

// UpdateUserRequest mutates the caller's own account.
type UpdateUserRequest struct {
	Email *string `json:"email"`
}

// UserService manages accounts beyond authentication.
type UserService interface {
	Get(ctx context.Context, id uuid.UUID) (*entities.User, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*entities.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*entities.User, error)
}

// CreateRoutineRequest carries a new recurring-task definition.
type CreateRoutineRequest struct {
	Name           string                 `json:"name" validate:"required"`
	Description    string                 `json:"description"`
	RepeatType     entities.RepeatType    `json:"repeat_type" validate:"required"`
	RepeatInterval int                    `json:"repeat_interval"`
	CustomDays     entities.Weekdays      `json:"custom_days"`
	StartDate      *time.Time             `json:"start_date"`
	EndDate        *time.Time             `json:"end_date"`
	PreferredTime  *string                `json:"preferred_time"`
	Templates      entities.TaskTemplates `json:"templates" validate:"required,min=1"`
}

// UpdateRoutineRequest is a partial routine update.
type UpdateRoutineRequest struct {
	Name           *string                 `json:"name"`
	Description    *string                 `json:"description"`
	RepeatType     *entities.RepeatType    `json:"repeat_type"`
	RepeatInterval *int                    `json:"repeat_interval"`
	CustomDays     *entities.Weekdays      `json:"custom_days"`
	EndDate        *time.Time              `json:"end_date"`
	PreferredTime  *string                 `json:"preferred_time"`
	IsActive       *bool                   `json:"is_active"`
	Templates      *entities.TaskTemplates `json:"templates"`
}

// RoutineService manages recurring-task definitions and generation.
type RoutineService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req CreateRoutineRequest) (*entities.Routine, error)
	Get(ctx context.Context, ownerID uuid.UUID, id int64) (*entities.Routine, error)
	Update(ctx context.Context, ownerID uuid.UUID, id int64, req UpdateRoutineRequest) (*entities.Routine, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Routine, error)
	// Generate materializes tasks for every routine of the owner that is due
	// on the given date and returns the created tasks.
	Generate(ctx context.Context, ownerID uuid.UUID, date time.Time) ([]*entities.Task, error)
}
