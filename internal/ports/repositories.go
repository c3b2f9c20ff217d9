package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tasknest/core/internal/domain/entities"
)

// UserRepository defines the credential store operations.
type UserRepository interface {
	// Create inserts a new account. Returns entities.ErrDuplicateUsername on
	// a username conflict.
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// Delete hard-deletes an account; owned tasks and routines cascade.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*entities.User, error)
}

// TaskStatusFilter narrows a task listing by completion state.
type TaskStatusFilter string

const (
	TaskStatusAll       TaskStatusFilter = "all"
	TaskStatusPending   TaskStatusFilter = "pending"
	TaskStatusCompleted TaskStatusFilter = "completed"
)

// TaskFilter configures List queries. All set fields combine with AND.
type TaskFilter struct {
	Status    TaskStatusFilter
	Priority  *entities.Priority
	DueBefore *time.Time
	DueAfter  *time.Time
	// Search matches case-insensitively against title and description.
	Search *string
	Tag    *string
}

// TaskRepository defines the task store. Every operation is scoped to an
// owner; a task belonging to someone else behaves exactly like a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	// CreateTree inserts a parent and its children in one transaction. The
	// parent may be nil, in which case only the children are inserted.
	CreateTree(ctx context.Context, parent *entities.Task, children []*entities.Task) error
	GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	// SetCompleted marks a task completed or pending. Completing also
	// completes the whole subtree under it, atomically.
	SetCompleted(ctx context.Context, ownerID uuid.UUID, id int64, completed bool, at time.Time) error
	// Delete removes a task; the subtree under it cascades away in the same
	// statement. Returns entities.ErrTaskNotFound when nothing matched.
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
	List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*entities.Task, error)
	Children(ctx context.Context, ownerID uuid.UUID, parentID int64) ([]*entities.Task, error)
	// HasAncestor reports whether ancestorID appears on the parent chain of
	// taskID (taskID itself does not count).
	HasAncestor(ctx context.Context, ownerID uuid.UUID, taskID, ancestorID int64) (bool, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// RoutineRepository defines the recurring-task store, owner-scoped like the
// task store.
type RoutineRepository interface {
	Create(ctx context.Context, routine *entities.Routine) error
	GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*entities.Routine, error)
	Update(ctx context.Context, routine *entities.Routine) error
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
	List(ctx context.Context, ownerID uuid.UUID, activeOnly bool) ([]*entities.Routine, error)
	MarkGenerated(ctx context.Context, id int64, at time.Time) error
}
