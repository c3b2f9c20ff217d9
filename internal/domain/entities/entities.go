package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrRoutineNotFound    = errors.New("routine not found")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidParent      = errors.New("invalid parent task")
	ErrValidation         = errors.New("validation failed")
)

// Priority is the ordered task priority scale. Higher values sort first.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
	PriorityUrgent Priority = 4
)

func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ParsePriority converts a priority name to its Priority value.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "urgent":
		return PriorityUrgent, nil
	default:
		return 0, fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
	}
}

// User represents an account. Accounts are deactivated rather than deleted
// in normal flow; a hard delete cascades to every owned task and routine.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        *string    `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`
	IsActive     bool       `json:"is_active" db:"is_active"`
}

// Properties holds free-form extension data attached to a task, stored as a
// JSON text column.
type Properties map[string]any

func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal task properties: %w", err)
	}
	return string(b), nil
}

func (p *Properties) Scan(src any) error {
	if src == nil {
		*p = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan task properties: unsupported type %T", src)
	}
	if len(data) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(data, p)
}

// Task is a node in an owner's task forest. ParentID, when set, always
// references a task with the same owner.
type Task struct {
	ID          int64      `json:"id" db:"id"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
	ParentID    *int64     `json:"parent_id" db:"parent_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Completed   bool       `json:"completed" db:"completed"`
	Priority    Priority   `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	Properties  Properties `json:"properties,omitempty" db:"properties"`
	Tags        []string   `json:"tags,omitempty"`
	Subtasks    []*Task    `json:"subtasks,omitempty"`
}

// IsOverdueAt reports whether the task is incomplete with a due date
// strictly before now.
func (t *Task) IsOverdueAt(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now)
}

// IsOverdue is IsOverdueAt against the wall clock.
func (t *Task) IsOverdue() bool {
	return t.IsOverdueAt(time.Now())
}

// MarkCompleted flips the completion flag, stamping the completion time when
// set and clearing it otherwise.
func (t *Task) MarkCompleted(completed bool, now time.Time) {
	t.Completed = completed
	t.UpdatedAt = now
	if completed {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}

// CompletionPercent returns the completed fraction of the task's direct
// subtasks. A task without subtasks is all-or-nothing.
func (t *Task) CompletionPercent() float64 {
	if t.Completed || len(t.Subtasks) == 0 {
		if t.Completed {
			return 1.0
		}
		return 0.0
	}
	done := 0
	for _, sub := range t.Subtasks {
		if sub.Completed {
			done++
		}
	}
	return float64(done) / float64(len(t.Subtasks))
}

// BuildForest links a flat, ordered task slice into parent/child structure
// and returns the roots. Tasks whose parent is not in the slice are treated
// as roots so a filtered list still renders. Input order is preserved.
func BuildForest(tasks []*Task) []*Task {
	byID := make(map[int64]*Task, len(tasks))
	for _, t := range tasks {
		t.Subtasks = nil
		byID[t.ID] = t
	}

	var roots []*Task
	for _, t := range tasks {
		if t.ParentID != nil {
			if parent, ok := byID[*t.ParentID]; ok {
				parent.Subtasks = append(parent.Subtasks, t)
				continue
			}
		}
		roots = append(roots, t)
	}
	return roots
}
