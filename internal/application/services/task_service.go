package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/domain/validation"
	"github.com/tasknest/core/internal/infrastructure/logger"
	"github.com/tasknest/core/internal/ports"
)

// TaskService handles owner-scoped task operations. Cross-owner access is
// reported as not-found so one account can never learn about another's tasks.
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, appLogger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   appLogger,
		now:      time.Now,
	}
}

// Create creates a new task for the owner.
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	title, err := validation.TaskTitle(req.Title)
	if err != nil {
		return nil, err
	}

	priority := entities.PriorityMedium
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, fmt.Errorf("%w: invalid priority %d", entities.ErrValidation, *req.Priority)
		}
		priority = *req.Priority
	}

	if req.ParentID != nil {
		if _, err := s.taskRepo.GetByID(ctx, ownerID, *req.ParentID); err != nil {
			if errors.Is(err, entities.ErrTaskNotFound) {
				return nil, entities.ErrInvalidParent
			}
			return nil, fmt.Errorf("failed to check parent task: %w", err)
		}
	}

	now := s.now()
	task := &entities.Task{
		OwnerID:     ownerID,
		ParentID:    req.ParentID,
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		Properties:  req.Properties,
		Tags:        req.Tags,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created successfully", "task_id", task.ID, "owner_id", ownerID, "title", task.Title)

	return task, nil
}

// Get retrieves a task owned by the caller.
func (s *TaskService) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, ownerID, id)
}

// Update applies a partial update. Completing a task also completes its
// subtree; reopening affects only the task itself.
func (s *TaskService) Update(ctx context.Context, ownerID uuid.UUID, id int64, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title, err := validation.TaskTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, fmt.Errorf("%w: invalid priority %d", entities.ErrValidation, *req.Priority)
		}
		task.Priority = *req.Priority
	}
	if req.ClearDueDate {
		task.DueDate = nil
	} else if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if req.ClearParent {
		task.ParentID = nil
	} else if req.ParentID != nil {
		if err := s.checkReparent(ctx, ownerID, id, *req.ParentID); err != nil {
			return nil, err
		}
		task.ParentID = req.ParentID
	}

	if req.Tags != nil {
		task.Tags = *req.Tags
	}
	if req.Properties != nil {
		task.Properties = *req.Properties
	}

	now := s.now()
	task.UpdatedAt = now

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if req.Completed != nil && *req.Completed != task.Completed {
		if err := s.taskRepo.SetCompleted(ctx, ownerID, id, *req.Completed, now); err != nil {
			return nil, fmt.Errorf("failed to update completion state: %w", err)
		}
	}

	updated, err := s.taskRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.logger.Info("Task updated successfully", "task_id", id, "owner_id", ownerID)

	return updated, nil
}

// checkReparent rejects parents that are missing, foreign, the task itself,
// or anywhere in the task's own subtree. The forest stays acyclic.
func (s *TaskService) checkReparent(ctx context.Context, ownerID uuid.UUID, taskID, parentID int64) error {
	if parentID == taskID {
		return entities.ErrInvalidParent
	}

	if _, err := s.taskRepo.GetByID(ctx, ownerID, parentID); err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return entities.ErrInvalidParent
		}
		return fmt.Errorf("failed to check parent task: %w", err)
	}

	inSubtree, err := s.taskRepo.HasAncestor(ctx, ownerID, parentID, taskID)
	if err != nil {
		return fmt.Errorf("failed to check task ancestry: %w", err)
	}
	if inSubtree {
		return entities.ErrInvalidParent
	}

	return nil
}

// Delete removes a task and its whole subtree.
func (s *TaskService) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	if err := s.taskRepo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info("Task deleted successfully", "task_id", id, "owner_id", ownerID)

	return nil
}

// List retrieves the owner's tasks matching the filter, in the canonical
// display order.
func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	if filter.Status == "" {
		filter.Status = ports.TaskStatusAll
	}
	switch filter.Status {
	case ports.TaskStatusAll, ports.TaskStatusPending, ports.TaskStatusCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown status filter %q", entities.ErrValidation, filter.Status)
	}
	if filter.Priority != nil && !filter.Priority.IsValid() {
		return nil, fmt.Errorf("%w: invalid priority %d", entities.ErrValidation, *filter.Priority)
	}

	tasks, err := s.taskRepo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// Overdue reports whether the task is incomplete with a due date in the past.
func (s *TaskService) Overdue(ctx context.Context, ownerID uuid.UUID, id int64) (bool, error) {
	task, err := s.taskRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return false, err
	}

	return task.IsOverdueAt(s.now()), nil
}

// CompletionPercent returns the completed fraction of a task's direct
// subtasks.
func (s *TaskService) CompletionPercent(ctx context.Context, ownerID uuid.UUID, id int64) (float64, error) {
	task, err := s.taskRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return 0, err
	}

	children, err := s.taskRepo.Children(ctx, ownerID, id)
	if err != nil {
		return 0, fmt.Errorf("failed to load subtasks: %w", err)
	}

	task.Subtasks = children
	return task.CompletionPercent(), nil
}
