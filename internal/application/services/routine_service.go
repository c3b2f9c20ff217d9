package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/domain/validation"
	"github.com/tasknest/core/internal/infrastructure/logger"
	"github.com/tasknest/core/internal/ports"
)

// RoutineService manages recurring-task definitions and turns them into
// concrete tasks on demand.
type RoutineService struct {
	routineRepo ports.RoutineRepository
	taskRepo    ports.TaskRepository
	logger      *logger.Logger
	now         func() time.Time
}

// NewRoutineService creates a new routine service
func NewRoutineService(routineRepo ports.RoutineRepository, taskRepo ports.TaskRepository, appLogger *logger.Logger) *RoutineService {
	return &RoutineService{
		routineRepo: routineRepo,
		taskRepo:    taskRepo,
		logger:      appLogger,
		now:         time.Now,
	}
}

// Create creates a new routine for the owner.
func (s *RoutineService) Create(ctx context.Context, ownerID uuid.UUID, req ports.CreateRoutineRequest) (*entities.Routine, error) {
	name, err := validation.RoutineName(req.Name)
	if err != nil {
		return nil, err
	}

	if !req.RepeatType.IsValid() {
		return nil, fmt.Errorf("%w: unknown repeat type %q", entities.ErrValidation, req.RepeatType)
	}
	if req.RepeatType == entities.RepeatCustom && len(req.CustomDays) == 0 {
		return nil, fmt.Errorf("%w: custom repeat requires at least one weekday", entities.ErrValidation)
	}
	if len(req.Templates) == 0 {
		return nil, fmt.Errorf("%w: routine requires at least one task template", entities.ErrValidation)
	}
	for i, tpl := range req.Templates {
		if _, err := validation.TaskTitle(tpl.Title); err != nil {
			return nil, fmt.Errorf("%w: template %d has an invalid title", entities.ErrValidation, i)
		}
		if tpl.Priority != 0 && !tpl.Priority.IsValid() {
			return nil, fmt.Errorf("%w: template %d has an invalid priority", entities.ErrValidation, i)
		}
	}
	if req.PreferredTime != nil {
		if _, err := time.Parse("15:04", *req.PreferredTime); err != nil {
			return nil, fmt.Errorf("%w: preferred time must be HH:MM", entities.ErrValidation)
		}
	}

	now := s.now()
	startDate := now
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	interval := req.RepeatInterval
	if interval < 1 {
		interval = 1
	}

	routine := &entities.Routine{
		OwnerID:        ownerID,
		Name:           name,
		Description:    req.Description,
		RepeatType:     req.RepeatType,
		RepeatInterval: interval,
		CustomDays:     req.CustomDays,
		StartDate:      startDate,
		EndDate:        req.EndDate,
		PreferredTime:  req.PreferredTime,
		IsActive:       true,
		Templates:      req.Templates,
		CreatedAt:      now,
	}

	if err := s.routineRepo.Create(ctx, routine); err != nil {
		return nil, fmt.Errorf("failed to create routine: %w", err)
	}

	s.logger.Info("Routine created successfully", "routine_id", routine.ID, "owner_id", ownerID, "name", routine.Name)

	return routine, nil
}

// Get retrieves a routine owned by the caller.
func (s *RoutineService) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*entities.Routine, error) {
	return s.routineRepo.GetByID(ctx, ownerID, id)
}

// Update applies a partial routine update.
func (s *RoutineService) Update(ctx context.Context, ownerID uuid.UUID, id int64, req ports.UpdateRoutineRequest) (*entities.Routine, error) {
	routine, err := s.routineRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := validation.RoutineName(*req.Name)
		if err != nil {
			return nil, err
		}
		routine.Name = name
	}
	if req.Description != nil {
		routine.Description = *req.Description
	}
	if req.RepeatType != nil {
		if !req.RepeatType.IsValid() {
			return nil, fmt.Errorf("%w: unknown repeat type %q", entities.ErrValidation, *req.RepeatType)
		}
		routine.RepeatType = *req.RepeatType
	}
	if req.RepeatInterval != nil {
		if *req.RepeatInterval < 1 {
			return nil, fmt.Errorf("%w: repeat interval must be positive", entities.ErrValidation)
		}
		routine.RepeatInterval = *req.RepeatInterval
	}
	if req.CustomDays != nil {
		routine.CustomDays = *req.CustomDays
	}
	if routine.RepeatType == entities.RepeatCustom && len(routine.CustomDays) == 0 {
		return nil, fmt.Errorf("%w: custom repeat requires at least one weekday", entities.ErrValidation)
	}
	if req.EndDate != nil {
		routine.EndDate = req.EndDate
	}
	if req.PreferredTime != nil {
		if _, err := time.Parse("15:04", *req.PreferredTime); err != nil {
			return nil, fmt.Errorf("%w: preferred time must be HH:MM", entities.ErrValidation)
		}
		routine.PreferredTime = req.PreferredTime
	}
	if req.IsActive != nil {
		routine.IsActive = *req.IsActive
	}
	if req.Templates != nil {
		if len(*req.Templates) == 0 {
			return nil, fmt.Errorf("%w: routine requires at least one task template", entities.ErrValidation)
		}
		routine.Templates = *req.Templates
	}

	if err := s.routineRepo.Update(ctx, routine); err != nil {
		return nil, fmt.Errorf("failed to update routine: %w", err)
	}

	s.logger.Info("Routine updated successfully", "routine_id", id, "owner_id", ownerID)

	return routine, nil
}

// Delete removes a routine. Tasks it already generated are untouched.
func (s *RoutineService) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	if err := s.routineRepo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info("Routine deleted successfully", "routine_id", id, "owner_id", ownerID)

	return nil
}

// List retrieves all routines owned by the caller.
func (s *RoutineService) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Routine, error) {
	routines, err := s.routineRepo.List(ctx, ownerID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}

	return routines, nil
}

// Generate materializes tasks for every routine of the owner due on the given
// date. Each routine produces at most one batch per calendar day.
func (s *RoutineService) Generate(ctx context.Context, ownerID uuid.UUID, date time.Time) ([]*entities.Task, error) {
	routines, err := s.routineRepo.List(ctx, ownerID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}

	var created []*entities.Task
	for _, routine := range routines {
		if !routine.ShouldGenerate(date) {
			continue
		}

		tasks, err := s.generateFrom(ctx, routine, date)
		if err != nil {
			return nil, fmt.Errorf("failed to generate tasks for routine %d: %w", routine.ID, err)
		}

		if err := s.routineRepo.MarkGenerated(ctx, routine.ID, date); err != nil {
			return nil, fmt.Errorf("failed to mark routine %d generated: %w", routine.ID, err)
		}

		s.logger.Info("Routine generated tasks", "routine_id", routine.ID, "owner_id", ownerID, "count", len(tasks))
		created = append(created, tasks...)
	}

	return created, nil
}

// generateFrom instantiates the routine's templates for one date. A single
// template becomes a plain task; multiple templates become subtasks under a
// task named after the routine.
func (s *RoutineService) generateFrom(ctx context.Context, routine *entities.Routine, date time.Time) ([]*entities.Task, error) {
	now := s.now()
	dueDate := routine.DueTimeOn(date)

	build := func(tpl entities.TaskTemplate) *entities.Task {
		priority := tpl.Priority
		if priority == 0 {
			priority = entities.PriorityMedium
		}
		return &entities.Task{
			OwnerID:     routine.OwnerID,
			Title:       tpl.Title,
			Description: tpl.Description,
			Priority:    priority,
			DueDate:     dueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	if len(routine.Templates) == 1 {
		task := build(routine.Templates[0])
		if err := s.taskRepo.Create(ctx, task); err != nil {
			return nil, err
		}
		return []*entities.Task{task}, nil
	}

	parent := &entities.Task{
		OwnerID:     routine.OwnerID,
		Title:       routine.Name,
		Description: routine.Description,
		Priority:    entities.PriorityMedium,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	children := make([]*entities.Task, 0, len(routine.Templates))
	for _, tpl := range routine.Templates {
		children = append(children, build(tpl))
	}

	if err := s.taskRepo.CreateTree(ctx, parent, children); err != nil {
		return nil, err
	}

	tasks := append([]*entities.Task{parent}, children...)
	return tasks, nil
}
