package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasknest/core/internal/application/services"
	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/infrastructure/logger"
	"github.com/tasknest/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Create(c.Request().Context(), ownerID, req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err, "owner_id", ownerID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask handles getting a task by ID
func (h *TaskHandler) GetTask(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Get(c.Request().Context(), ownerID, id)
	if err != nil {
		h.logger.Error("Get task failed", "error", err, "task_id", id, "owner_id", ownerID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask handles partial task updates
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.Update(c.Request().Context(), ownerID, id, req)
	if err != nil {
		h.logger.Error("Update task failed", "error", err, "task_id", id, "owner_id", ownerID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles task deletion, subtree included
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), ownerID, id); err != nil {
		h.logger.Error("Delete task failed", "error", err, "task_id", id, "owner_id", ownerID)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTasks handles task listing with filters
func (h *TaskHandler) ListTasks(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	filter, err := parseTaskFilter(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.List(c.Request().Context(), ownerID, filter)
	if err != nil {
		h.logger.Error("List tasks failed", "error", err, "owner_id", ownerID)
		return httpError(err)
	}

	if tasks == nil {
		tasks = []*entities.Task{}
	}

	return c.JSON(http.StatusOK, tasks)
}

// ListOverdueTasks lists every pending task whose due date has passed
func (h *TaskHandler) ListOverdueTasks(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	now := time.Now()
	filter := ports.TaskFilter{
		Status:    ports.TaskStatusPending,
		DueBefore: &now,
	}

	tasks, err := h.taskService.List(c.Request().Context(), ownerID, filter)
	if err != nil {
		h.logger.Error("List overdue tasks failed", "error", err, "owner_id", ownerID)
		return httpError(err)
	}

	if tasks == nil {
		tasks = []*entities.Task{}
	}

	return c.JSON(http.StatusOK, tasks)
}

// GetOverdue reports whether a task is overdue
func (h *TaskHandler) GetOverdue(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	overdue, err := h.taskService.Overdue(c.Request().Context(), ownerID, id)
	if err != nil {
		h.logger.Error("Overdue check failed", "error", err, "task_id", id, "owner_id", ownerID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, OverdueResponse{TaskID: id, Overdue: overdue})
}

// GetCompletion reports the completed fraction of a task's subtasks
func (h *TaskHandler) GetCompletion(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	percent, err := h.taskService.CompletionPercent(c.Request().Context(), ownerID, id)
	if err != nil {
		h.logger.Error("Completion check failed", "error", err, "task_id", id, "owner_id", ownerID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, CompletionResponse{TaskID: id, Percent: percent})
}

func parseTaskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}
	return id, nil
}

func parseTaskFilter(c echo.Context) (ports.TaskFilter, error) {
	var filter ports.TaskFilter

	if status := c.QueryParam("status"); status != "" {
		filter.Status = ports.TaskStatusFilter(status)
	}

	if priority := c.QueryParam("priority"); priority != "" {
		p, err := entities.ParsePriority(priority)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid priority parameter")
		}
		filter.Priority = &p
	}

	if dueBefore := c.QueryParam("due_before"); dueBefore != "" {
		t, err := time.Parse(time.RFC3339, dueBefore)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid due_before parameter")
		}
		filter.DueBefore = &t
	}

	if dueAfter := c.QueryParam("due_after"); dueAfter != "" {
		t, err := time.Parse(time.RFC3339, dueAfter)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid due_after parameter")
		}
		filter.DueAfter = &t
	}

	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	if tag := c.QueryParam("tag"); tag != "" {
		filter.Tag = &tag
	}

	return filter, nil
}

type OverdueResponse struct {
	TaskID  int64 `json:"task_id"`
	Overdue bool  `json:"overdue"`
}

type CompletionResponse struct {
	TaskID  int64   `json:"task_id"`
	Percent float64 `json:"percent"`
}
