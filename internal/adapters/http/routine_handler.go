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

// RoutineHandler handles recurring-task requests
type RoutineHandler struct {
	routineService *services.RoutineService
	logger         *logger.Logger
}

// NewRoutineHandler creates a new routine handler
func NewRoutineHandler(routineService *services.RoutineService, logger *logger.Logger) *RoutineHandler {
	return &RoutineHandler{
		routineService: routineService,
		logger:         logger,
	}
}

// CreateRoutine handles routine creation
func (h *RoutineHandler) CreateRoutine(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	var req ports.CreateRoutineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	routine, err := h.routineService.Create(c.Request().Context(), ownerID, req)
	if err != nil {
		h.logger.Error("Create routine failed", "error", err, "owner_id", ownerID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, routine)
}

// GetRoutine handles getting a routine by ID
func (h *RoutineHandler) GetRoutine(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	id, err := parseRoutineID(c)
	if err != nil {
		return err
	}

	routine, err := h.routineService.Get(c.Request().Context(), ownerID, id)
	if err != nil {
		h.logger.Error("Get routine failed", "error", err, "routine_id", id, "owner_id", ownerID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, routine)
}

// UpdateRoutine handles partial routine updates
func (h *RoutineHandler) UpdateRoutine(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	id, err := parseRoutineID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateRoutineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	routine, err := h.routineService.Update(c.Request().Context(), ownerID, id, req)
	if err != nil {
		h.logger.Error("Update routine failed", "error", err, "routine_id", id, "owner_id", ownerID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, routine)
}

// DeleteRoutine handles routine deletion
func (h *RoutineHandler) DeleteRoutine(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	id, err := parseRoutineID(c)
	if err != nil {
		return err
	}

	if err := h.routineService.Delete(c.Request().Context(), ownerID, id); err != nil {
		h.logger.Error("Delete routine failed", "error", err, "routine_id", id, "owner_id", ownerID)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListRoutines handles routine listing
func (h *RoutineHandler) ListRoutines(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	routines, err := h.routineService.List(c.Request().Context(), ownerID)
	if err != nil {
		h.logger.Error("List routines failed", "error", err, "owner_id", ownerID)
		return httpError(err)
	}

	if routines == nil {
		routines = []*entities.Routine{}
	}

	return c.JSON(http.StatusOK, routines)
}

// GenerateTasks materializes tasks for routines due on a date. The date
// defaults to today when absent.
func (h *RoutineHandler) GenerateTasks(c echo.Context) error {
	ownerID := getUserIDFromContext(c)

	date := time.Now()
	if dateStr := c.QueryParam("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid date parameter, expected YYYY-MM-DD")
		}
		date = parsed
	}

	tasks, err := h.routineService.Generate(c.Request().Context(), ownerID, date)
	if err != nil {
		h.logger.Error("Generate tasks failed", "error", err, "owner_id", ownerID)
		return httpError(err)
	}

	if tasks == nil {
		tasks = []*entities.Task{}
	}

	return c.JSON(http.StatusOK, tasks)
}

func parseRoutineID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid routine ID")
	}
	return id, nil
}
