package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/infrastructure/database"
	"github.com/tasknest/core/internal/ports"
)

const routineColumns = `id, owner_id, name, description, repeat_type, repeat_interval,
	custom_days, start_date, end_date, preferred_time, is_active, last_generated,
	templates, created_at`

// RoutineRepositoryImpl implements the RoutineRepository interface
type RoutineRepositoryImpl struct {
	db *database.DB
}

// NewRoutineRepository creates a new routine repository
func NewRoutineRepository(db *database.DB) ports.RoutineRepository {
	return &RoutineRepositoryImpl{db: db}
}

func (r *RoutineRepositoryImpl) Create(ctx context.Context, routine *entities.Routine) error {
	query := `
		INSERT INTO routines (owner_id, name, description, repeat_type, repeat_interval,
			custom_days, start_date, end_date, preferred_time, is_active, last_generated,
			templates, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.DB.ExecContext(ctx, query,
		routine.OwnerID, routine.Name, routine.Description, routine.RepeatType,
		routine.RepeatInterval, routine.CustomDays, routine.StartDate, routine.EndDate,
		routine.PreferredTime, routine.IsActive, routine.LastGenerated,
		routine.Templates, routine.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create routine: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get routine id: %w", err)
	}
	routine.ID = id

	return nil
}

func (r *RoutineRepositoryImpl) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*entities.Routine, error) {
	query := `SELECT ` + routineColumns + ` FROM routines WHERE id = ? AND owner_id = ?`

	var routine entities.Routine
	err := r.db.DB.GetContext(ctx, &routine, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrRoutineNotFound
		}
		return nil, fmt.Errorf("get routine by id: %w", err)
	}

	return &routine, nil
}

func (r *RoutineRepositoryImpl) Update(ctx context.Context, routine *entities.Routine) error {
	query := `
		UPDATE routines
		SET name = ?, description = ?, repeat_type = ?, repeat_interval = ?,
			custom_days = ?, end_date = ?, preferred_time = ?, is_active = ?,
			templates = ?
		WHERE id = ? AND owner_id = ?`

	result, err := r.db.DB.ExecContext(ctx, query,
		routine.Name, routine.Description, routine.RepeatType, routine.RepeatInterval,
		routine.CustomDays, routine.EndDate, routine.PreferredTime, routine.IsActive,
		routine.Templates, routine.ID, routine.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update routine: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrRoutineNotFound
	}

	return nil
}

func (r *RoutineRepositoryImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	query := `DELETE FROM routines WHERE id = ? AND owner_id = ?`

	result, err := r.db.DB.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrRoutineNotFound
	}

	return nil
}

func (r *RoutineRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID, activeOnly bool) ([]*entities.Routine, error) {
	query := `SELECT ` + routineColumns + ` FROM routines WHERE owner_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY name, id`

	var routines []*entities.Routine
	err := r.db.DB.SelectContext(ctx, &routines, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}

	return routines, nil
}

func (r *RoutineRepositoryImpl) MarkGenerated(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE routines SET last_generated = ? WHERE id = ?`

	result, err := r.db.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("mark routine generated: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrRoutineNotFound
	}

	return nil
}
