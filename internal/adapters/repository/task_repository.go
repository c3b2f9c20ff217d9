package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/infrastructure/database"
	"github.com/tasknest/core/internal/ports"
)

// taskColumns is the scan list shared by every task query.
const taskColumns = `id, owner_id, parent_id, title, description, completed, priority,
	due_date, created_at, updated_at, completed_at, properties`

// Listing order: incomplete before complete, priority descending, due date
// ascending with NULLs last, then creation order. Deterministic and stable.
const taskOrder = ` ORDER BY completed ASC, priority DESC, (due_date IS NULL) ASC, due_date ASC, id ASC`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return insertTask(ctx, tx, task)
	})
}

func (r *TaskRepositoryImpl) CreateTree(ctx context.Context, parent *entities.Task, children []*entities.Task) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if parent != nil {
			if err := insertTask(ctx, tx, parent); err != nil {
				return err
			}
		}
		for _, child := range children {
			if parent != nil {
				child.ParentID = &parent.ID
			}
			if err := insertTask(ctx, tx, child); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertTask(ctx context.Context, tx *sqlx.Tx, task *entities.Task) error {
	query := `
		INSERT INTO tasks (owner_id, parent_id, title, description, completed, priority,
			due_date, created_at, updated_at, completed_at, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query,
		task.OwnerID, task.ParentID, task.Title, task.Description, task.Completed,
		task.Priority, task.DueDate, task.CreatedAt, task.UpdatedAt,
		task.CompletedAt, task.Properties,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get task id: %w", err)
	}
	task.ID = id

	if len(task.Tags) > 0 {
		if err := replaceTaskTags(ctx, tx, task.ID, task.Tags); err != nil {
			return err
		}
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?`

	var task entities.Task
	err := r.db.DB.GetContext(ctx, &task, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	if err := r.attachTags(ctx, []*entities.Task{&task}); err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE tasks
			SET title = ?, description = ?, priority = ?, due_date = ?, parent_id = ?,
				updated_at = ?, properties = ?
			WHERE id = ? AND owner_id = ?`

		result, err := tx.ExecContext(ctx, query,
			task.Title, task.Description, task.Priority, task.DueDate, task.ParentID,
			task.UpdatedAt, task.Properties, task.ID, task.OwnerID,
		)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return entities.ErrTaskNotFound
		}

		if task.Tags != nil {
			if err := replaceTaskTags(ctx, tx, task.ID, task.Tags); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *TaskRepositoryImpl) SetCompleted(ctx context.Context, ownerID uuid.UUID, id int64, completed bool, at time.Time) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
		if err != nil {
			return fmt.Errorf("check task exists: %w", err)
		}
		if exists == 0 {
			return entities.ErrTaskNotFound
		}

		if completed {
			// Completing a task completes everything under it.
			query := `
				WITH RECURSIVE subtree(id) AS (
					SELECT id FROM tasks WHERE id = ? AND owner_id = ?
					UNION ALL
					SELECT t.id FROM tasks t JOIN subtree s ON t.parent_id = s.id
				)
				UPDATE tasks
				SET completed = 1, completed_at = ?, updated_at = ?
				WHERE id IN (SELECT id FROM subtree) AND completed = 0`

			if _, err := tx.ExecContext(ctx, query, id, ownerID, at, at); err != nil {
				return fmt.Errorf("complete task subtree: %w", err)
			}
			return nil
		}

		query := `
			UPDATE tasks
			SET completed = 0, completed_at = NULL, updated_at = ?
			WHERE id = ? AND owner_id = ?`

		if _, err := tx.ExecContext(ctx, query, at, id, ownerID); err != nil {
			return fmt.Errorf("reopen task: %w", err)
		}
		return nil
	})
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	// Descendants cascade away via the parent_id foreign key; the single
	// statement keeps the whole subtree removal atomic.
	query := `DELETE FROM tasks WHERE id = ? AND owner_id = ?`

	result, err := r.db.DB.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ?`
	args := []interface{}{ownerID}

	switch filter.Status {
	case ports.TaskStatusPending:
		query += ` AND completed = 0`
	case ports.TaskStatusCompleted:
		query += ` AND completed = 1`
	}

	if filter.Priority != nil {
		query += ` AND priority = ?`
		args = append(args, *filter.Priority)
	}
	if filter.DueBefore != nil {
		query += ` AND due_date IS NOT NULL AND due_date < ?`
		args = append(args, *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query += ` AND due_date IS NOT NULL AND due_date > ?`
		args = append(args, *filter.DueAfter)
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + strings.ToLower(*filter.Search) + "%"
		query += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, pattern, pattern)
	}
	if filter.Tag != nil && *filter.Tag != "" {
		query += ` AND id IN (
			SELECT tt.task_id FROM task_tags tt
			JOIN tags g ON g.id = tt.tag_id
			WHERE g.name = ?)`
		args = append(args, *filter.Tag)
	}

	query += taskOrder

	var tasks []*entities.Task
	err := r.db.DB.SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if err := r.attachTags(ctx, tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) Children(ctx context.Context, ownerID uuid.UUID, parentID int64) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? AND parent_id = ?` + taskOrder

	var tasks []*entities.Task
	err := r.db.DB.SelectContext(ctx, &tasks, query, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) HasAncestor(ctx context.Context, ownerID uuid.UUID, taskID, ancestorID int64) (bool, error) {
	// Walks the parent chain upward starting from taskID's parent, so the
	// task itself never counts as its own ancestor.
	query := `
		WITH RECURSIVE ancestors(id) AS (
			SELECT parent_id FROM tasks WHERE id = ? AND owner_id = ? AND parent_id IS NOT NULL
			UNION ALL
			SELECT t.parent_id FROM tasks t JOIN ancestors a ON t.id = a.id
			WHERE t.parent_id IS NOT NULL
		)
		SELECT COUNT(*) FROM ancestors WHERE id = ?`

	var count int
	err := r.db.DB.GetContext(ctx, &count, query, taskID, ownerID, ancestorID)
	if err != nil {
		return false, fmt.Errorf("check task ancestry: %w", err)
	}

	return count > 0, nil
}

func (r *TaskRepositoryImpl) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM tasks WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	return count, nil
}

// replaceTaskTags rewrites the tag set for a task. Tag rows are shared and
// created on first use.
func replaceTaskTags(ctx context.Context, tx *sqlx.Tx, taskID int64, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear task tags: %w", err)
	}

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
			return fmt.Errorf("upsert tag: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_tags (task_id, tag_id) SELECT ?, id FROM tags WHERE name = ?`,
			taskID, tag); err != nil {
			return fmt.Errorf("link task tag: %w", err)
		}
	}

	return nil
}

// attachTags loads the tags for a batch of tasks in one query.
func (r *TaskRepositoryImpl) attachTags(ctx context.Context, tasks []*entities.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(tasks))
	byID := make(map[int64]*entities.Task, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	query, args, err := sqlx.In(`
		SELECT tt.task_id, g.name
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id IN (?)
		ORDER BY g.name`, ids)
	if err != nil {
		return fmt.Errorf("build tag query: %w", err)
	}

	rows, err := r.db.DB.QueryxContext(ctx, r.db.DB.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("load task tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var name string
		if err := rows.Scan(&taskID, &name); err != nil {
			return fmt.Errorf("scan task tag: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Tags = append(t.Tags, name)
		}
	}

	return rows.Err()
}
