package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	const query = `
	SELECT id, account_id, title, description, completed, created_at, due_date, category
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT id, account_id, title, description, completed, created_at, due_date, category
	FROM tasks
	WHERE account_id = $1
	  AND ($2 = '' OR strpos(lower(title), lower($2)) > 0 OR strpos(lower(description), lower($2)) > 0)
	ORDER BY ` + orderClause(filter.Sort)

	rows, err := r.pool.Query(ctx, query, filter.AccountID, filter.Query)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, storeError(rows.Err())
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	task.Category = domain.NormalizeCategory(task.Category)

	const query = `
	INSERT INTO tasks (account_id, title, description, completed, created_at, due_date, category)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), $6, $7)
	RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		task.AccountID,
		task.Title,
		task.Description,
		task.Completed,
		nullTime(task.CreatedAt),
		nullDate(task.DueDate),
		task.Category,
	).Scan(&task.ID, &task.CreatedAt); err != nil {
		return nil, storeError(err)
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	task.Category = domain.NormalizeCategory(task.Category)

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		completed = $4,
		due_date = $5,
		category = $6
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Completed,
		nullDate(task.DueDate),
		task.Category,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func orderClause(sort domain.SortOrder) string {
	switch sort {
	case domain.SortOldest:
		return `created_at ASC, id ASC`
	case domain.SortTitle:
		return `lower(title) ASC, id ASC`
	default:
		return `created_at DESC, id DESC`
	}
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task domain.Task
		due  *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.AccountID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&due,
		&task.Category,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, storeError(err)
	}

	if due != nil {
		d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
		task.DueDate = &d
	}
	return &task, nil
}
