package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/repository"
)

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository returns a SQLite-backed implementation of TaskRepository.
func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, account_id, title, description, completed, created_at, due_date, category`

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE account_id = ?
	  AND (? = '' OR instr(fold(title), fold(?)) > 0 OR instr(fold(description), fold(?)) > 0)
	ORDER BY ` + orderClause(filter.Sort)

	rows, err := r.db.QueryContext(ctx, query, filter.AccountID, filter.Query, filter.Query, filter.Query)
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
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.Category = domain.NormalizeCategory(task.Category)

	const query = `
	INSERT INTO tasks (account_id, title, description, completed, created_at, due_date, category)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query,
		task.AccountID,
		task.Title,
		task.Description,
		boolToInt(task.Completed),
		formatTime(task.CreatedAt),
		formatDate(task.DueDate),
		task.Category,
	).Scan(&task.ID); err != nil {
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
	SET title = ?,
		description = ?,
		completed = ?,
		due_date = ?,
		category = ?
	WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		boolToInt(task.Completed),
		formatDate(task.DueDate),
		task.Category,
		task.ID,
	)
	if err != nil {
		return storeError(err)
	}
	return requireAffected(res)
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return storeError(err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError(err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func orderClause(sort domain.SortOrder) string {
	switch sort {
	case domain.SortOldest:
		return `created_at ASC, id ASC`
	case domain.SortTitle:
		return `fold(title) ASC, id ASC`
	default:
		return `created_at DESC, id DESC`
	}
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var (
		task      domain.Task
		completed int
		createdAt string
		due       sql.NullString
	)
	if err := row.Scan(
		&task.ID,
		&task.AccountID,
		&task.Title,
		&task.Description,
		&completed,
		&createdAt,
		&due,
		&task.Category,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, storeError(err)
	}

	task.Completed = completed != 0
	parsed, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = parsed
	if task.DueDate, err = parseDate(due); err != nil {
		return nil, err
	}
	return &task, nil
}
