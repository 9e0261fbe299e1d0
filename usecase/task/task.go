package task

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/repository"
)

// Input carries the create form fields. DueDate is the raw YYYY-MM-DD value.
type Input struct {
	Title       string
	Description string
	DueDate     string
	Category    string
}

// Patch lists the fields to overwrite; nil fields are left untouched. An
// empty DueDate clears the due date.
type Patch struct {
	Title       *string
	Description *string
	DueDate     *string
	Category    *string
	Completed   *bool
}

type UseCase struct {
	tasks  repository.TaskRepository
	now    func() time.Time
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		now:    time.Now,
		logger: logger,
	}
}

func (uc *UseCase) List(ctx context.Context, accountID int64, query string, sort domain.SortOrder) ([]domain.Task, error) {
	return uc.tasks.List(ctx, repository.TaskFilter{
		AccountID: accountID,
		Query:     strings.TrimSpace(query),
		Sort:      sort,
	})
}

func (uc *UseCase) Create(ctx context.Context, accountID int64, in Input) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title is required")
	}
	if err := domain.CheckLength("title", title, domain.MaxTitleLength); err != nil {
		return nil, err
	}
	category := domain.NormalizeCategory(in.Category)
	if err := domain.CheckLength("category", category, domain.MaxCategoryLength); err != nil {
		return nil, err
	}
	due, err := domain.ParseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}

	return uc.tasks.Create(ctx, &domain.Task{
		AccountID:   accountID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Completed:   false,
		CreatedAt:   uc.now().UTC(),
		DueDate:     due,
		Category:    category,
	})
}

// Get loads a task the caller owns.
func (uc *UseCase) Get(ctx context.Context, accountID, taskID int64) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(accountID) {
		uc.logger.Warn("task access denied", zap.Int64("account_id", accountID), zap.Int64("task_id", taskID))
		return nil, domain.ErrForbidden
	}
	return task, nil
}

func (uc *UseCase) Update(ctx context.Context, accountID, taskID int64, patch Patch) (*domain.Task, error) {
	task, err := uc.Get(ctx, accountID, taskID)
	if err != nil {
		return nil, err
	}
	if err := applyPatch(task, patch); err != nil {
		return nil, err
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) ToggleCompletion(ctx context.Context, accountID, taskID int64) (*domain.Task, error) {
	task, err := uc.Get(ctx, accountID, taskID)
	if err != nil {
		return nil, err
	}
	task.Completed = !task.Completed
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) Delete(ctx context.Context, accountID, taskID int64) error {
	if _, err := uc.Get(ctx, accountID, taskID); err != nil {
		return err
	}
	return uc.tasks.Delete(ctx, taskID)
}

func applyPatch(task *domain.Task, patch Patch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return domain.NewError(domain.ErrCodeInvalid, "title is required")
		}
		if err := domain.CheckLength("title", title, domain.MaxTitleLength); err != nil {
			return err
		}
		task.Title = title
	}
	if patch.DueDate != nil {
		due, err := domain.ParseDueDate(*patch.DueDate)
		if err != nil {
			return err
		}
		task.DueDate = due
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		category := domain.NormalizeCategory(*patch.Category)
		if err := domain.CheckLength("category", category, domain.MaxCategoryLength); err != nil {
			return err
		}
		task.Category = category
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	return nil
}
