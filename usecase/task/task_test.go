package task

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/repository"
)

type memoryTasks struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Task
}

func newMemoryTasks() *memoryTasks {
	return &memoryTasks{rows: make(map[int64]domain.Task)}
}

func (m *memoryTasks) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (m *memoryTasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Task
	for _, task := range m.rows {
		if task.AccountID != filter.AccountID {
			continue
		}
		q := strings.ToLower(filter.Query)
		if q != "" && !strings.Contains(strings.ToLower(task.Title), q) && !strings.Contains(strings.ToLower(task.Description), q) {
			continue
		}
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool {
		switch filter.Sort {
		case domain.SortOldest:
			return out[i].ID < out[j].ID
		case domain.SortTitle:
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		default:
			return out[i].ID > out[j].ID
		}
	})
	return out, nil
}

func (m *memoryTasks) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	task.ID = m.nextID
	m.rows[task.ID] = *task
	return task, nil
}

func (m *memoryTasks) Update(_ context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	m.rows[task.ID] = *task
	return nil
}

func (m *memoryTasks) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(m.rows, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreateDefaults(t *testing.T) {
	uc := New(newMemoryTasks(), nil)
	before := time.Now().UTC()

	task, err := uc.Create(context.Background(), 1, Input{Title: "  Comprar pan  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Completed {
		t.Fatalf("new task must not be completed")
	}
	if task.CreatedAt.Before(before) {
		t.Fatalf("created_at %v before request time %v", task.CreatedAt, before)
	}
	if task.Title != "Comprar pan" || task.Category != domain.DefaultCategory || task.DueDate != nil {
		t.Fatalf("unexpected defaults: %+v", task)
	}
}

func TestCreateValidation(t *testing.T) {
	uc := New(newMemoryTasks(), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   Input
		code domain.ErrorCode
	}{
		{name: "empty title", in: Input{Title: "   "}, code: domain.ErrCodeInvalid},
		{name: "bad date", in: Input{Title: "x", DueDate: "17/05/2030"}, code: domain.ErrCodeInvalidDate},
		{name: "impossible date", in: Input{Title: "x", DueDate: "2030-02-30"}, code: domain.ErrCodeInvalidDate},
		{name: "long title", in: Input{Title: strings.Repeat("a", domain.MaxTitleLength+1)}, code: domain.ErrCodeInvalid},
		{name: "long category", in: Input{Title: "x", Category: strings.Repeat("c", domain.MaxCategoryLength+1)}, code: domain.ErrCodeInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.Create(ctx, 1, tc.in); !domain.IsDomainError(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	task, err := uc.Create(ctx, 1, Input{Title: "x", DueDate: "2030-05-17", Category: "personal"})
	if err != nil {
		t.Fatalf("create with date: %v", err)
	}
	if task.DueDateString() != "2030-05-17" || task.Category != "personal" {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestToggleTwiceRestoresState(t *testing.T) {
	uc := New(newMemoryTasks(), nil)
	ctx := context.Background()

	task, err := uc.Create(ctx, 1, Input{Title: "Informe"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := uc.ToggleCompletion(ctx, 1, task.ID)
	if err != nil || !first.Completed {
		t.Fatalf("first toggle: %+v %v", first, err)
	}
	second, err := uc.ToggleCompletion(ctx, 1, task.ID)
	if err != nil || second.Completed {
		t.Fatalf("second toggle: %+v %v", second, err)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	repo := newMemoryTasks()
	uc := New(repo, nil)
	ctx := context.Background()

	task, err := uc.Create(ctx, 1, Input{Title: "de ana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := uc.Update(ctx, 2, task.ID, Patch{Title: strPtr("robada")}); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("update: expected forbidden, got %v", err)
	}
	if _, err := uc.ToggleCompletion(ctx, 2, task.ID); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("toggle: expected forbidden, got %v", err)
	}
	if err := uc.Delete(ctx, 2, task.ID); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("delete: expected forbidden, got %v", err)
	}

	list, err := uc.List(ctx, 2, "", domain.SortRecent)
	if err != nil || len(list) != 0 {
		t.Fatalf("account 2 must not see account 1 tasks: %v %v", list, err)
	}

	stored, _ := repo.GetByID(ctx, task.ID)
	if stored.Title != "de ana" || stored.Completed {
		t.Fatalf("task mutated by foreign account: %+v", stored)
	}

	if _, err := uc.Update(ctx, 1, 999, Patch{}); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateAppliesOnlySuppliedFields(t *testing.T) {
	uc := New(newMemoryTasks(), nil)
	ctx := context.Background()

	task, err := uc.Create(ctx, 1, Input{Title: "Informe", Description: "anual", DueDate: "2030-01-01", Category: "personal"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := uc.Update(ctx, 1, task.ID, Patch{Title: strPtr("Informe final")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != "anual" || updated.DueDateString() != "2030-01-01" || updated.Category != "personal" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Fatalf("created_at must be immutable")
	}

	cleared, err := uc.Update(ctx, 1, task.ID, Patch{DueDate: strPtr(""), Category: strPtr("")})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.DueDate != nil || cleared.Category != domain.DefaultCategory {
		t.Fatalf("expected cleared date and default category: %+v", cleared)
	}

	if _, err := uc.Update(ctx, 1, task.ID, Patch{Title: strPtr("")}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected invalid for empty title, got %v", err)
	}
	if _, err := uc.Update(ctx, 1, task.ID, Patch{DueDate: strPtr("mañana")}); !domain.IsDomainError(err, domain.ErrCodeInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
}

func TestListPassesFilter(t *testing.T) {
	uc := New(newMemoryTasks(), nil)
	ctx := context.Background()

	for _, title := range []string{"Beta", "Alpha"} {
		if _, err := uc.Create(ctx, 1, Input{Title: title}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	byTitle, err := uc.List(ctx, 1, "", domain.SortTitle)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byTitle) != 2 || byTitle[0].Title != "Alpha" || byTitle[1].Title != "Beta" {
		t.Fatalf("unexpected order: %+v", byTitle)
	}

	found, err := uc.List(ctx, 1, "  alp ", domain.SortRecent)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Alpha" {
		t.Fatalf("unexpected search result: %+v", found)
	}
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	repo := newMemoryTasks()
	uc := New(repo, nil)
	ctx := context.Background()

	title := strings.Repeat("ñ", domain.MaxTitleLength)
	task, err := uc.Create(ctx, 1, Input{Title: title})
	if err != nil {
		t.Fatalf("a title of exactly %d characters must be accepted: %v", domain.MaxTitleLength, err)
	}

	_, err = uc.Update(ctx, 1, task.ID, Patch{Title: strPtr(title + "x")})
	if !errors.Is(err, domain.ErrFieldTooLong) {
		t.Fatalf("expected field too long, got %v", err)
	}
	stored, _ := repo.GetByID(ctx, task.ID)
	if stored.Title != title {
		t.Fatalf("rejected update must not be stored: %q", stored.Title)
	}
}
