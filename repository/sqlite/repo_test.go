package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/internal/config"
	"github.com/Pilar-d/pendientes/internal/infrastructure/database"
	"github.com/Pilar-d/pendientes/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tareas.db"),
	}
	if _, err := database.NewMigrator(cfg, nil).Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.OpenSQLite(cfg.Path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createAccount(t *testing.T, repo repository.AccountRepository, username string) *domain.Account {
	t.Helper()
	account, err := repo.Create(context.Background(), &domain.Account{Username: username, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return account
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(openTestDB(t))

	ana := createAccount(t, repo, "ana")
	if ana.ID == 0 {
		t.Fatalf("expected generated id")
	}

	if _, err := repo.Create(ctx, &domain.Account{Username: "ana", PasswordHash: "other"}); err != domain.ErrDuplicateUsername {
		t.Fatalf("expected duplicate username, got %v", err)
	}

	exists, err := repo.ExistsUsername(ctx, "ana")
	if err != nil || !exists {
		t.Fatalf("expected ana to exist: %v %v", exists, err)
	}
	exists, err = repo.ExistsUsername(ctx, "ANA")
	if err != nil || exists {
		t.Fatalf("usernames are case sensitive: %v %v", exists, err)
	}

	byName, err := repo.GetByUsername(ctx, "ana")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != ana.ID || byName.PasswordHash != "hash" {
		t.Fatalf("unexpected account %+v", byName)
	}
	if !byName.CreatedAt.Equal(ana.CreatedAt.UTC()) {
		t.Fatalf("created_at round trip: %v vs %v", byName.CreatedAt, ana.CreatedAt)
	}

	if _, err := repo.GetByID(ctx, 999); err != domain.ErrAccountNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTaskRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	accounts := NewAccountRepository(db)
	tasks := NewTaskRepository(db)
	owner := createAccount(t, accounts, "ana")

	due := time.Date(2030, 5, 17, 0, 0, 0, 0, time.UTC)
	created, err := tasks.Create(ctx, &domain.Task{
		AccountID: owner.ID,
		Title:     "Informe",
		DueDate:   &due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Category != domain.DefaultCategory {
		t.Fatalf("expected default category, got %q", created.Category)
	}

	loaded, err := tasks.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.DueDateString() != "2030-05-17" || loaded.Completed {
		t.Fatalf("unexpected task %+v", loaded)
	}

	loaded.Completed = true
	loaded.DueDate = nil
	loaded.Category = "personal"
	if err := tasks.Update(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, err := tasks.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if !updated.Completed || updated.DueDate != nil || updated.Category != "personal" {
		t.Fatalf("update not persisted: %+v", updated)
	}
	if !updated.CreatedAt.Equal(loaded.CreatedAt) {
		t.Fatalf("created_at changed on update")
	}

	if err := tasks.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := tasks.Delete(ctx, created.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if err := tasks.Update(ctx, updated); err != domain.ErrTaskNotFound {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if _, err := tasks.GetByID(ctx, created.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTaskRepositoryListSearchAndSort(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	accounts := NewAccountRepository(db)
	tasks := NewTaskRepository(db)
	ana := createAccount(t, accounts, "ana")
	luis := createAccount(t, accounts, "luis")

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	seed := []domain.Task{
		{AccountID: ana.ID, Title: "comprar pan", CreatedAt: base},
		{AccountID: ana.ID, Title: "Informe anual", Description: "Para la junta", CreatedAt: base.Add(time.Hour)},
		{AccountID: ana.ID, Title: "árbol", Description: "regar el INFORME verde", CreatedAt: base.Add(2 * time.Hour)},
		{AccountID: luis.ID, Title: "informe de luis", CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range seed {
		if _, err := tasks.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	titles := func(list []domain.Task) []string {
		out := make([]string, 0, len(list))
		for _, task := range list {
			out = append(out, task.Title)
		}
		return out
	}
	assertTitles := func(t *testing.T, got []domain.Task, want ...string) {
		t.Helper()
		gotTitles := titles(got)
		if len(gotTitles) != len(want) {
			t.Fatalf("expected %v, got %v", want, gotTitles)
		}
		for i := range want {
			if gotTitles[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, gotTitles)
			}
		}
	}

	recent, err := tasks.List(ctx, repository.TaskFilter{AccountID: ana.ID, Sort: domain.SortRecent})
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	assertTitles(t, recent, "árbol", "Informe anual", "comprar pan")

	oldest, err := tasks.List(ctx, repository.TaskFilter{AccountID: ana.ID, Sort: domain.SortOldest})
	if err != nil {
		t.Fatalf("list oldest: %v", err)
	}
	assertTitles(t, oldest, "comprar pan", "Informe anual", "árbol")

	byTitle, err := tasks.List(ctx, repository.TaskFilter{AccountID: ana.ID, Sort: domain.SortTitle})
	if err != nil {
		t.Fatalf("list title: %v", err)
	}
	assertTitles(t, byTitle, "comprar pan", "Informe anual", "árbol")

	found, err := tasks.List(ctx, repository.TaskFilter{AccountID: ana.ID, Query: "informe"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	assertTitles(t, found, "árbol", "Informe anual")

	accented, err := tasks.List(ctx, repository.TaskFilter{AccountID: ana.ID, Query: "ÁRBOL"})
	if err != nil {
		t.Fatalf("search accented: %v", err)
	}
	assertTitles(t, accented, "árbol")

	none, err := tasks.List(ctx, repository.TaskFilter{AccountID: ana.ID, Query: "luis"})
	if err != nil {
		t.Fatalf("search other account: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("search leaked another account's tasks: %v", titles(none))
	}
}

func TestTaskRepositoryMissingColumnIsSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	accounts := NewAccountRepository(db)
	tasks := NewTaskRepository(db)
	owner := createAccount(t, accounts, "ana")

	existing, err := tasks.Create(ctx, &domain.Task{AccountID: owner.ID, Title: "antes"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.ExecContext(ctx, `ALTER TABLE tasks DROP COLUMN category`); err != nil {
		t.Fatalf("drop column: %v", err)
	}

	_, err = tasks.Create(ctx, &domain.Task{AccountID: owner.ID, Title: "después"})
	if code := domain.CodeOf(err); code != domain.ErrCodeSchemaMismatch {
		t.Fatalf("create: expected %s, got %s (%v)", domain.ErrCodeSchemaMismatch, code, err)
	}

	existing.Title = "cambiada"
	err = tasks.Update(ctx, existing)
	if code := domain.CodeOf(err); code != domain.ErrCodeSchemaMismatch {
		t.Fatalf("update: expected %s, got %s (%v)", domain.ErrCodeSchemaMismatch, code, err)
	}

	_, err = tasks.List(ctx, repository.TaskFilter{AccountID: owner.ID})
	if code := domain.CodeOf(err); code != domain.ErrCodeSchemaMismatch {
		t.Fatalf("list: expected %s, got %s (%v)", domain.ErrCodeSchemaMismatch, code, err)
	}
}
