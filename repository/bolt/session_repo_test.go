package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Pilar-d/pendientes/domain"
)

func openStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"), time.Hour)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	session := &domain.Session{ID: "abc", AccountID: 7, Username: "ana"}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if session.ExpiresAt.IsZero() {
		t.Fatalf("expected default expiry to be applied")
	}

	loaded, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.AccountID != 7 || loaded.Username != "ana" {
		t.Fatalf("unexpected session %+v", loaded)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "abc"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	now := time.Now()

	expired := &domain.Session{ID: "old", AccountID: 1, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	live := &domain.Session{ID: "new", AccountID: 1, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	for _, s := range []*domain.Session{expired, live} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("save %s: %v", s.ID, err)
		}
	}

	if _, err := store.Get(ctx, "old"); err != domain.ErrSessionNotFound {
		t.Fatalf("expired session must not load, got %v", err)
	}

	purged, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	size, err := store.Size()
	if err != nil || size != 1 {
		t.Fatalf("expected one remaining session, got %d (%v)", size, err)
	}
}
