package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"database", "sessions", "http"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if want := []string{"http", "sessions", "database"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}

	if err := m.Shutdown(context.Background()); err != nil || len(order) != 3 {
		t.Fatalf("second shutdown must be a no-op: %v %v", order, err)
	}
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	ran := false
	m.Closer("database", func() error { ran = true; return nil })
	m.Closer("sessions", func() error { return errors.New("locked") })

	err := m.Shutdown(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sessions: locked") {
		t.Fatalf("expected joined hook error, got %v", err)
	}
	if !ran {
		t.Fatalf("a failing hook must not stop the others")
	}
}
