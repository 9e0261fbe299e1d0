package database

import "context"

// Prober runs a read-only query against the store.
type Prober interface {
	Probe(ctx context.Context, query string) error
}

// schemaProbes select every column the repositories read or write.
var schemaProbes = []string{
	"SELECT id, username, password_hash, created_at FROM accounts LIMIT 0",
	"SELECT id, account_id, title, description, completed, created_at, due_date, category FROM tasks LIMIT 0",
}

// Verify checks that the live schema carries every column the application
// uses. A missing table or column yields a SCHEMA_MISMATCH domain error.
func Verify(ctx context.Context, p Prober) error {
	for _, query := range schemaProbes {
		if err := p.Probe(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// Verifier binds Verify to one prober.
type Verifier struct {
	prober Prober
}

func NewVerifier(p Prober) *Verifier {
	return &Verifier{prober: p}
}

func (v *Verifier) Verify(ctx context.Context) error {
	return Verify(ctx, v.prober)
}
