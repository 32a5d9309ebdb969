package kv

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Runs only against a real database: DB_SOURCE=postgresql://... go test ./internal/kv
func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("DB_SOURCE")
	if dsn == "" {
		t.Skip("DB_SOURCE not set")
	}

	ctx := context.Background()
	pg, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.EnsureSchema(ctx))

	exerciseStore(t, WithNamespace(pg, "test-"+uuid.NewString()))
}
