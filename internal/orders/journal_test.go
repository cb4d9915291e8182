package orders

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set FISHSHOP_TEST_DSN to a disposable Postgres database to run this test.
func TestJournalRoundTrip(t *testing.T) {
	dsn := os.Getenv("FISHSHOP_TEST_DSN")
	if dsn == "" {
		t.Skip("FISHSHOP_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	schema, err := os.ReadFile("../../migrations/0001_create_orders.up.sql")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, string(schema))
	require.NoError(t, err)

	chatID := time.Now().UnixNano()
	j := NewJournal(db)
	require.NoError(t, j.Record(ctx, Order{ChatID: chatID, CustomerID: "c-1", CustomerName: "@fisher", Email: "f@sea.io", Total: "$50.00"}))
	require.NoError(t, j.Record(ctx, Order{ChatID: chatID, CustomerID: "c-2", CustomerName: "@fisher", Email: "f@sea.io", Total: "$10.00"}))

	got, err := j.ForChat(ctx, chatID, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-2", got[0].CustomerID)
	assert.Equal(t, "$50.00", got[1].Total)
	assert.False(t, got[0].CreatedAt.IsZero())
}
