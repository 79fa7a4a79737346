package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeRows struct{}

func (fakeRows) Close()                                       {}
func (fakeRows) Err() error                                   { return nil }
func (fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (fakeRows) Next() bool                                   { return false }
func (fakeRows) Scan(dest ...any) error                       { return nil }
func (fakeRows) Values() ([]any, error)                       { return nil, nil }
func (fakeRows) RawValues() [][]byte                          { return nil }
func (fakeRows) Conn() *pgx.Conn                              { return nil }

func TestFakeDBPanicsWhenUnset(t *testing.T) {
	db := &FakeDB{}
	require.Panics(t, func() { _, _ = db.Exec(context.Background(), "") })
	require.Panics(t, func() { _, _ = db.Query(context.Background(), "") })
	require.Panics(t, func() { db.QueryRow(context.Background(), "") })
	require.Panics(t, func() { _ = db.Ping(context.Background()) })
	require.NotPanics(t, db.Close)
}

func TestFakeDBDelegates(t *testing.T) {
	calls := map[string]int{}
	db := &FakeDB{
		ExecFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			calls["exec"]++
			return pgconn.NewCommandTag("UPDATE 1"), errors.New("e")
		},
		QueryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
			calls["query"]++
			return fakeRows{}, nil
		},
		QueryRowFn: func(context.Context, string, ...any) pgx.Row {
			calls["row"]++
			return fakeRows{}
		},
		PingFn:  func(context.Context) error { calls["ping"]++; return nil },
		CloseFn: func() { calls["close"]++ },
	}

	tag, err := db.Exec(context.Background(), "sql")
	require.Error(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
	_, err = db.Query(context.Background(), "sql")
	require.NoError(t, err)
	_ = db.QueryRow(context.Background(), "sql")
	require.NoError(t, db.Ping(context.Background()))
	db.Close()

	for _, k := range []string{"exec", "query", "row", "ping", "close"} {
		require.Equal(t, 1, calls[k], k)
	}
}
