package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"edulearn/internal/database"
	"edulearn/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenUsageStore(t *testing.T) {
	now := time.Now().UTC()

	t.Run("InsertTokenUsage", func(t *testing.T) {
		db := &database.FakeDB{QueryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
			require.Equal(t, []any{5, 120, "m", "chat"}, args)
			return fakeRow{vals: []any{int64(1), now}}
		}}
		u := &model.TokenUsage{UserID: 5, TokensUsed: 120, Model: "m", RequestType: "chat"}
		require.NoError(t, InsertTokenUsage(context.Background(), db, u))
		require.EqualValues(t, 1, u.ID)
	})

	t.Run("SumTokenUsage", func(t *testing.T) {
		db := &database.FakeDB{QueryRowFn: func(context.Context, string, ...any) pgx.Row {
			return fakeRow{vals: []any{350}}
		}}
		total, err := SumTokenUsage(context.Background(), db, 5)
		require.NoError(t, err)
		require.Equal(t, 350, total)

		db.QueryRowFn = func(context.Context, string, ...any) pgx.Row { return fakeRow{err: errors.New("down")} }
		_, err = SumTokenUsage(context.Background(), db, 5)
		require.Error(t, err)
	})

	t.Run("TokenUsageByModel", func(t *testing.T) {
		db := &database.FakeDB{QueryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &fakeRows{data: [][]any{{"a", 300, 2}, {"b", 50, 1}}}, nil
		}}
		totals, err := TokenUsageByModel(context.Background(), db, 5)
		require.NoError(t, err)
		require.Equal(t, []model.ModelTokenTotal{{Model: "a", Tokens: 300, Requests: 2}, {Model: "b", Tokens: 50, Requests: 1}}, totals)
	})

	t.Run("RecentTokenUsage", func(t *testing.T) {
		db := &database.FakeDB{QueryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			require.Equal(t, []any{5, 20}, args)
			return &fakeRows{data: [][]any{{int64(2), 5, 10, "a", "chat", now}}}, nil
		}}
		entries, err := RecentTokenUsage(context.Background(), db, 5, 20)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, 10, entries[0].TokensUsed)
	})
}
