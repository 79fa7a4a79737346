package usage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"edulearn/internal/database"
	"edulearn/internal/model"
	"edulearn/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func restoreStore() {
	insertTokenUsage = store.InsertTokenUsage
	sumTokenUsage = store.SumTokenUsage
	tokenUsageByModel = store.TokenUsageByModel
	recentTokenUsage = store.RecentTokenUsage
}

// memLedger backs the store seams with a slice.
type memLedger struct {
	rows []model.TokenUsage
	sums int
	fail error
}

func (l *memLedger) install() {
	insertTokenUsage = func(_ context.Context, _ database.DB, u *model.TokenUsage) error {
		if l.fail != nil {
			return l.fail
		}
		u.ID = int64(len(l.rows) + 1)
		l.rows = append(l.rows, *u)
		return nil
	}
	sumTokenUsage = func(_ context.Context, _ database.DB, userID int) (int, error) {
		l.sums++
		if l.fail != nil {
			return 0, l.fail
		}
		total := 0
		for _, r := range l.rows {
			if r.UserID == userID {
				total += r.TokensUsed
			}
		}
		return total, nil
	}
	tokenUsageByModel = func(_ context.Context, _ database.DB, userID int) ([]model.ModelTokenTotal, error) {
		byModel := map[string]*model.ModelTokenTotal{}
		out := []model.ModelTokenTotal{}
		for _, r := range l.rows {
			if r.UserID != userID {
				continue
			}
			if byModel[r.Model] == nil {
				byModel[r.Model] = &model.ModelTokenTotal{Model: r.Model}
			}
			byModel[r.Model].Tokens += r.TokensUsed
			byModel[r.Model].Requests++
		}
		for _, t := range byModel {
			out = append(out, *t)
		}
		return out, nil
	}
	recentTokenUsage = func(_ context.Context, _ database.DB, userID, limit int) ([]model.TokenUsage, error) {
		out := []model.TokenUsage{}
		for i := len(l.rows) - 1; i >= 0 && len(out) < limit; i-- {
			if l.rows[i].UserID == userID {
				out = append(out, l.rows[i])
			}
		}
		return out, nil
	}
}

func TestStatusSumsRecordedUsage(t *testing.T) {
	t.Cleanup(restoreStore)
	l := &memLedger{}
	l.install()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewService(nil, 30*time.Second, 100, func() time.Time { return now })
	ctx := context.Background()

	st, err := s.Status(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, DefaultStatus(), st)

	sizes := []int{120, 3000, 45, 0, 800}
	sum := 0
	for _, n := range sizes {
		require.NoError(t, s.Record(ctx, 1, n, "m", "chat"))
		sum += n
		st, err = s.Status(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, sum, st.TotalUsed)
		require.Equal(t, TokenLimit-sum, st.RemainingTokens)
		require.True(t, st.HasTokens)
	}

	// other users are unaffected
	st, err = s.Status(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 0, st.TotalUsed)
}

func TestStatusClampsAtZero(t *testing.T) {
	t.Cleanup(restoreStore)
	l := &memLedger{}
	l.install()
	s := NewService(nil, time.Minute, 100, nil)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, 7, 9000, "a", "chat"))
	require.NoError(t, s.Record(ctx, 7, 2500, "b", "chat"))
	st, err := s.Status(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 11500, st.TotalUsed)
	require.Equal(t, 0, st.RemainingTokens)
	require.False(t, st.HasTokens)
	require.Equal(t, TokenLimit, st.Limit)
}

func TestStatusIsCachedUntilExpiry(t *testing.T) {
	t.Cleanup(restoreStore)
	l := &memLedger{}
	l.install()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewService(nil, 30*time.Second, 100, func() time.Time { return now })
	ctx := context.Background()

	_, err := s.Status(ctx, 1)
	require.NoError(t, err)
	_, err = s.Status(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, l.sums)

	// a write that bypasses Record is only seen after expiry
	l.rows = append(l.rows, model.TokenUsage{UserID: 1, TokensUsed: 10})
	st, _ := s.Status(ctx, 1)
	require.Equal(t, 0, st.TotalUsed)

	now = now.Add(30 * time.Second)
	st, _ = s.Status(ctx, 1)
	require.Equal(t, 10, st.TotalUsed)
	require.Equal(t, 2, l.sums)
}

func TestUsageReport(t *testing.T) {
	t.Cleanup(restoreStore)
	l := &memLedger{}
	l.install()
	s := NewService(nil, time.Minute, 100, nil)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, s.Record(ctx, 3, 10, fmt.Sprintf("m%d", i%2), "chat"))
	}
	r, err := s.Usage(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 250, r.TotalUsed)
	require.Len(t, r.ByModel, 2)
	require.Len(t, r.Recent, recentLimit)

	// Usage also primes the status cache
	sums := l.sums
	st, err := s.Status(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 250, st.TotalUsed)
	require.Equal(t, sums, l.sums)
}

func TestLedgerMissing(t *testing.T) {
	t.Cleanup(restoreStore)
	l := &memLedger{fail: fmt.Errorf("SumTokenUsage: %w", &pgconn.PgError{Code: "42P01"})}
	l.install()
	s := NewService(nil, time.Minute, 100, nil)
	ctx := context.Background()

	_, err := s.Status(ctx, 1)
	require.ErrorIs(t, err, ErrLedgerMissing)
	_, err = s.Usage(ctx, 1)
	require.ErrorIs(t, err, ErrLedgerMissing)
	require.ErrorIs(t, s.Record(ctx, 1, 5, "m", "chat"), ErrLedgerMissing)
}

func TestRecordErrors(t *testing.T) {
	t.Cleanup(restoreStore)
	l := &memLedger{fail: errors.New("fk")}
	l.install()
	s := NewService(nil, time.Minute, 100, nil)

	err := s.Record(context.Background(), 99, 5, "m", "chat")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrLedgerMissing)
	require.Error(t, s.Record(context.Background(), 1, -1, "m", "chat"))
}
