package store

import (
	"context"

	"edulearn/internal/database"
	"edulearn/internal/model"
)

// InsertTokenUsage appends a ledger row and fills its id and timestamp.
func InsertTokenUsage(ctx context.Context, db database.DB, u *model.TokenUsage) error {
	row := db.QueryRow(ctx,
		`INSERT INTO token_usage (user_id, tokens_used, model, request_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.UserID,
		u.TokensUsed,
		u.Model,
		u.RequestType,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return wrap("InsertTokenUsage", err)
	}
	return nil
}

func SumTokenUsage(ctx context.Context, db database.DB, userID int) (int, error) {
	var total int
	if err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(tokens_used), 0)::int FROM token_usage WHERE user_id = $1`,
		userID,
	).Scan(&total); err != nil {
		return 0, wrap("SumTokenUsage", err)
	}
	return total, nil
}

func TokenUsageByModel(ctx context.Context, db database.DB, userID int) ([]model.ModelTokenTotal, error) {
	rows, err := db.Query(ctx,
		`SELECT model, COALESCE(SUM(tokens_used), 0)::int, COUNT(*)::int
		 FROM token_usage WHERE user_id = $1
		 GROUP BY model ORDER BY 2 DESC`,
		userID,
	)
	if err != nil {
		return nil, wrap("TokenUsageByModel", err)
	}
	defer rows.Close()

	totals := []model.ModelTokenTotal{}
	for rows.Next() {
		var t model.ModelTokenTotal
		if err := rows.Scan(&t.Model, &t.Tokens, &t.Requests); err != nil {
			return nil, wrap("TokenUsageByModel", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("TokenUsageByModel", err)
	}
	return totals, nil
}

func RecentTokenUsage(ctx context.Context, db database.DB, userID, limit int) ([]model.TokenUsage, error) {
	rows, err := db.Query(ctx,
		`SELECT id, user_id, tokens_used, model, request_type, created_at
		 FROM token_usage WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID,
		limit,
	)
	if err != nil {
		return nil, wrap("RecentTokenUsage", err)
	}
	defer rows.Close()

	entries := []model.TokenUsage{}
	for rows.Next() {
		var u model.TokenUsage
		if err := rows.Scan(&u.ID, &u.UserID, &u.TokensUsed, &u.Model, &u.RequestType, &u.CreatedAt); err != nil {
			return nil, wrap("RecentTokenUsage", err)
		}
		entries = append(entries, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("RecentTokenUsage", err)
	}
	return entries, nil
}
