package store

import (
	"context"

	"edulearn/internal/database"
	"edulearn/internal/model"
)

// UpsertModels writes every model and returns how many rows were written.
func UpsertModels(ctx context.Context, db database.DB, models []model.ProviderModel) (int, error) {
	n := 0
	for _, m := range models {
		if _, err := db.Exec(ctx,
			`INSERT INTO models (id, name, description, context_length, prompt_price, completion_price, is_free, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			 ON CONFLICT (id) DO UPDATE SET
			     name = EXCLUDED.name,
			     description = EXCLUDED.description,
			     context_length = EXCLUDED.context_length,
			     prompt_price = EXCLUDED.prompt_price,
			     completion_price = EXCLUDED.completion_price,
			     is_free = EXCLUDED.is_free,
			     updated_at = now()`,
			m.ID,
			m.Name,
			m.Description,
			m.ContextLength,
			m.PromptPrice,
			m.CompletionPrice,
			m.IsFree,
		); err != nil {
			return n, wrap("UpsertModels", err)
		}
		n++
	}
	return n, nil
}

func ListModels(ctx context.Context, db database.DB, freeOnly bool) ([]model.ProviderModel, error) {
	q := `SELECT id, name, description, context_length, prompt_price, completion_price, is_free, updated_at FROM models`
	if freeOnly {
		q += ` WHERE is_free`
	}
	rows, err := db.Query(ctx, q+` ORDER BY name`)
	if err != nil {
		return nil, wrap("ListModels", err)
	}
	defer rows.Close()

	models := []model.ProviderModel{}
	for rows.Next() {
		var m model.ProviderModel
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.ContextLength,
			&m.PromptPrice, &m.CompletionPrice, &m.IsFree, &m.UpdatedAt); err != nil {
			return nil, wrap("ListModels", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("ListModels", err)
	}
	return models, nil
}

func InsertSyncLog(ctx context.Context, db database.DB, l *model.ModelSyncLog) error {
	if err := db.QueryRow(ctx,
		`INSERT INTO model_sync_logs (started_at, finished_at, status, models_synced, error)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		l.StartedAt,
		l.FinishedAt,
		l.Status,
		l.ModelsSynced,
		l.Error,
	).Scan(&l.ID); err != nil {
		return wrap("InsertSyncLog", err)
	}
	return nil
}

func LatestSyncLog(ctx context.Context, db database.DB) (*model.ModelSyncLog, error) {
	l := &model.ModelSyncLog{}
	if err := db.QueryRow(ctx,
		`SELECT id, started_at, finished_at, status, models_synced, error
		 FROM model_sync_logs ORDER BY started_at DESC, id DESC LIMIT 1`,
	).Scan(&l.ID, &l.StartedAt, &l.FinishedAt, &l.Status, &l.ModelsSynced, &l.Error); err != nil {
		return nil, wrap("LatestSyncLog", err)
	}
	return l, nil
}
