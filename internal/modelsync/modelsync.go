// Package modelsync mirrors the provider's model catalog into the database.
package modelsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"edulearn/internal/database"
	"edulearn/internal/model"
	"edulearn/internal/store"
)

var (
	upsertModels  = store.UpsertModels
	insertSyncLog = store.InsertSyncLog
	timeNow       = time.Now
)

// Lister fetches the provider catalog.
type Lister interface {
	ListModels(ctx context.Context, key string) ([]model.ProviderModel, error)
}

type Syncer struct {
	db     database.DB
	lister Lister
	key    string
	mu     sync.Mutex
}

func NewSyncer(db database.DB, lister Lister, key string) *Syncer {
	return &Syncer{db: db, lister: lister, key: key}
}

// Sync fetches and upserts the catalog and always writes a log row. Concurrent
// calls are serialized.
func (s *Syncer) Sync(ctx context.Context) (*model.ModelSyncLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &model.ModelSyncLog{StartedAt: timeNow(), Status: "success"}
	n, syncErr := s.run(ctx)
	l.FinishedAt = timeNow()
	l.ModelsSynced = n
	if syncErr != nil {
		msg := syncErr.Error()
		l.Status, l.Error = "failed", &msg
	}

	if err := insertSyncLog(ctx, s.db, l); err != nil {
		slog.Error("model sync log write failed", "err", err)
		if syncErr == nil {
			syncErr = err
		}
	}
	if syncErr != nil {
		return l, fmt.Errorf("Sync: %w", syncErr)
	}
	slog.Info("model catalog synced", "models", n, "took", l.FinishedAt.Sub(l.StartedAt))
	return l, nil
}

func (s *Syncer) run(ctx context.Context) (int, error) {
	models, err := s.lister.ListModels(ctx, s.key)
	if err != nil {
		return 0, err
	}
	return upsertModels(ctx, s.db, models)
}

// Task adapts Sync for the worker pool.
func (s *Syncer) Task(ctx context.Context) {
	if _, err := s.Sync(ctx); err != nil {
		slog.Warn("model sync failed", "err", err)
	}
}
