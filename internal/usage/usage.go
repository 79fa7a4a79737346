// Package usage accounts LLM token consumption against the per-user quota.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edulearn/internal/cache"
	"edulearn/internal/database"
	"edulearn/internal/model"
	"edulearn/internal/store"
)

// TokenLimit is the fixed per-user quota.
const TokenLimit = 10000

const recentLimit = 20

// ErrLedgerMissing means the token_usage table does not exist yet.
var ErrLedgerMissing = errors.New("token usage ledger missing")

var (
	insertTokenUsage  = store.InsertTokenUsage
	sumTokenUsage     = store.SumTokenUsage
	tokenUsageByModel = store.TokenUsageByModel
	recentTokenUsage  = store.RecentTokenUsage
)

type Status struct {
	TotalUsed       int  `json:"totalUsed"`
	RemainingTokens int  `json:"remainingTokens"`
	HasTokens       bool `json:"hasTokens"`
	Limit           int  `json:"limit"`
}

// Report is Status plus the per-model breakdown and the latest ledger rows.
type Report struct {
	Status
	ByModel []model.ModelTokenTotal `json:"byModel"`
	Recent  []model.TokenUsage      `json:"recent"`
}

// DefaultStatus is what a user with an empty ledger sees.
func DefaultStatus() Status {
	return newStatus(0)
}

func newStatus(total int) Status {
	remaining := TokenLimit - total
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		TotalUsed:       total,
		RemainingTokens: remaining,
		HasTokens:       remaining > 0,
		Limit:           TokenLimit,
	}
}

type Service struct {
	db      database.DB
	status  *cache.Memory[int, Status]
	reports *cache.Memory[int, Report]
}

// NewService caches per-user answers for ttl using the given clock (nil means
// time.Now). Each cache keeps at most size users.
func NewService(db database.DB, ttl time.Duration, size int, now func() time.Time) *Service {
	return &Service{
		db:      db,
		status:  cache.NewMemory[int, Status](size, ttl, now),
		reports: cache.NewMemory[int, Report](size, ttl, now),
	}
}

// Record appends a ledger row and drops the user's cached answers.
func (s *Service) Record(ctx context.Context, userID, tokensUsed int, modelID, requestType string) error {
	if tokensUsed < 0 {
		return fmt.Errorf("Record: negative token count %d", tokensUsed)
	}
	u := &model.TokenUsage{
		UserID:      userID,
		TokensUsed:  tokensUsed,
		Model:       modelID,
		RequestType: requestType,
	}
	if err := insertTokenUsage(ctx, s.db, u); err != nil {
		return classify("Record", err)
	}
	s.Invalidate(userID)
	return nil
}

func (s *Service) Invalidate(userID int) {
	s.status.Delete(userID)
	s.reports.Delete(userID)
}

func (s *Service) Status(ctx context.Context, userID int) (Status, error) {
	if st, ok := s.status.Get(userID); ok {
		return st, nil
	}
	total, err := sumTokenUsage(ctx, s.db, userID)
	if err != nil {
		return Status{}, classify("Status", err)
	}
	st := newStatus(total)
	s.status.Set(userID, st)
	return st, nil
}

func (s *Service) Usage(ctx context.Context, userID int) (Report, error) {
	if r, ok := s.reports.Get(userID); ok {
		return r, nil
	}
	total, err := sumTokenUsage(ctx, s.db, userID)
	if err != nil {
		return Report{}, classify("Usage", err)
	}
	byModel, err := tokenUsageByModel(ctx, s.db, userID)
	if err != nil {
		return Report{}, classify("Usage", err)
	}
	recent, err := recentTokenUsage(ctx, s.db, userID, recentLimit)
	if err != nil {
		return Report{}, classify("Usage", err)
	}
	r := Report{Status: newStatus(total), ByModel: byModel, Recent: recent}
	s.reports.Set(userID, r)
	s.status.Set(userID, r.Status)
	return r, nil
}

func classify(op string, err error) error {
	if database.IsUndefinedTable(err) {
		return fmt.Errorf("%s: %w", op, ErrLedgerMissing)
	}
	return fmt.Errorf("%s: %w", op, err)
}
