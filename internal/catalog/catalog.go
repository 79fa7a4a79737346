// Package catalog implements the moderation workflow for user-submitted
// resources and events, and event registration.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"edulearn/internal/database"
	"edulearn/internal/model"
	"edulearn/internal/store"

	"github.com/microcosm-cc/bluemonday"
)

const MaxTags = 12

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("admin privileges required")
	ErrEventFull         = errors.New("event is full")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNotApproved       = errors.New("event is not approved")
)

var isAdminEmail = store.IsAdminEmail

type Service struct {
	db     database.DB
	policy *bluemonday.Policy
}

func NewService(db database.DB) *Service {
	return &Service{db: db, policy: bluemonday.StrictPolicy()}
}

// clean strips all markup and returns plain text.
func (s *Service) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(strings.TrimSpace(v))))
}

func (s *Service) cleanPtr(v *string) *string {
	if v == nil {
		return nil
	}
	c := s.clean(*v)
	if c == "" {
		return nil
	}
	return &c
}

// cleanTags trims, drops empties and case-insensitive duplicates, and keeps at
// most MaxTags entries in their original order.
func (s *Service) cleanTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = s.clean(t)
		k := strings.ToLower(t)
		if t == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// initialStatus auto-approves submissions from admins.
func (s *Service) initialStatus(ctx context.Context, email string) (model.ModerationStatus, error) {
	admin, err := isAdminEmail(ctx, s.db, email)
	if err != nil {
		return "", err
	}
	if admin {
		return model.StatusApproved, nil
	}
	return model.StatusPending, nil
}

func (s *Service) requireAdmin(ctx context.Context, email string) error {
	admin, err := isAdminEmail(ctx, s.db, email)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden
	}
	return nil
}

// visibility turns the caller's includePending request into store filters.
func (s *Service) visibility(ctx context.Context, viewerEmail string, includePending bool) (includeAll bool, owner string, err error) {
	if !includePending || viewerEmail == "" {
		return false, "", nil
	}
	admin, err := isAdminEmail(ctx, s.db, viewerEmail)
	if err != nil {
		return false, "", err
	}
	if admin {
		return true, "", nil
	}
	return false, viewerEmail, nil
}

// canView reports whether a row in status, submitted by owner, is visible to
// viewerEmail. Owner matching is exact, the same rule the list query uses;
// emails are lowercased before they reach a session.
func (s *Service) canView(ctx context.Context, status model.ModerationStatus, owner, viewerEmail string) (bool, error) {
	if status == model.StatusApproved {
		return true, nil
	}
	if viewerEmail == "" {
		return false, nil
	}
	if owner != "" && owner == viewerEmail {
		return true, nil
	}
	return isAdminEmail(ctx, s.db, viewerEmail)
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// moderate checks the caller first so that a refused call never mutates.
func (s *Service) moderate(ctx context.Context, callerEmail string, op string, mutate func() error) error {
	if err := s.requireAdmin(ctx, callerEmail); err != nil {
		if errors.Is(err, ErrForbidden) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := mutate(); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
