// Package apikey decides which provider credential a request uses and checks
// user-supplied keys before they are stored.
package apikey

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"edulearn/internal/database"
	"edulearn/internal/store"
)

var (
	ErrNoAPIKey      = errors.New("no API key configured")
	ErrInvalidFormat = errors.New("invalid API key format")
	ErrRejected      = errors.New("API key rejected by provider")
)

var keyPattern = regexp.MustCompile(`^sk-or-v1-[A-Za-z0-9]{32,}$`)

var getUserAPIKey = store.GetUserAPIKey

// Resolver picks the server-wide key when one is configured and otherwise
// falls back to the user's stored key.
type Resolver struct {
	serverKey string
	db        database.DB
}

func NewResolver(serverKey string, db database.DB) *Resolver {
	return &Resolver{serverKey: serverKey, db: db}
}

// UsingServerKey reports whether per-user keys are ignored.
func (r *Resolver) UsingServerKey() bool {
	return r.serverKey != ""
}

func (r *Resolver) Resolve(ctx context.Context, userID int) (string, error) {
	if r.serverKey != "" {
		return r.serverKey, nil
	}
	key, err := getUserAPIKey(ctx, r.db, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoAPIKey
	}
	if err != nil {
		return "", fmt.Errorf("Resolve: %w", err)
	}
	if key == nil || *key == "" {
		return "", ErrNoAPIKey
	}
	return *key, nil
}

// Prober issues an authenticated GET and reports the status code.
type Prober interface {
	Probe(ctx context.Context, key, path string) (int, error)
}

type Validator struct {
	prober Prober
}

func NewValidator(p Prober) *Validator {
	return &Validator{prober: p}
}

// ValidFormat checks the key shape only.
func ValidFormat(key string) bool {
	return keyPattern.MatchString(key)
}

// Validate checks the format and then asks the provider to accept the key on
// both the credits and models endpoints.
func (v *Validator) Validate(ctx context.Context, key string) error {
	if !ValidFormat(key) {
		return ErrInvalidFormat
	}
	for _, path := range []string{"/credits", "/models"} {
		code, err := v.prober.Probe(ctx, key, path)
		if err != nil {
			return fmt.Errorf("Validate: %w", err)
		}
		if code != http.StatusOK {
			return fmt.Errorf("%w: %s returned %d", ErrRejected, path, code)
		}
	}
	return nil
}

// Mask keeps the prefix and the last four characters.
func Mask(key string) string {
	if len(key) <= 14 {
		return "****"
	}
	return key[:10] + "..." + key[len(key)-4:]
}
