package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edulearn/internal/cache"
	"edulearn/internal/model"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

var (
	ErrSessionNotFound = errors.New("session not found")

	randRead      = rand.Read
	jsonMarshal   = json.Marshal
	jsonUnmarshal = json.Unmarshal
)

// SessionData 是存放在 Redis 的登入身分
type SessionData struct {
	UserID   int    `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
	Provider string `json:"provider"`
}

// NewSessionData 由使用者資料建立 SessionData；provider 為 "password"、"google" 或 "github"
func NewSessionData(u *model.User, provider string) SessionData {
	return SessionData{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		Provider: provider,
	}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// IssueSession 產生 32 bytes 隨機 token，並將身分寫入 Redis
func IssueSession(ctx context.Context, c cache.Cache, data SessionData, ttl time.Duration) (string, error) {
	b := make([]byte, 32)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("IssueSession: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	payload, err := jsonMarshal(data)
	if err != nil {
		return "", fmt.Errorf("IssueSession: %w", err)
	}
	if err := c.Set(ctx, sessionKey(token), payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("IssueSession: %w", err)
	}
	return token, nil
}

// LookupSession 讀回 token 對應的身分；不存在或過期回傳 ErrSessionNotFound
func LookupSession(ctx context.Context, c cache.Cache, token string) (*SessionData, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	val, err := c.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("LookupSession: %w", err)
	}
	var data SessionData
	if err := jsonUnmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("LookupSession: %w", err)
	}
	return &data, nil
}

func RevokeSession(ctx context.Context, c cache.Cache, token string) error {
	if token == "" {
		return nil
	}
	if err := c.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("RevokeSession: %w", err)
	}
	return nil
}
