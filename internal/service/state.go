package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const StateTTL = 10 * time.Minute

var (
	ErrInvalidState = errors.New("invalid oauth state")

	timeNow         = time.Now
	parseWithClaims = jwt.ParseWithClaims
)

// StateClaims 定義 oauth_state cookie 的 JWT 負載內容
type StateClaims struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// SignState 以 HS256 簽署 OAuth state 與 PKCE verifier
func SignState(secret, state, verifier, provider string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("SignState: secret not set")
	}
	now := timeNow()
	claims := StateClaims{
		State:    state,
		Verifier: verifier,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyState 驗證簽章、到期時間與 provider，回傳解出的 claims
func VerifyState(secret, tokenString, provider string) (*StateClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("VerifyState: secret not set")
	}
	token, err := parseWithClaims(tokenString, &StateClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(timeNow))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidState
	}
	if claims.Provider != provider || claims.State == "" {
		return nil, ErrInvalidState
	}
	return claims, nil
}
