package service

import (
	"errors"

	"edulearn/internal/model"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// 測試時替換
var (
	bcryptGenerateFromPassword   = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
)

// HashPassword 產生要存進 users.password_hash 的 bcrypt 字串
func HashPassword(password string) (string, error) {
	b, err := bcryptGenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ComparePassword(hash, password string) error {
	return bcryptCompareHashAndPassword([]byte(hash), []byte(password))
}

// AuthenticateUser 驗證明文密碼；OAuth 建立的帳號沒有密碼，一律拒絕。
// 找不到使用者與密碼錯誤回傳同一個錯誤。
func AuthenticateUser(user *model.User, password string) error {
	if user == nil || user.PasswordHash == nil || *user.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := ComparePassword(*user.PasswordHash, password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
