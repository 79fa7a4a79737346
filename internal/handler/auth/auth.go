package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"edulearn/internal/api"
	"edulearn/internal/cache"
	"edulearn/internal/database"
	"edulearn/internal/middleware"
	"edulearn/internal/model"
	"edulearn/internal/service"
	"edulearn/internal/store"

	"github.com/labstack/echo/v4"
)

const (
	minPasswordLength = 6
	// bcrypt 只接受 72 bytes
	maxPasswordBytes = 72

	msgPasswordTooShort = "Password must be at least 6 characters long"
	msgPasswordTooLong  = "Password must be at most 72 bytes long"
	msgDuplicateEmail   = "User with this email already exists"
	msgInvalidLogin     = "Invalid email or password"
)

var (
	hashPassword     = service.HashPassword
	authenticateUser = service.AuthenticateUser
	issueSession     = service.IssueSession
	revokeSession    = service.RevokeSession
	createUser       = store.CreateUser
	getUserByEmail   = store.GetUserByEmail
	getUserByID      = store.GetUserByID
)

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SignUpHandler 建立帳號並直接登入
// @Summary     Sign up
// @Description 以 Email/密碼建立帳號，成功後發行 session cookie
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     api.SignUpRequest true "帳號資料"
// @Success     201  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     409  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /auth/signup [post]
func SignUpHandler(db database.DB, cch cache.Cache, cookies Cookies) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.SignUpRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}
		if utf8.RuneCountInString(req.Password) < minPasswordLength {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgPasswordTooShort})
		}
		if len(req.Password) > maxPasswordBytes {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgPasswordTooLong})
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to hash password"})
		}
		u, err := createUser(c.Request().Context(), db, &model.User{
			Email:        normalizeEmail(req.Email),
			Name:         strings.TrimSpace(req.Name),
			PasswordHash: &hash,
		})
		if errors.Is(err, store.ErrDuplicateEmail) {
			return c.JSON(http.StatusConflict, api.ErrorResponse{Message: msgDuplicateEmail})
		}
		if err != nil {
			slog.Error("sign up failed", "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to create user"})
		}

		if err := startSession(c, cch, cookies, u, "password"); err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to start session"})
		}
		slog.Info("user signed up", "user_id", u.ID)
		return c.JSON(http.StatusCreated, api.NewUserResponse(u))
	}
}

// SignInHandler 驗證 Email/密碼並發行 session cookie
// @Summary     Sign in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     api.SignInRequest true "登入資料"
// @Success     200  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /auth/signin [post]
func SignInHandler(db database.DB, cch cache.Cache, cookies Cookies) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.SignInRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		u, err := getUserByEmail(c.Request().Context(), db, normalizeEmail(req.Email))
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Error("sign in lookup failed", "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to sign in"})
		}
		if err := authenticateUser(u, req.Password); err != nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgInvalidLogin})
		}

		if err := startSession(c, cch, cookies, u, "password"); err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to start session"})
		}
		return c.JSON(http.StatusOK, api.NewUserResponse(u))
	}
}

// SignOutHandler 撤銷 Redis 中的 session 並清除 cookie
// @Summary     Sign out
// @Tags        auth
// @Produce     json
// @Success     200 {object} api.MessageResponse
// @Router      /auth/signout [post]
func SignOutHandler(cch cache.Cache, cookies Cookies) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := middleware.SessionToken(c)
		if token == "" {
			if ck, err := c.Cookie(middleware.SessionCookie); err == nil {
				token = ck.Value
			}
		}
		if err := revokeSession(c.Request().Context(), cch, token); err != nil {
			slog.Warn("revoke session failed", "error", err)
		}
		c.SetCookie(cookies.Expire(middleware.SessionCookie))
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "signed out"})
	}
}

// SessionHandler 回傳目前登入者
// @Summary     Current session
// @Tags        auth
// @Produce     json
// @Success     200 {object} api.SessionResponse
// @Failure     401 {object} api.ErrorResponse
// @Router      /auth/session [get]
func SessionHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := middleware.CurrentSession(c)
		if sess == nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "Unauthorized"})
		}
		u, err := getUserByID(c.Request().Context(), db, sess.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "Unauthorized"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to load user"})
		}
		return c.JSON(http.StatusOK, api.SessionResponse{User: api.NewUserResponse(u), Provider: sess.Provider})
	}
}

func startSession(c echo.Context, cch cache.Cache, cookies Cookies, u *model.User, provider string) error {
	token, err := issueSession(c.Request().Context(), cch, service.NewSessionData(u, provider), cookies.TTL)
	if err != nil {
		slog.Error("issue session failed", "user_id", u.ID, "error", err)
		return err
	}
	c.SetCookie(cookies.Session(token))
	return nil
}
