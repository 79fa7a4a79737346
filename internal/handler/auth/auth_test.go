package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edulearn/internal/cache"
	"edulearn/internal/database"
	"edulearn/internal/middleware"
	"edulearn/internal/model"
	"edulearn/internal/oauth"
	"edulearn/internal/service"
	"edulearn/internal/store"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{ err error }

func (v stubValidator) Validate(any) error { return v.err }

var testCookies = Cookies{Secure: true, TTL: 7 * 24 * time.Hour}

func restore() {
	hashPassword = service.HashPassword
	authenticateUser = service.AuthenticateUser
	issueSession = service.IssueSession
	revokeSession = service.RevokeSession
	createUser = store.CreateUser
	getUserByEmail = store.GetUserByEmail
	getUserByID = store.GetUserByID
	newState = uuid.NewString
	newVerifier = oauth.NewVerifier
	signState = service.SignState
	verifyState = service.VerifyState
	upsertOAuthUser = store.UpsertOAuthUser
}

func newJSONCtx(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func fixedSession(token string) func(context.Context, cache.Cache, service.SessionData, time.Duration) (string, error) {
	return func(_ context.Context, _ cache.Cache, _ service.SessionData, ttl time.Duration) (string, error) {
		return token, nil
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestCookies(t *testing.T) {
	ck := testCookies.Session("tok")
	require.Equal(t, middleware.SessionCookie, ck.Name)
	require.Equal(t, 604800, ck.MaxAge)
	require.True(t, ck.HttpOnly)
	require.True(t, ck.Secure)
	require.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	st := testCookies.State("x")
	require.Equal(t, StateCookie, st.Name)
	require.Equal(t, 600, st.MaxAge)

	require.Equal(t, -1, testCookies.Expire(StateCookie).MaxAge)
}

func TestSignUpHandler(t *testing.T) {
	defer restore()
	db := &database.FakeDB{}
	cch := &cache.FakeCache{}

	t.Run("bind error", func(t *testing.T) {
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, "{")
		require.NoError(t, SignUpHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validate error", func(t *testing.T) {
		e := echo.New()
		e.Validator = stubValidator{err: errors.New("email required")}
		ctx, rec := newJSONCtx(e, `{}`)
		require.NoError(t, SignUpHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "email required")
	})

	t.Run("short password", func(t *testing.T) {
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			t.Fatal("createUser should not run")
			return nil, nil
		}
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, `{"email":"a@b.io","password":"12345","name":"A"}`)
		require.NoError(t, SignUpHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Password must be at least 6 characters long")
	})

	t.Run("password counted in characters", func(t *testing.T) {
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			t.Fatal("createUser should not run")
			return nil, nil
		}
		e := echo.New()
		e.Validator = stubValidator{}
		// 三個中文字是 9 bytes，但只有 3 個字元
		ctx, rec := newJSONCtx(e, `{"email":"a@b.io","password":"密碼短","name":"A"}`)
		require.NoError(t, SignUpHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Password must be at least 6 characters long")
	})

	t.Run("password over bcrypt limit", func(t *testing.T) {
		hashPassword = func(string) (string, error) {
			t.Fatal("hashPassword should not run")
			return "", nil
		}
		e := echo.New()
		e.Validator = stubValidator{}
		long := strings.Repeat("密", 25) // 25 個字元，75 bytes
		ctx, rec := newJSONCtx(e, `{"email":"a@b.io","password":"`+long+`","name":"A"}`)
		require.NoError(t, SignUpHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "at most 72 bytes")
	})

	t.Run("duplicate", func(t *testing.T) {
		hashPassword = func(string) (string, error) { return "h", nil }
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			return nil, store.ErrDuplicateEmail
		}
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, `{"email":"a@b.io","password":"123456","name":"A"}`)
		require.NoError(t, SignUpHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Contains(t, rec.Body.String(), "User with this email already exists")
	})

	t.Run("ok", func(t *testing.T) {
		hashPassword = func(p string) (string, error) { return "hash:" + p, nil }
		createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) {
			require.Equal(t, "a@b.io", u.Email)
			require.Equal(t, "hash:123456", *u.PasswordHash)
			u.ID = 5
			u.Role = "student"
			return u, nil
		}
		issueSession = func(_ context.Context, _ cache.Cache, d service.SessionData, ttl time.Duration) (string, error) {
			require.Equal(t, 5, d.UserID)
			require.Equal(t, "password", d.Provider)
			require.Equal(t, testCookies.TTL, ttl)
			return "tok", nil
		}
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, `{"email":" A@B.io ","password":"123456","name":"Alice"}`)
		require.NoError(t, SignUpHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotContains(t, rec.Body.String(), "hash:")
		require.Contains(t, rec.Body.String(), `"hasApiKey":false`)
		require.Equal(t, "tok", sessionCookie(t, rec, middleware.SessionCookie).Value)
	})

	t.Run("session failure", func(t *testing.T) {
		hashPassword = func(string) (string, error) { return "h", nil }
		createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) { return u, nil }
		issueSession = func(context.Context, cache.Cache, service.SessionData, time.Duration) (string, error) {
			return "", errors.New("redis down")
		}
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, `{"email":"a@b.io","password":"123456","name":"A"}`)
		require.NoError(t, SignUpHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSignInHandler(t *testing.T) {
	defer restore()
	db := &database.FakeDB{}
	cch := &cache.FakeCache{}
	hash := "h"

	t.Run("unknown email", func(t *testing.T) {
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
			return nil, store.ErrNotFound
		}
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, `{"email":"a@b.io","password":"x"}`)
		require.NoError(t, SignInHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid email or password")
	})

	t.Run("wrong password", func(t *testing.T) {
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
			return &model.User{ID: 1, PasswordHash: &hash}, nil
		}
		authenticateUser = func(*model.User, string) error { return service.ErrInvalidCredentials }
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, `{"email":"a@b.io","password":"x"}`)
		require.NoError(t, SignInHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid email or password")
	})

	t.Run("db error", func(t *testing.T) {
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
			return nil, errors.New("db")
		}
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, `{"email":"a@b.io","password":"x"}`)
		require.NoError(t, SignInHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		getUserByEmail = func(_ context.Context, _ database.DB, email string) (*model.User, error) {
			require.Equal(t, "a@b.io", email)
			return &model.User{ID: 1, Email: email, PasswordHash: &hash}, nil
		}
		authenticateUser = func(*model.User, string) error { return nil }
		issueSession = fixedSession("tok")
		e := echo.New()
		e.Validator = stubValidator{}
		ctx, rec := newJSONCtx(e, `{"email":"A@b.io","password":"secret"}`)
		require.NoError(t, SignInHandler(db, cch, testCookies)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), "password")
		require.Equal(t, "tok", sessionCookie(t, rec, middleware.SessionCookie).Value)
	})
}

func TestSignOutHandler(t *testing.T) {
	defer restore()
	var revoked string
	revokeSession = func(_ context.Context, _ cache.Cache, tok string) error {
		revoked = tok
		return nil
	}
	e := echo.New()
	ctx, rec := newJSONCtx(e, "")
	ctx.Set(middleware.ContextTokenKey, "tok")
	require.NoError(t, SignOutHandler(&cache.FakeCache{}, testCookies)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "tok", revoked)
	require.Equal(t, -1, sessionCookie(t, rec, middleware.SessionCookie).MaxAge)
}

func TestSessionHandler(t *testing.T) {
	defer restore()
	db := &database.FakeDB{}

	e := echo.New()
	ctx, rec := newJSONCtx(e, "")
	require.NoError(t, SessionHandler(db)(ctx))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	getUserByID = func(_ context.Context, _ database.DB, id int) (*model.User, error) {
		return &model.User{ID: id, Email: "a@b.io", Name: "A"}, nil
	}
	ctx, rec = newJSONCtx(e, "")
	ctx.Set(middleware.ContextSessionKey, &service.SessionData{UserID: 3, Provider: "github"})
	require.NoError(t, SessionHandler(db)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"provider":"github"`)

	getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return nil, store.ErrNotFound }
	ctx, rec = newJSONCtx(e, "")
	ctx.Set(middleware.ContextSessionKey, &service.SessionData{UserID: 3})
	require.NoError(t, SessionHandler(db)(ctx))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
