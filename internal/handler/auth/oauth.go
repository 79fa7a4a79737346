package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"edulearn/internal/api"
	"edulearn/internal/cache"
	"edulearn/internal/database"
	"edulearn/internal/oauth"
	"edulearn/internal/service"
	"edulearn/internal/store"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	errInvalidState = "invalid_state"
	errOAuthFailed  = "oauth_failed"
)

var (
	newState        = uuid.NewString
	newVerifier     = oauth.NewVerifier
	signState       = service.SignState
	verifyState     = service.VerifyState
	upsertOAuthUser = store.UpsertOAuthUser
)

// OAuthOptions 是 OAuth 流程需要的設定
type OAuthOptions struct {
	Cookies     Cookies
	StateSecret string
	FrontendURL string
}

// errorRedirect 導回前端登入頁並附上錯誤代碼
func (o OAuthOptions) errorRedirect(code string) string {
	return strings.TrimRight(o.FrontendURL, "/") + "/auth/signin?" + url.Values{"error": {code}}.Encode()
}

// OAuthLoginHandler 產生 state 與 PKCE verifier，並導向 provider 授權頁
// @Summary     OAuth login
// @Tags        auth
// @Param       provider path string true "google 或 github"
// @Success     302
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /auth/{provider}/login [get]
func OAuthLoginHandler(reg oauth.Registry, opts OAuthOptions) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := reg.Get(c.Param("provider"))
		if !ok {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "unknown provider"})
		}

		state := newState()
		verifier := newVerifier()
		signed, err := signState(opts.StateSecret, state, verifier, p.Name())
		if err != nil {
			slog.Error("sign oauth state failed", "provider", p.Name(), "error", err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to start oauth"})
		}
		c.SetCookie(opts.Cookies.State(signed))
		return c.Redirect(http.StatusFound, p.AuthCodeURL(state, verifier))
	}
}

// OAuthCallbackHandler 驗證 state、交換 code、建立或取得使用者並發行 session
// @Summary     OAuth callback
// @Tags        auth
// @Param       provider path  string true "google 或 github"
// @Param       code     query string true "authorization code"
// @Param       state    query string true "state"
// @Success     302
// @Failure     404 {object} api.ErrorResponse
// @Router      /auth/{provider}/callback [get]
func OAuthCallbackHandler(db database.DB, cch cache.Cache, reg oauth.Registry, opts OAuthOptions) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := reg.Get(c.Param("provider"))
		if !ok {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "unknown provider"})
		}
		// state cookie 只用一次
		c.SetCookie(opts.Cookies.Expire(StateCookie))

		if e := c.QueryParam("error"); e != "" {
			slog.Warn("oauth provider returned error", "provider", p.Name(), "error", e)
			return c.Redirect(http.StatusFound, opts.errorRedirect(errOAuthFailed))
		}

		ck, err := c.Cookie(StateCookie)
		if err != nil || ck.Value == "" {
			return c.Redirect(http.StatusFound, opts.errorRedirect(errInvalidState))
		}
		claims, err := verifyState(opts.StateSecret, ck.Value, p.Name())
		if err != nil || claims.State == "" || claims.State != c.QueryParam("state") {
			slog.Warn("oauth state mismatch", "provider", p.Name(), "error", err)
			return c.Redirect(http.StatusFound, opts.errorRedirect(errInvalidState))
		}

		ctx := c.Request().Context()
		tok, err := p.Exchange(ctx, c.QueryParam("code"), claims.Verifier)
		if err != nil {
			slog.Error("oauth exchange failed", "provider", p.Name(), "error", err)
			return c.Redirect(http.StatusFound, opts.errorRedirect(errOAuthFailed))
		}
		profile, err := p.Profile(ctx, tok)
		if err != nil {
			slog.Error("oauth profile failed", "provider", p.Name(), "error", err)
			return c.Redirect(http.StatusFound, opts.errorRedirect(errOAuthFailed))
		}
		if !profile.EmailVerified {
			slog.Warn("oauth email not verified", "provider", p.Name(), "email", profile.Email)
			return c.Redirect(http.StatusFound, opts.errorRedirect(errOAuthFailed))
		}
		name := profile.Name
		if name == "" {
			name = strings.SplitN(profile.Email, "@", 2)[0]
		}
		u, err := upsertOAuthUser(ctx, db, normalizeEmail(profile.Email), name)
		if err != nil {
			slog.Error("oauth user upsert failed", "provider", p.Name(), "error", err)
			return c.Redirect(http.StatusFound, opts.errorRedirect(errOAuthFailed))
		}
		if err := startSession(c, cch, opts.Cookies, u, p.Name()); err != nil {
			return c.Redirect(http.StatusFound, opts.errorRedirect(errOAuthFailed))
		}

		slog.Info("oauth sign in", "provider", p.Name(), "user_id", u.ID)
		return c.Redirect(http.StatusFound, opts.FrontendURL)
	}
}
