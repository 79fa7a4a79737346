package middleware

import (
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"edulearn/internal/cache"
	"edulearn/internal/database"
	"edulearn/internal/metrics"
	"edulearn/internal/ratelimit"
	"edulearn/internal/service"
	"edulearn/internal/store"

	"github.com/labstack/echo/v4"
)

const (
	SessionCookie     = "session"
	ContextSessionKey = "session"
	ContextTokenKey   = "session_token"
)

const msgTooManyRequests = "Too many requests. Please try again later."

var (
	lookupSession = service.LookupSession
	isAdminEmail  = store.IsAdminEmail
)

// LoadSession 解析 session cookie，有效時把身分放進 context；無效則視為匿名
func LoadSession(c cache.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cookie, err := ctx.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(ctx)
			}
			data, err := lookupSession(ctx.Request().Context(), c, cookie.Value)
			switch {
			case err == nil:
				ctx.Set(ContextSessionKey, data)
				ctx.Set(ContextTokenKey, cookie.Value)
			case errors.Is(err, service.ErrSessionNotFound):
			default:
				slog.Warn("session lookup failed", "error", err)
			}
			return next(ctx)
		}
	}
}

// CurrentSession returns nil for anonymous requests.
func CurrentSession(c echo.Context) *service.SessionData {
	data, _ := c.Get(ContextSessionKey).(*service.SessionData)
	return data
}

func SessionToken(c echo.Context) string {
	tok, _ := c.Get(ContextTokenKey).(string)
	return tok
}

func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentSession(c) == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		return next(c)
	}
}

// RequireAdmin 以資料庫中的 is_admin 為準，不信任 session 內的旗標
func RequireAdmin(db database.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireAuth(func(c echo.Context) error {
			sess := CurrentSession(c)
			ok, err := isAdminEmail(c.Request().Context(), db, sess.Email)
			if err != nil {
				slog.Error("admin lookup failed", "email", sess.Email, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to verify admin")
			}
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		})
	}
}

// RateLimit applies a fixed window per client IP.
func RateLimit(l *ratelimit.Limiter, maxRequests int, window time.Duration, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, reset := l.Reserve(c.RealIP(), maxRequests, window)
			if !ok {
				m.Limited()
				m.Chat(metrics.OutcomeRateLimited)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retrySeconds(reset)))
				return echo.NewHTTPError(http.StatusTooManyRequests, msgTooManyRequests)
			}
			return next(c)
		}
	}
}

// ClientIP 決定 c.RealIP() 的來源。沒有可信任的 proxy 時只看連線位址，
// 否則只有來自 trusted 的請求才採用 X-Forwarded-For。
func ClientIP(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func retrySeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
