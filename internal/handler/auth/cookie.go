// Package auth serves sign-up, sign-in, sessions and the OAuth callbacks.
package auth

import (
	"net/http"
	"time"

	"edulearn/internal/middleware"
	"edulearn/internal/service"
)

const StateCookie = "oauth_state"

// Cookies 決定 session 與 oauth_state cookie 的屬性
type Cookies struct {
	Secure bool
	TTL    time.Duration
}

func (cc Cookies) build(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (cc Cookies) Session(token string) *http.Cookie {
	return cc.build(middleware.SessionCookie, token, int(cc.TTL.Seconds()))
}

func (cc Cookies) State(value string) *http.Cookie {
	return cc.build(StateCookie, value, int(service.StateTTL.Seconds()))
}

// Expire 回傳立即失效的 cookie
func (cc Cookies) Expire(name string) *http.Cookie {
	c := cc.build(name, "", -1)
	c.Expires = time.Unix(0, 0)
	return c
}
