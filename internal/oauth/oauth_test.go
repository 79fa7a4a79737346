package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider serves a token endpoint and the profile APIs.
func fakeProvider(t *testing.T, user map[string]any, emails []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good" || r.Form.Get("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer"}`))
	})
	profile := func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	}
	mux.HandleFunc("/oauth2/v2/userinfo", profile)
	mux.HandleFunc("/user", profile)
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(emails)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func cfgFor(srv *httptest.Server) Config {
	return Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/auth/x/callback",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		APIURL:       srv.URL,
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Config{ClientID: "g"}, Config{})
	_, ok := r.Get("google")
	require.True(t, ok)
	_, ok = r.Get("github")
	require.False(t, ok)

	r = NewRegistry(Config{}, Config{ClientID: "h"})
	p, ok := r.Get("github")
	require.True(t, ok)
	require.Equal(t, "github", p.Name())
}

func TestAuthCodeURLCarriesPKCE(t *testing.T) {
	srv := fakeProvider(t, nil, nil)
	verifier := NewVerifier()
	for _, p := range []Provider{NewGoogle(cfgFor(srv)), NewGitHub(cfgFor(srv))} {
		u, err := url.Parse(p.AuthCodeURL("st", verifier))
		require.NoError(t, err)
		q := u.Query()
		require.Equal(t, "st", q.Get("state"))
		require.Equal(t, "S256", q.Get("code_challenge_method"))
		require.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))
		require.Equal(t, "cid", q.Get("client_id"))
	}
}

func TestGoogleFlow(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"id": "g-1", "email": "a@example.com", "verified_email": true, "name": "Ann"}, nil)
	g := NewGoogle(cfgFor(srv))
	ctx := context.Background()

	_, err := g.Exchange(ctx, "bad", "v")
	require.Error(t, err)

	tok, err := g.Exchange(ctx, "good", "v")
	require.NoError(t, err)
	p, err := g.Profile(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, &Profile{Email: "a@example.com", EmailVerified: true, Name: "Ann", ProviderID: "g-1"}, p)

	_, err = g.Profile(ctx, &oauth2.Token{AccessToken: "wrong"})
	require.Error(t, err)
}

func TestGoogleNoEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"id": "g-1"}, nil)
	g := NewGoogle(cfgFor(srv))
	_, err := g.Profile(context.Background(), &oauth2.Token{AccessToken: "at"})
	require.ErrorIs(t, err, ErrNoEmail)
}

func TestGitHubEmailFallback(t *testing.T) {
	srv := fakeProvider(t,
		map[string]any{"id": 7, "login": "octo", "email": ""},
		[]map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "main@example.com", "primary": true, "verified": true},
		})
	g := NewGitHub(cfgFor(srv))
	tok, err := g.Exchange(context.Background(), "good", "v")
	require.NoError(t, err)
	p, err := g.Profile(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, "main@example.com", p.Email)
	require.True(t, p.EmailVerified)
	require.Equal(t, "octo", p.Name)
	require.Equal(t, "7", p.ProviderID)
}

func TestGitHubNoEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"id": 7, "login": "octo"}, []map[string]any{})
	_, err := NewGitHub(cfgFor(srv)).Profile(context.Background(), &oauth2.Token{AccessToken: "at"})
	require.ErrorIs(t, err, ErrNoEmail)
}

func TestGoogleUnverifiedEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"id": "g-2", "email": "admin@edulearn.dev", "verified_email": false}, nil)
	p, err := NewGoogle(cfgFor(srv)).Profile(context.Background(), &oauth2.Token{AccessToken: "at"})
	require.NoError(t, err)
	require.False(t, p.EmailVerified)
}

func TestGitHubUnverifiedPrimaryRejected(t *testing.T) {
	srv := fakeProvider(t,
		map[string]any{"id": 7, "login": "mallory", "email": ""},
		[]map[string]any{
			{"email": "admin@edulearn.dev", "primary": true, "verified": false},
			{"email": "other@example.com", "primary": false, "verified": true},
		})
	p, err := NewGitHub(cfgFor(srv)).Profile(context.Background(), &oauth2.Token{AccessToken: "at"})
	require.ErrorIs(t, err, ErrNoEmail)
	require.Nil(t, p)
}

func TestPrimaryEmail(t *testing.T) {
	require.Equal(t, "", primaryEmail(nil))
	require.Equal(t, "", primaryEmail([]githubEmail{{Email: "a", Verified: true}}))
	require.Equal(t, "", primaryEmail([]githubEmail{{Email: "a"}, {Email: "b", Primary: true}}))
	require.Equal(t, "b", primaryEmail([]githubEmail{{Email: "a", Verified: true}, {Email: "b", Primary: true, Verified: true}}))
}
