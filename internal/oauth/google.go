package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleAPIURL = "https://www.googleapis.com"

type Google struct {
	config *oauth2.Config
	apiURL string
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func NewGoogle(cfg Config) *Google {
	api := cfg.APIURL
	if api == "" {
		api = googleAPIURL
	}
	return &Google{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoint(google.Endpoint, cfg),
		},
		apiURL: api,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state, verifier string) string {
	return g.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (g *Google) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := g.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return tok, nil
}

func (g *Google) Profile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	var info googleUserInfo
	if err := getJSON(ctx, g.config, tok, g.apiURL+"/oauth2/v2/userinfo", &info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, ErrNoEmail
	}
	name := info.Name
	if name == "" {
		name = info.Email
	}
	return &Profile{Email: info.Email, EmailVerified: info.VerifiedEmail, Name: name, ProviderID: info.ID}, nil
}
