package oauth

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIURL = "https://api.github.com"

type GitHub struct {
	config *oauth2.Config
	apiURL string
}

type githubUserInfo struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Login string `json:"login"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func NewGitHub(cfg Config) *GitHub {
	api := cfg.APIURL
	if api == "" {
		api = githubAPIURL
	}
	return &GitHub{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint(github.Endpoint, cfg),
		},
		apiURL: api,
	}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) AuthCodeURL(state, verifier string) string {
	return g.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (g *GitHub) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := g.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return tok, nil
}

// Profile reads /user and falls back to the verified primary address from
// /user/emails when the public email is hidden. GitHub only lets verified
// addresses be public.
func (g *GitHub) Profile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	var info githubUserInfo
	if err := getJSON(ctx, g.config, tok, g.apiURL+"/user", &info); err != nil {
		return nil, err
	}
	email := info.Email
	if email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, g.config, tok, g.apiURL+"/user/emails", &emails); err != nil {
			return nil, err
		}
		email = primaryEmail(emails)
	}
	if email == "" {
		return nil, ErrNoEmail
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return &Profile{Email: email, EmailVerified: true, Name: name, ProviderID: strconv.Itoa(info.ID)}, nil
}

// primaryEmail 只接受已驗證的主要信箱
func primaryEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}
