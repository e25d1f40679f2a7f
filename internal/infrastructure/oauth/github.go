// Package oauth implements federated sign-in providers.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

const defaultAPIBase = "https://api.github.com"

// ErrExchange is returned when the provider rejects the authorization code
// or the profile cannot be read.
var ErrExchange = errors.New("oauth exchange failed")

// GitHubConfig holds the OAuth application credentials.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	// APIBase overrides https://api.github.com, mainly for tests.
	APIBase string
	// Endpoint overrides the GitHub OAuth endpoint, mainly for tests.
	Endpoint *oauth2.Endpoint
}

// Enabled reports whether both credentials are configured.
func (c GitHubConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// GitHub signs users in with their GitHub account.
type GitHub struct {
	conf    *oauth2.Config
	apiBase string
}

// NewGitHub returns a GitHub provider requesting the user:email scope.
func NewGitHub(cfg GitHubConfig) *GitHub {
	endpoint := github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &GitHub{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     endpoint,
			Scopes:       []string{"user:email"},
		},
		apiBase: apiBase,
	}
}

// Name is the provider key stored on federated users.
func (g *GitHub) Name() string { return domain.ProviderGitHub }

// AuthCodeURL returns the consent page URL carrying state.
func (g *GitHub) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange trades the authorization code for a token and reads the profile.
// When the public profile hides the email, the primary verified address is
// taken from /user/emails.
func (g *GitHub) Exchange(ctx context.Context, code string) (domain.FederatedProfile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return domain.FederatedProfile{}, fmt.Errorf("%w: %w", ErrExchange, err)
	}
	client := g.conf.Client(ctx, tok)

	var u githubUser
	if err := g.getJSON(ctx, client, "/user", &u); err != nil {
		return domain.FederatedProfile{}, err
	}
	if u.ID == 0 {
		return domain.FederatedProfile{}, fmt.Errorf("%w: profile without id", ErrExchange)
	}

	email := u.Email
	if email == "" {
		var emails []githubEmail
		if err := g.getJSON(ctx, client, "/user/emails", &emails); err != nil {
			return domain.FederatedProfile{}, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}

	return domain.FederatedProfile{
		Provider: domain.ProviderGitHub,
		ID:       strconv.FormatInt(u.ID, 10),
		Username: u.Login,
		Email:    email,
	}, nil
}

func (g *GitHub) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExchange, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrExchange, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: status %d", ErrExchange, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrExchange, path, err)
	}
	return nil
}
