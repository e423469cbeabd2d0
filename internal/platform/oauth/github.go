package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/SscSPs/referral_vault/internal/platform/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBase = "https://api.github.com"

// GitHubProvider logs users in with GitHub. GitHub issues no ID token, so
// the profile comes from the REST API.
type GitHubProvider struct {
	oauth2Config *oauth2.Config
	apiBase      string
}

func NewGitHubProvider(cfg config.OAuthProviderConfig) *GitHubProvider {
	return &GitHubProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     github.Endpoint,
		},
		apiBase: githubAPIBase,
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (domain.ProviderProfile, domain.ProviderTokens, error) {
	tok, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, fmt.Errorf("failed to exchange oauth code for token: %w", err)
	}
	profile, err := p.fetchProfile(ctx, p.oauth2Config.Client(ctx, tok))
	if err != nil {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, err
	}
	return profile, toProviderTokens(tok), nil
}

func (p *GitHubProvider) fetchProfile(ctx context.Context, client *http.Client) (domain.ProviderProfile, error) {
	var user githubUser
	if err := p.getJSON(ctx, client, "/user", &user); err != nil {
		return domain.ProviderProfile{}, err
	}
	var emails []githubEmail
	if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return domain.ProviderProfile{}, err
	}

	profile := domain.ProviderProfile{
		DisplayName: user.Name,
		AvatarURL:   user.AvatarURL,
		Raw: map[string]any{
			"id":    user.ID,
			"login": user.Login,
			"name":  user.Name,
		},
	}
	if user.ID != 0 {
		profile.ProviderAccountID = strconv.FormatInt(user.ID, 10)
	}
	if profile.DisplayName == "" {
		profile.DisplayName = user.Login
	}
	if first, last, ok := strings.Cut(strings.TrimSpace(user.Name), " "); ok {
		profile.FirstName, profile.LastName = first, strings.TrimSpace(last)
	} else {
		profile.FirstName = first
	}

	// Prefer the primary address; only GitHub's verified flag counts.
	for _, e := range emails {
		if e.Primary {
			profile.Email, profile.EmailVerified = e.Email, e.Verified
			break
		}
	}
	if profile.Email == "" {
		profile.Email = user.Email
	}
	return profile, nil
}

func (p *GitHubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call github %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned non-200 status for %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github %s response: %w", path, err)
	}
	return nil
}
