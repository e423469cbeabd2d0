// Package oauth implements the external login providers and the signed
// state parameter of the authorization code flow.
package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/platform/config"
)

// Registry holds the providers activated at startup. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	providers map[string]portssvc.IdentityProvider
}

var _ portssvc.ProviderRegistry = (*Registry)(nil)

// NewRegistry builds a provider for every configured entry. google and github
// are recognised by name; any other entry with an issuer URL is generic OIDC.
func NewRegistry(ctx context.Context, configs map[string]config.OAuthProviderConfig, logger *slog.Logger) (*Registry, error) {
	r := &Registry{providers: make(map[string]portssvc.IdentityProvider, len(configs))}
	for name, cfg := range configs {
		var (
			p   portssvc.IdentityProvider
			err error
		)
		switch {
		case name == "google":
			p = NewGoogleProvider(cfg)
		case name == "github":
			p = NewGitHubProvider(cfg)
		case cfg.IssuerURL != "":
			p, err = NewOIDCProvider(ctx, name, cfg)
		default:
			logger.Warn("Skipping OAuth provider without a known type", slog.String("provider", name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to set up %s provider: %w", name, err)
		}
		r.providers[name] = p
		logger.Info("OAuth provider enabled", slog.String("provider", name))
	}
	return r, nil
}

// NewRegistryFrom builds a registry from ready providers.
func NewRegistryFrom(providers ...portssvc.IdentityProvider) *Registry {
	r := &Registry{providers: make(map[string]portssvc.IdentityProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (portssvc.IdentityProvider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the enabled provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
