package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/utils"
)

const (
	stateAudience = "oauth_state"
	stateIssuer   = "referral_vault"
	stateTTL      = 10 * time.Minute
)

// StateSigner issues the OAuth state parameter as a short lived HS256 JWT
// bound to the provider name.
type StateSigner struct {
	secret string
	ttl    time.Duration
}

var _ portssvc.OAuthStateSvc = (*StateSigner)(nil)

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: secret, ttl: stateTTL}
}

func (s *StateSigner) IssueState(provider string) (string, error) {
	state, err := utils.GenerateJWT(provider, stateAudience, s.secret, s.ttl, stateIssuer)
	if err != nil {
		return "", fmt.Errorf("failed to sign oauth state: %w", err)
	}
	return state, nil
}

// VerifyState rejects states that are expired, forged or minted for another provider.
func (s *StateSigner) VerifyState(state, provider string) error {
	if state == "" {
		return apperrors.NewAppError(400, "missing oauth state", apperrors.ErrInvalidToken)
	}
	claims, err := utils.ParseAndValidateJWT(state, s.secret, stateAudience)
	if err != nil {
		return apperrors.NewAppError(400, "invalid oauth state", errors.Join(apperrors.ErrInvalidToken, err))
	}
	if claims.Subject != provider {
		return apperrors.NewAppError(400, "oauth state was issued for another provider", apperrors.ErrInvalidToken)
	}
	return nil
}
