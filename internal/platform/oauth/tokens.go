package oauth

import (
	"github.com/SscSPs/referral_vault/internal/core/domain"
	"golang.org/x/oauth2"
)

func toProviderTokens(tok *oauth2.Token) domain.ProviderTokens {
	pt := domain.ProviderTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		pt.Expiry = &expiry
	}
	return pt
}

func claimString(claims map[string]any, key string) string {
	v, _ := claims[key].(string)
	return v
}

// claimBool accepts both JSON booleans and the "true"/"false" strings some
// issuers send for email_verified.
func claimBool(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// profileFromClaims maps standard OIDC claims onto a provider profile.
func profileFromClaims(claims map[string]any) domain.ProviderProfile {
	return domain.ProviderProfile{
		ProviderAccountID: claimString(claims, "sub"),
		Email:             claimString(claims, "email"),
		EmailVerified:     claimBool(claims, "email_verified"),
		FirstName:         claimString(claims, "given_name"),
		LastName:          claimString(claims, "family_name"),
		DisplayName:       claimString(claims, "name"),
		AvatarURL:         claimString(claims, "picture"),
		Raw:               claims,
	}
}
