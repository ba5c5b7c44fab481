package oauth

import (
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

// credentialFromToken converts an issued token into the domain credential,
// pulling the owning account's identity out of the access token claims. The
// claims are read without signature verification: the token was just handed
// to us by the issuer over TLS and is only inspected, never trusted for
// authorisation decisions.
func credentialFromToken(tok *oauth2.Token) *domain.Credential {
	cred := &domain.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err != nil {
		return cred
	}

	if oid, ok := claims["oid"].(string); ok {
		cred.AccountID = oid
	}
	if name, ok := claims["name"].(string); ok {
		cred.DisplayName = name
	}
	if name, ok := claims["preferred_username"].(string); ok && name != "" {
		cred.Username = name
	} else if upn, ok := claims["upn"].(string); ok {
		cred.Username = upn
	}
	if cred.Expiry.IsZero() {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			cred.Expiry = exp.Time
		}
	}

	return cred
}
