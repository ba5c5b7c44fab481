package oauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func unsignedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return raw
}

func TestCredentialFromToken_ExtractsIdentityClaims(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	access := unsignedToken(t, jwt.MapClaims{
		"oid":                "account-oid",
		"preferred_username": "alice@contoso.com",
		"name":               "Alice Example",
		"exp":                float64(expiry.Unix()),
	})

	cred := credentialFromToken(&oauth2.Token{
		AccessToken:  access,
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	})

	assert.Equal(t, access, cred.AccessToken)
	assert.Equal(t, "refresh", cred.RefreshToken)
	assert.Equal(t, "Bearer", cred.TokenType)
	assert.Equal(t, "account-oid", cred.AccountID)
	assert.Equal(t, "alice@contoso.com", cred.Username)
	assert.Equal(t, "Alice Example", cred.DisplayName)
	assert.True(t, expiry.Equal(cred.Expiry))
}

func TestCredentialFromToken_FallsBackToUPN(t *testing.T) {
	access := unsignedToken(t, jwt.MapClaims{
		"upn": "alice@contoso.onmicrosoft.com",
	})

	cred := credentialFromToken(&oauth2.Token{AccessToken: access})

	assert.Equal(t, "alice@contoso.onmicrosoft.com", cred.Username)
}

func TestCredentialFromToken_ExpiryFromClaimsWhenMissing(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	access := unsignedToken(t, jwt.MapClaims{
		"exp": float64(exp.Unix()),
	})

	cred := credentialFromToken(&oauth2.Token{AccessToken: access})

	assert.True(t, exp.Equal(cred.Expiry), "the exp claim backfills a missing token expiry")
}

func TestCredentialFromToken_OpaqueTokenStillUsable(t *testing.T) {
	cred := credentialFromToken(&oauth2.Token{
		AccessToken: "not-a-jwt",
		TokenType:   "Bearer",
	})

	assert.Equal(t, "not-a-jwt", cred.AccessToken)
	assert.Empty(t, cred.AccountID)
	assert.Empty(t, cred.Username)
}
