package domain

import (
	"fmt"
	"time"
)

// expirySkew is subtracted from the token expiry when checking validity so a
// token that is about to expire mid-request is treated as already expired.
const expirySkew = 2 * time.Minute

// Credential is a bearer token for the signed-in Microsoft 365 account.
// It is produced by the session bootstrap and read-only everywhere else;
// a stale credential is replaced by refresh or re-authentication, never
// mutated in place.
type Credential struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	// AccountID is the directory object id of the owning account, extracted
	// from the token claims when available.
	AccountID string
	// Username is the human-readable account name (usually the UPN).
	Username string
	// DisplayName is the account's full name from the token claims, when
	// present.
	DisplayName string
}

// Valid reports whether the credential can still be presented to the remote
// service. A zero expiry means the issuer did not report one; the token is
// assumed usable until the service rejects it.
func (c *Credential) Valid() bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(expirySkew).Before(c.Expiry)
}

// Signature returns the Teams signature suffix appended to outbound SMS when
// the sender asks for one. The account's display name falls back to the
// username when the token carried no name claim.
func (c *Credential) Signature() string {
	name := c.DisplayName
	if name == "" {
		name = c.Username
	}
	return fmt.Sprintf("\n\nSent from MS Teams: %s & %s", name, c.Username)
}
