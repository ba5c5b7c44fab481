// Package oauth implements the interactive sign-in flows against the
// Microsoft identity platform: an auth-code+PKCE flow through the system
// browser for standalone sessions, and a device-code flow for headless
// sessions. The environment probe picks one flow at startup; both yield the
// same credential shape.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	microsoftoauth "golang.org/x/oauth2/microsoft"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driven"
	"github.com/custodia-labs/relay-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.AuthFlow = (*Client)(nil)

// DefaultScopes are the delegated permissions the client asks for.
// offline_access is required for refresh tokens.
var DefaultScopes = []string{
	"openid",
	"profile",
	"offline_access",
	"User.Read",
	"Chat.ReadWrite",
	"ChatMessage.Send",
}

// defaultRedirectPort is the loopback port the browser flow listens on. It
// must match the redirect URI registered on the app registration.
const defaultRedirectPort = 53682

// Config holds the app-registration settings for token acquisition.
type Config struct {
	ClientID string
	// TenantID is the directory tenant; empty means the "common" multi-tenant
	// endpoint.
	TenantID string
	Scopes   []string
	// RedirectPort overrides the loopback port for the browser flow.
	RedirectPort int
}

// Client runs the sign-in flow selected by the environment probe.
type Client struct {
	cfg  Config
	mode Mode

	// openURL launches the system browser; prompt shows the device-code
	// instructions. Both are replaceable in tests.
	openURL func(url string) error
	prompt  func(message string)
}

// NewClient creates a sign-in client for the given mode.
func NewClient(cfg Config, mode Mode) *Client {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.RedirectPort == 0 {
		cfg.RedirectPort = defaultRedirectPort
	}
	return &Client{
		cfg:     cfg,
		mode:    mode,
		openURL: openBrowser,
		prompt: func(message string) {
			fmt.Fprintln(os.Stderr, message)
		},
	}
}

// Name identifies the selected flow for logging.
func (c *Client) Name() string {
	return string(c.mode)
}

// SignIn runs one interactive sign-in and yields the resulting credential.
func (c *Client) SignIn(ctx context.Context) (*domain.Credential, error) {
	switch c.mode {
	case ModeDevice:
		return c.signInDevice(ctx)
	default:
		return c.signInBrowser(ctx)
	}
}

// Refresh exchanges a refresh token for a fresh credential without user
// interaction.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	cfg := c.oauthConfig("")
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	cred := credentialFromToken(tok)
	// The issuer may rotate the refresh token; keep the old one otherwise.
	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	return cred, nil
}

// signInBrowser runs the auth-code+PKCE flow through the system browser with
// a loopback redirect.
func (c *Client) signInBrowser(ctx context.Context) (*domain.Credential, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	callback, err := startCallbackServer(c.cfg.RedirectPort, state)
	if err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}
	defer callback.close()

	cfg := c.oauthConfig(callback.redirectURI())
	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	logger.Debug("oauth: opening browser for interactive sign-in")
	if err := c.openURL(authURL); err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}

	select {
	case result := <-callback.results:
		if result.err != nil {
			return nil, result.err
		}
		tok, err := cfg.Exchange(ctx, result.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		return credentialFromToken(tok), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrUserCancelled, ctx.Err())
	}
}

// signInDevice runs the device-code flow: the user visits a verification URL
// on any device and enters a short code while this process polls for the
// token.
func (c *Client) signInDevice(ctx context.Context) (*domain.Credential, error) {
	cfg := c.oauthConfig("")

	da, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("request device code: %w", err)
	}

	c.prompt(deviceCodeMessage(da))

	tok, err := cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		if isDeclined(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUserCancelled, err)
		}
		return nil, fmt.Errorf("device code exchange: %w", err)
	}
	return credentialFromToken(tok), nil
}

// oauthConfig builds the x/oauth2 config for the configured tenant.
func (c *Client) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    c.cfg.ClientID,
		Endpoint:    microsoftoauth.AzureADEndpoint(c.cfg.TenantID),
		Scopes:      c.cfg.Scopes,
		RedirectURL: redirectURL,
	}
}

// deviceCodeMessage formats the instructions shown to the user.
func deviceCodeMessage(da *oauth2.DeviceAuthResponse) string {
	if da.VerificationURIComplete != "" {
		return fmt.Sprintf("To sign in, go to %s", da.VerificationURIComplete)
	}
	return fmt.Sprintf("To sign in, go to %s and enter the code %s", da.VerificationURI, da.UserCode)
}

// isDeclined reports whether a device-code exchange failed because the user
// declined or let the code expire.
func isDeclined(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		code := retrieveErr.ErrorCode
		return code == "authorization_declined" || code == "expired_token"
	}
	return strings.Contains(err.Error(), "authorization_declined")
}
