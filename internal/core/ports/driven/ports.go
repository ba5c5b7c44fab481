// Package driven defines the interfaces the core depends on, implemented by
// the driven adapters (remote services, storage, auth flows).
package driven

import (
	"context"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

// TokenProvider yields a valid access token for outbound API calls.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// ChatDirectory is the narrow contract the chat-resolution workflow needs
// from the remote messaging service.
type ChatDirectory interface {
	// Profile fetches the current user's directory profile.
	Profile(ctx context.Context) (*domain.UserProfile, error)

	// ListChats lists the chats visible to the current user, without
	// membership detail. Ordering is whatever the service returns.
	ListChats(ctx context.Context) ([]domain.ChatInfo, error)

	// ListMembers fetches the membership of a single chat.
	ListMembers(ctx context.Context, chatID string) ([]domain.ChatMember, error)

	// CreateOneOnOneChat creates a chat with exactly the two members named in
	// the request. A member-binding rejection is reported wrapped in
	// domain.ErrMemberShape.
	CreateOneOnOneChat(ctx context.Context, req domain.ChatCreateRequest) (*domain.ChatInfo, error)

	// PostMessage posts a message body into an existing chat.
	PostMessage(ctx context.Context, chatID, content string) (*domain.MessageReceipt, error)
}

// SMSGateway sends a text message and returns the gateway's delivery id.
type SMSGateway interface {
	Send(ctx context.Context, to, body string) (sid string, err error)
}

// CredentialStore persists the session credential in a dedicated namespaced
// store owned by the session bootstrap.
type CredentialStore interface {
	// Load returns the stored credential, or nil when none is stored.
	Load(ctx context.Context) (*domain.Credential, error)
	Save(ctx context.Context, cred *domain.Credential) error
	// Clear removes the stored credential. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error

	// AcquireInteractionLock marks an interactive sign-in as in progress.
	// It fails with domain.ErrInteractionInProgress when one already is.
	AcquireInteractionLock(ctx context.Context) error
	ReleaseInteractionLock(ctx context.Context) error
}

// AuthFlow runs one interactive sign-in and yields the resulting credential.
// Which concrete flow backs it is decided once at startup by the environment
// probe; callers never branch on the flow that produced a credential.
type AuthFlow interface {
	SignIn(ctx context.Context) (*domain.Credential, error)
	// Refresh exchanges a refresh token for a fresh credential without user
	// interaction.
	Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error)
	// Name identifies the flow for logging only.
	Name() string
}
