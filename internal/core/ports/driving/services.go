// Package driving defines the service interfaces consumed by the driving
// adapters (CLI commands and the HTTP gateway).
package driving

import (
	"context"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

// ChatSender resolves a recipient to a chat and delivers a message into it.
type ChatSender interface {
	// SendToUser delivers body to recipient. When explicitChatID is set the
	// resolution step is skipped and the message is posted directly.
	SendToUser(ctx context.Context, recipient, body, explicitChatID string) (*domain.MessageReceipt, error)

	// AllChats lists the user's chats with participant detail for selection.
	AllChats(ctx context.Context) ([]domain.ChatInfo, error)
}

// SMSSender delivers text messages through the outbound gateway.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (sid string, err error)
	SendBulk(ctx context.Context, recipients []string, body string) []domain.BulkSMSResult
}

// SessionService is the credential/session bootstrap surface.
type SessionService interface {
	// ActiveCredential returns a cached, unexpired credential for the current
	// session, refreshing silently when possible. It returns nil (with no
	// error) when the user must sign in interactively.
	ActiveCredential(ctx context.Context) (*domain.Credential, error)
	SignIn(ctx context.Context) (*domain.Credential, error)
	SignOut(ctx context.Context) error
	// FlowName reports which sign-in flow the environment probe selected.
	FlowName() string
}
