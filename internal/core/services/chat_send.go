package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driven"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driving"
	"github.com/custodia-labs/relay-cli/internal/logger"
)

// Ensure ChatSendService implements the interface.
var _ driving.ChatSender = (*ChatSendService)(nil)

// ChatSendService resolves a recipient to a one-to-one chat and delivers a
// message into it. Resolution favours reusing an existing chat over creating
// a duplicate: the remote service does not enforce a single one-to-one chat
// per counterpart, so the search step here preserves that invariant.
type ChatSendService struct {
	directory driven.ChatDirectory

	// self is the current user's profile, fetched once per session.
	mu   sync.Mutex
	self *domain.UserProfile
}

// NewChatSendService creates the chat send service.
func NewChatSendService(directory driven.ChatDirectory) *ChatSendService {
	return &ChatSendService{directory: directory}
}

// SendToUser delivers body to recipient.
//
// When explicitChatID is set the message is posted directly into that chat.
// Otherwise the service scans the user's chats for one that already contains
// the recipient and posts there; only when none is found does it create a
// new one-to-one chat. A creation rejected for the known member-binding
// payload error is retried exactly once with the alternate payload shape; if
// the retry also fails, the original creation error is returned. The
// fallback re-attempts creation only, so at most one message is ever posted
// per call.
func (s *ChatSendService) SendToUser(ctx context.Context, recipient, body, explicitChatID string) (*domain.MessageReceipt, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body", domain.ErrValidation)
	}

	// Fast path: the caller already picked a chat.
	if explicitChatID != "" {
		return s.directory.PostMessage(ctx, explicitChatID, body)
	}

	if strings.TrimSpace(recipient) == "" {
		return nil, fmt.Errorf("%w: recipient", domain.ErrValidation)
	}

	// Creation payloads name both participants explicitly, so the current
	// user's own id must be known before any non-fast-path send.
	self, err := s.ensureSelf(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve own profile: %w", err)
	}

	if chatID, found := s.findExistingChat(ctx, recipient); found {
		logger.Debug("chat send: reusing existing chat %s", chatID)
		return s.directory.PostMessage(ctx, chatID, body)
	}

	logger.Debug("chat send: no existing chat with %s, creating one", recipient)
	chat, err := s.createChat(ctx, self.ID, recipient)
	if err != nil {
		return nil, err
	}

	return s.directory.PostMessage(ctx, chat.ID, body)
}

// findExistingChat scans the user's chats for one whose membership includes
// the target, matching on user id or (case-insensitively) email. The scan is
// best-effort and sequential: a failed membership lookup skips that chat and
// the scan continues; a failed listing aborts the scan and reports no match.
// Either way the caller falls through to chat creation.
func (s *ChatSendService) findExistingChat(ctx context.Context, target string) (string, bool) {
	chatList, err := s.directory.ListChats(ctx)
	if err != nil {
		logger.Warn("chat send: listing chats failed, treating as no match: %v", err)
		return "", false
	}

	for _, chat := range chatList {
		members, err := s.directory.ListMembers(ctx, chat.ID)
		if err != nil {
			logger.Debug("chat send: membership lookup for chat %s failed, skipping: %v", chat.ID, err)
			continue
		}

		match := lo.SomeBy(members, func(m domain.ChatMember) bool {
			if m.UserID != "" && m.UserID == target {
				return true
			}
			return m.Email != "" && strings.EqualFold(m.Email, target)
		})
		if match {
			return chat.ID, true
		}
	}

	return "", false
}

// createChat creates a one-to-one chat with the recipient, retrying once
// with the raw-identifier payload when the service rejects the member
// binding. Any other failure propagates immediately.
func (s *ChatSendService) createChat(ctx context.Context, selfID, recipient string) (*domain.ChatInfo, error) {
	chat, err := s.directory.CreateOneOnOneChat(ctx, domain.ChatCreateRequest{
		SelfID:      selfID,
		RecipientID: recipient,
	})
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, domain.ErrMemberShape) {
		return nil, err
	}

	logger.Debug("chat send: member binding rejected, retrying with raw identifier")
	chat, altErr := s.directory.CreateOneOnOneChat(ctx, domain.ChatCreateRequest{
		SelfID:        selfID,
		RecipientID:   recipient,
		RawIdentifier: true,
	})
	if altErr != nil {
		// The fallback is a best-effort recovery; report the original error.
		logger.Debug("chat send: fallback creation also failed: %v", altErr)
		return nil, err
	}
	return chat, nil
}

// AllChats lists the user's chats with participant detail. Membership
// lookups are per-chat best-effort: a chat whose members cannot be fetched
// is still listed, with no participants. Chats without a topic get a short
// placeholder derived from the chat id.
func (s *ChatSendService) AllChats(ctx context.Context) ([]domain.ChatInfo, error) {
	chatList, err := s.directory.ListChats(ctx)
	if err != nil {
		// A failed listing is an error here, not an empty list; sign-in
		// problems must reach the caller. Only the send path's search step
		// masks a listing failure as "no match".
		logger.Warn("chat list: listing chats failed: %v", err)
		return nil, err
	}

	detailed := make([]domain.ChatInfo, 0, len(chatList))
	for _, chat := range chatList {
		if chat.Topic == "" {
			chat.Topic = placeholderTopic(chat.ID)
		}

		members, err := s.directory.ListMembers(ctx, chat.ID)
		if err != nil {
			logger.Debug("chat list: membership lookup for chat %s failed: %v", chat.ID, err)
			detailed = append(detailed, chat)
			continue
		}

		chat.Participants = lo.Map(members, func(m domain.ChatMember, _ int) domain.Participant {
			name := m.DisplayName
			if name == "" {
				name = "Unknown"
			}
			return domain.Participant{
				UserID:      m.UserID,
				DisplayName: name,
				Email:       m.Email,
			}
		})
		detailed = append(detailed, chat)
	}

	return detailed, nil
}

// ensureSelf fetches the current user's profile the first time it is needed
// and caches it for the rest of the session.
func (s *ChatSendService) ensureSelf(ctx context.Context) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.self != nil {
		return s.self, nil
	}

	profile, err := s.directory.Profile(ctx)
	if err != nil {
		return nil, err
	}
	s.self = profile
	return profile, nil
}

// placeholderTopic labels a topicless chat with a stable id-derived name.
func placeholderTopic(chatID string) string {
	const prefixLen = 8
	if len(chatID) <= prefixLen {
		return "Chat " + chatID
	}
	return "Chat " + chatID[:prefixLen] + "..."
}
