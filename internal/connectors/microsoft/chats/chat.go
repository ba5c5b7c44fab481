package chats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/relay-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

// aadMemberType is the OData type of a member bound to a directory user.
const aadMemberType = "#microsoft.graph.aadUserConversationMember"

// chatResource is a chat from Microsoft Graph.
type chatResource struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	ChatType string `json:"chatType"`
}

func (c chatResource) toDomain() domain.ChatInfo {
	return domain.ChatInfo{
		ID:    c.ID,
		Topic: c.Topic,
		Kind:  chatKind(c.ChatType),
	}
}

// chatKind maps a Graph chatType onto the domain chat kinds.
func chatKind(chatType string) domain.ChatKind {
	switch chatType {
	case "oneOnOne":
		return domain.ChatOneOnOne
	case "group":
		return domain.ChatGroup
	case "meeting":
		return domain.ChatMeeting
	default:
		return domain.ChatKind(chatType)
	}
}

// memberResource is a conversation member from Microsoft Graph.
type memberResource struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	DisplayName string   `json:"displayName"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
}

func (m memberResource) toDomain() domain.ChatMember {
	return domain.ChatMember{
		ID:          m.ID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		Roles:       m.Roles,
	}
}

// conversationMember is the member shape sent in a chat-creation payload.
// Exactly one of UserBind or UserID is set: UserBind references a directory
// user resource, UserID passes the identifier through for Graph to resolve.
type conversationMember struct {
	ODataType string   `json:"@odata.type"`
	Roles     []string `json:"roles"`
	UserBind  string   `json:"user@odata.bind,omitempty"`
	UserID    string   `json:"userId,omitempty"`
}

// chatCreatePayload is the wire shape of a chat-creation request.
type chatCreatePayload struct {
	ChatType string               `json:"chatType"`
	Members  []conversationMember `json:"members"`
}

// newChatPayload builds a one-to-one chat-creation payload naming exactly the
// current user and the recipient, both with the owner role.
func newChatPayload(req domain.ChatCreateRequest, baseURL string) chatCreatePayload {
	if req.RawIdentifier {
		// Fallback shape: the recipient identifier goes through unmodified.
		return chatCreatePayload{
			ChatType: "oneOnOne",
			Members: []conversationMember{
				{ODataType: aadMemberType, Roles: ownerRole, UserID: req.SelfID},
				{ODataType: aadMemberType, Roles: ownerRole, UserID: req.RecipientID},
			},
		}
	}

	return chatCreatePayload{
		ChatType: "oneOnOne",
		Members: []conversationMember{
			{ODataType: aadMemberType, Roles: ownerRole, UserBind: userBind(baseURL, req.SelfID)},
			{ODataType: aadMemberType, Roles: ownerRole, UserBind: userBind(baseURL, req.RecipientID)},
		},
	}
}

// userBind builds the OData binding reference for a directory user.
func userBind(baseURL, id string) string {
	return fmt.Sprintf("%s/users('%s')", baseURL, id)
}

// isMemberShapeRejection classifies a chat-creation rejection as the known
// member-binding payload error. The classification keys on the structured
// error code first and falls back to the message substrings Graph is known
// to emit. The substring match is a fragile vendor-format heuristic, kept
// because Graph does not always return a distinct code for this rejection.
func isMemberShapeRejection(ge *microsoft.GraphError) bool {
	if ge.StatusCode != 400 {
		return false
	}
	if ge.Code == "InvalidConversationMember" {
		return true
	}
	return strings.Contains(ge.Message, "user@odata.bind") ||
		strings.Contains(ge.Message, "'userId' field is missing")
}

// graphErrorFrom extracts the GraphError from an error chain, if any.
func graphErrorFrom(err error) *microsoft.GraphError {
	var ge *microsoft.GraphError
	if errors.As(err, &ge) {
		return ge
	}
	return nil
}
