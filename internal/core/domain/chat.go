package domain

// UserProfile is the signed-in user's directory profile, fetched once per
// session and immutable afterwards.
type UserProfile struct {
	ID                string
	DisplayName       string
	Mail              string
	UserPrincipalName string
}

// Email returns the user's email address, falling back to the
// userPrincipalName when mail is not set.
func (u *UserProfile) Email() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

// ChatKind identifies the shape of a chat thread.
type ChatKind string

const (
	// ChatOneOnOne is a chat restricted to exactly two participants.
	ChatOneOnOne ChatKind = "oneOnOne"
	// ChatGroup is a multi-participant chat.
	ChatGroup ChatKind = "group"
	// ChatMeeting is a chat attached to a meeting.
	ChatMeeting ChatKind = "meeting"
)

// ChatMember is a participant of a chat as reported by the messaging service.
type ChatMember struct {
	ID          string
	UserID      string
	DisplayName string
	Email       string
	Roles       []string
}

// Participant is the slimmed-down member shape carried on ChatInfo.
type Participant struct {
	UserID      string
	DisplayName string
	Email       string
}

// ChatInfo describes a chat thread visible to the current user. The id is
// assigned by the remote service at creation time; everything here is
// read-only to this application except for posting messages into the chat.
type ChatInfo struct {
	ID           string
	Topic        string
	Kind         ChatKind
	Participants []Participant
}

// ChatCreateRequest names the two members of a new one-to-one chat. Both are
// granted the owner role. RawIdentifier selects the alternate payload shape
// used by the one-shot fallback after a member-binding rejection: the
// recipient identifier is passed through unmodified instead of being bound
// to a directory resource.
type ChatCreateRequest struct {
	SelfID        string
	RecipientID   string
	RawIdentifier bool
}

// MessageReceipt is the delivery confirmation returned by the messaging
// service after a successful post.
type MessageReceipt struct {
	ChatID    string
	MessageID string
	CreatedAt string
}
