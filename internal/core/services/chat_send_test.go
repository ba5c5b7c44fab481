package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

// fakeDirectory is a scripted ChatDirectory that records every call.
type fakeDirectory struct {
	profile    *domain.UserProfile
	profileErr error

	chats     []domain.ChatInfo
	listErr   error
	members   map[string][]domain.ChatMember
	memberErr map[string]error

	createFn func(req domain.ChatCreateRequest) (*domain.ChatInfo, error)
	postErr  error

	listCalls    int
	memberCalls  []string
	createCalls  []domain.ChatCreateRequest
	postedChats  []string
	postedBodies []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		profile:   &domain.UserProfile{ID: "me-id", DisplayName: "Me", Mail: "me@contoso.com"},
		members:   map[string][]domain.ChatMember{},
		memberErr: map[string]error{},
	}
}

func (f *fakeDirectory) Profile(context.Context) (*domain.UserProfile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeDirectory) ListChats(context.Context) ([]domain.ChatInfo, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.chats, nil
}

func (f *fakeDirectory) ListMembers(_ context.Context, chatID string) ([]domain.ChatMember, error) {
	f.memberCalls = append(f.memberCalls, chatID)
	if err := f.memberErr[chatID]; err != nil {
		return nil, err
	}
	return f.members[chatID], nil
}

func (f *fakeDirectory) CreateOneOnOneChat(_ context.Context, req domain.ChatCreateRequest) (*domain.ChatInfo, error) {
	f.createCalls = append(f.createCalls, req)
	if f.createFn != nil {
		return f.createFn(req)
	}
	return &domain.ChatInfo{ID: "new-chat", Kind: domain.ChatOneOnOne}, nil
}

func (f *fakeDirectory) PostMessage(_ context.Context, chatID, content string) (*domain.MessageReceipt, error) {
	if f.postErr != nil {
		return nil, f.postErr
	}
	f.postedChats = append(f.postedChats, chatID)
	f.postedBodies = append(f.postedBodies, content)
	return &domain.MessageReceipt{ChatID: chatID, MessageID: "m1"}, nil
}

func TestSendToUser_ReusesExistingChat(t *testing.T) {
	dir := newFakeDirectory()
	dir.chats = []domain.ChatInfo{{ID: "c2", Kind: domain.ChatOneOnOne}}
	dir.members["c2"] = []domain.ChatMember{
		{UserID: "me-id", Email: "me@contoso.com"},
		{UserID: "bob-id", Email: "bob@contoso.com"},
	}

	svc := NewChatSendService(dir)
	receipt, err := svc.SendToUser(context.Background(), "bob@contoso.com", "hello", "")

	require.NoError(t, err)
	assert.Equal(t, "c2", receipt.ChatID)
	assert.Empty(t, dir.createCalls, "no chat may be created when one already exists")
	assert.Equal(t, []string{"c2"}, dir.postedChats)
}

func TestSendToUser_MatchesOnUserID(t *testing.T) {
	dir := newFakeDirectory()
	dir.chats = []domain.ChatInfo{{ID: "c1"}}
	dir.members["c1"] = []domain.ChatMember{{UserID: "bob-id"}}

	svc := NewChatSendService(dir)
	receipt, err := svc.SendToUser(context.Background(), "bob-id", "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "c1", receipt.ChatID)
	assert.Empty(t, dir.createCalls)
}

func TestSendToUser_EmailMatchIsCaseInsensitive(t *testing.T) {
	dir := newFakeDirectory()
	dir.chats = []domain.ChatInfo{{ID: "c1"}}
	dir.members["c1"] = []domain.ChatMember{{UserID: "bob-id", Email: "Bob@Contoso.com"}}

	svc := NewChatSendService(dir)
	receipt, err := svc.SendToUser(context.Background(), "bob@contoso.com", "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "c1", receipt.ChatID)
}

func TestSendToUser_CreatesChatWhenNoneExists(t *testing.T) {
	dir := newFakeDirectory()
	dir.createFn = func(req domain.ChatCreateRequest) (*domain.ChatInfo, error) {
		return &domain.ChatInfo{ID: "c1", Kind: domain.ChatOneOnOne}, nil
	}

	svc := NewChatSendService(dir)
	receipt, err := svc.SendToUser(context.Background(), "alice@contoso.com", "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "c1", receipt.ChatID)
	assert.Equal(t, "m1", receipt.MessageID)

	require.Len(t, dir.createCalls, 1)
	assert.Equal(t, "me-id", dir.createCalls[0].SelfID)
	assert.Equal(t, "alice@contoso.com", dir.createCalls[0].RecipientID)
	assert.False(t, dir.createCalls[0].RawIdentifier)
	assert.Equal(t, []string{"c1"}, dir.postedChats)
}

func TestSendToUser_ExplicitChatSkipsResolution(t *testing.T) {
	dir := newFakeDirectory()
	dir.chats = []domain.ChatInfo{{ID: "other"}}

	svc := NewChatSendService(dir)
	receipt, err := svc.SendToUser(context.Background(), "", "hello", "picked-chat")

	require.NoError(t, err)
	assert.Equal(t, "picked-chat", receipt.ChatID)
	assert.Zero(t, dir.listCalls, "fast path must not list chats")
	assert.Empty(t, dir.memberCalls, "fast path must not fetch members")
	assert.Empty(t, dir.createCalls)
}

func TestSendToUser_ValidationShortCircuits(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		body      string
	}{
		{name: "empty recipient", recipient: "", body: "hello"},
		{name: "empty body", recipient: "user@x.com", body: ""},
		{name: "whitespace body", recipient: "user@x.com", body: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newFakeDirectory()
			svc := NewChatSendService(dir)

			_, err := svc.SendToUser(context.Background(), tt.recipient, tt.body, "")

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, dir.listCalls, "validation failures must issue zero network calls")
			assert.Empty(t, dir.memberCalls)
			assert.Empty(t, dir.createCalls)
			assert.Empty(t, dir.postedChats)
		})
	}
}

func TestSendToUser_SearchSkipsFailedMembershipLookups(t *testing.T) {
	dir := newFakeDirectory()
	dir.chats = []domain.ChatInfo{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	dir.members["c1"] = []domain.ChatMember{{UserID: "someone-else"}}
	dir.memberErr["c2"] = errors.New("boom")
	dir.members["c3"] = []domain.ChatMember{{UserID: "bob-id"}}

	svc := NewChatSendService(dir)
	receipt, err := svc.SendToUser(context.Background(), "bob-id", "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "c3", receipt.ChatID)
	assert.Equal(t, []string{"c1", "c2", "c3"}, dir.memberCalls,
		"the scan must continue past a failed membership lookup")
	assert.Empty(t, dir.createCalls)
}

func TestSendToUser_ListingFailureFallsThroughToCreate(t *testing.T) {
	dir := newFakeDirectory()
	dir.listErr = errors.New("listing unavailable")

	svc := NewChatSendService(dir)
	receipt, err := svc.SendToUser(context.Background(), "alice@contoso.com", "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "new-chat", receipt.ChatID)
	require.Len(t, dir.createCalls, 1)
}

func TestSendToUser_FallbackCreationOnShapeRejection(t *testing.T) {
	dir := newFakeDirectory()
	dir.createFn = func(req domain.ChatCreateRequest) (*domain.ChatInfo, error) {
		if !req.RawIdentifier {
			return nil, fmt.Errorf("%w: bad member", domain.ErrMemberShape)
		}
		return &domain.ChatInfo{ID: "fallback-chat"}, nil
	}

	svc := NewChatSendService(dir)
	receipt, err := svc.SendToUser(context.Background(), "alice@contoso.com", "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "fallback-chat", receipt.ChatID)

	require.Len(t, dir.createCalls, 2)
	assert.False(t, dir.createCalls[0].RawIdentifier)
	assert.True(t, dir.createCalls[1].RawIdentifier)
	assert.Equal(t, []string{"fallback-chat"}, dir.postedChats,
		"exactly one message may be posted even across the fallback branch")
}

func TestSendToUser_FallbackFailureReturnsOriginalError(t *testing.T) {
	originalErr := fmt.Errorf("%w: original rejection", domain.ErrMemberShape)
	fallbackErr := errors.New("fallback rejection")

	dir := newFakeDirectory()
	dir.createFn = func(req domain.ChatCreateRequest) (*domain.ChatInfo, error) {
		if !req.RawIdentifier {
			return nil, originalErr
		}
		return nil, fallbackErr
	}

	svc := NewChatSendService(dir)
	_, err := svc.SendToUser(context.Background(), "alice@contoso.com", "hi", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, originalErr, "the original creation error must be reported, not the fallback's")
	assert.NotErrorIs(t, err, fallbackErr)
	require.Len(t, dir.createCalls, 2, "exactly one fallback attempt")
	assert.Empty(t, dir.postedChats, "nothing may be posted when creation never succeeds")
}

func TestSendToUser_OtherCreationErrorSkipsFallback(t *testing.T) {
	creationErr := errors.New("quota exceeded")

	dir := newFakeDirectory()
	dir.createFn = func(domain.ChatCreateRequest) (*domain.ChatInfo, error) {
		return nil, creationErr
	}

	svc := NewChatSendService(dir)
	_, err := svc.SendToUser(context.Background(), "alice@contoso.com", "hi", "")

	assert.ErrorIs(t, err, creationErr)
	require.Len(t, dir.createCalls, 1, "no fallback for errors outside the known shape rejection")
}

func TestSendToUser_DeliveryFailurePropagates(t *testing.T) {
	dir := newFakeDirectory()
	dir.chats = []domain.ChatInfo{{ID: "c1"}}
	dir.members["c1"] = []domain.ChatMember{{UserID: "bob-id"}}
	dir.postErr = errors.New("post rejected")

	svc := NewChatSendService(dir)
	_, err := svc.SendToUser(context.Background(), "bob-id", "hi", "")

	assert.ErrorContains(t, err, "post rejected")
}

func TestSendToUser_ProfileFetchedOncePerSession(t *testing.T) {
	profileCalls := 0
	countingDir := &profileCountingDirectory{fakeDirectory: newFakeDirectory(), calls: &profileCalls}

	svc := NewChatSendService(countingDir)
	_, err := svc.SendToUser(context.Background(), "a@x.com", "one", "")
	require.NoError(t, err)
	_, err = svc.SendToUser(context.Background(), "b@x.com", "two", "")
	require.NoError(t, err)

	assert.Equal(t, 1, profileCalls, "the profile is fetched once and cached for the session")
}

// profileCountingDirectory wraps fakeDirectory to count profile fetches.
type profileCountingDirectory struct {
	*fakeDirectory
	calls *int
}

func (p *profileCountingDirectory) Profile(ctx context.Context) (*domain.UserProfile, error) {
	*p.calls++
	return p.fakeDirectory.Profile(ctx)
}

func TestAllChats_TopicPlaceholderAndParticipants(t *testing.T) {
	dir := newFakeDirectory()
	dir.chats = []domain.ChatInfo{
		{ID: "19:longchatidentifier", Kind: domain.ChatOneOnOne},
		{ID: "c2", Topic: "Standup", Kind: domain.ChatGroup},
	}
	dir.members["19:longchatidentifier"] = []domain.ChatMember{
		{UserID: "u1", DisplayName: "Alice", Email: "alice@contoso.com"},
		{UserID: "u2"},
	}
	dir.memberErr["c2"] = errors.New("forbidden")

	svc := NewChatSendService(dir)
	chats, err := svc.AllChats(context.Background())

	require.NoError(t, err)
	require.Len(t, chats, 2)

	assert.Equal(t, "Chat 19:longc...", chats[0].Topic)
	require.Len(t, chats[0].Participants, 2)
	assert.Equal(t, "Alice", chats[0].Participants[0].DisplayName)
	assert.Equal(t, "Unknown", chats[0].Participants[1].DisplayName,
		"members without a display name get a placeholder")

	assert.Equal(t, "Standup", chats[1].Topic)
	assert.Empty(t, chats[1].Participants, "a failed membership lookup still lists the chat")
}

func TestAllChats_ListingErrorPropagates(t *testing.T) {
	dir := newFakeDirectory()
	dir.listErr = errors.New("unavailable")

	svc := NewChatSendService(dir)
	_, err := svc.AllChats(context.Background())

	assert.ErrorContains(t, err, "unavailable")
}
