// Package chats talks to the Microsoft Graph chat endpoints: listing chats
// and their members, creating one-to-one chats, and posting messages.
package chats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/relay-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/relay-cli/internal/core/domain"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driven"
	"github.com/custodia-labs/relay-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ChatDirectory = (*Client)(nil)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// ownerRole is granted to both members of a newly created one-to-one chat.
var ownerRole = []string{"owner"}

// Client is the Microsoft Graph chat client.
type Client struct {
	tokenProvider driven.TokenProvider
	httpClient    *http.Client
	rateLimiter   *microsoft.RateLimiter
	baseURL       string
}

// New creates a Graph chat client.
func New(tokenProvider driven.TokenProvider) *Client {
	return &Client{
		tokenProvider: tokenProvider,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		rateLimiter:   microsoft.NewRateLimiter(microsoft.ServiceChats),
		baseURL:       graphBaseURL,
	}
}

// NewWithBaseURL creates a client against a non-default Graph endpoint.
// Used by tests to point the client at a fake server.
func NewWithBaseURL(tokenProvider driven.TokenProvider, baseURL string) *Client {
	c := New(tokenProvider)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// Profile fetches the current user's directory profile.
func (c *Client) Profile(ctx context.Context) (*domain.UserProfile, error) {
	url := c.baseURL + "/me?$select=id,displayName,mail,userPrincipalName"

	var profile struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := c.getJSON(ctx, url, &profile); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	return &domain.UserProfile{
		ID:                profile.ID,
		DisplayName:       profile.DisplayName,
		Mail:              profile.Mail,
		UserPrincipalName: profile.UserPrincipalName,
	}, nil
}

// ListChats lists the chats visible to the current user, following paging
// links until the listing is exhausted. Ordering is whatever Graph returns.
func (c *Client) ListChats(ctx context.Context) ([]domain.ChatInfo, error) {
	url := c.baseURL + "/chats?$select=id,topic,chatType"

	var chats []domain.ChatInfo
	for url != "" {
		var page struct {
			Value    []chatResource `json:"value"`
			NextLink string         `json:"@odata.nextLink"`
		}
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, fmt.Errorf("list chats: %w", err)
		}

		for _, raw := range page.Value {
			chats = append(chats, raw.toDomain())
		}
		url = page.NextLink
	}

	logger.Debug("chats: listed %d chats", len(chats))
	return chats, nil
}

// ListMembers fetches the membership of a single chat.
func (c *Client) ListMembers(ctx context.Context, chatID string) ([]domain.ChatMember, error) {
	url := c.baseURL + "/chats/" + chatID + "/members"

	var page struct {
		Value []memberResource `json:"value"`
	}
	if err := c.getJSON(ctx, url, &page); err != nil {
		return nil, fmt.Errorf("list members for chat %s: %w", chatID, err)
	}

	members := make([]domain.ChatMember, 0, len(page.Value))
	for _, raw := range page.Value {
		members = append(members, raw.toDomain())
	}
	return members, nil
}

// CreateOneOnOneChat creates a chat with exactly the two members named in the
// request. The primary payload binds each member to a directory user
// resource; the fallback shape (req.RawIdentifier) passes the recipient
// identifier through as a plain userId, which Graph accepts for identifiers
// it can resolve itself. A member-binding rejection is wrapped in
// domain.ErrMemberShape so the caller can run its one-shot fallback.
func (c *Client) CreateOneOnOneChat(ctx context.Context, req domain.ChatCreateRequest) (*domain.ChatInfo, error) {
	payload := newChatPayload(req, c.baseURL)

	var created chatResource
	if err := c.postJSON(ctx, c.baseURL+"/chats", payload, &created); err != nil {
		if ge := graphErrorFrom(err); ge != nil && isMemberShapeRejection(ge) {
			return nil, fmt.Errorf("%w: %w", domain.ErrMemberShape, err)
		}
		return nil, fmt.Errorf("create chat: %w", err)
	}

	info := created.toDomain()
	logger.Debug("chats: created one-to-one chat %s", info.ID)
	return &info, nil
}

// PostMessage posts a message body into an existing chat.
func (c *Client) PostMessage(ctx context.Context, chatID, content string) (*domain.MessageReceipt, error) {
	payload := map[string]any{
		"body": map[string]any{
			"content": content,
		},
	}

	var msg struct {
		ID              string `json:"id"`
		ChatID          string `json:"chatId"`
		CreatedDateTime string `json:"createdDateTime"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/chats/"+chatID+"/messages", payload, &msg); err != nil {
		return nil, fmt.Errorf("post message to chat %s: %w", chatID, err)
	}

	receipt := &domain.MessageReceipt{
		ChatID:    chatID,
		MessageID: msg.ID,
		CreatedAt: msg.CreatedDateTime,
	}
	if msg.ChatID != "" {
		receipt.ChatID = msg.ChatID
	}
	return receipt, nil
}

// getJSON issues an authenticated GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, out)
}

// postJSON issues an authenticated POST with a JSON body.
func (c *Client) postJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, url, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	if microsoft.IsRateLimited(resp.StatusCode) {
		c.rateLimiter.RecordRateLimitError(retryAfterSeconds(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return microsoft.DecodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryAfterSeconds reads the Retry-After header from a throttled response.
func retryAfterSeconds(resp *http.Response) int {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
