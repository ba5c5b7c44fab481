// Package microsoft provides shared support for talking to the Microsoft
// Graph API.
//
// This package provides:
//   - Error handling for Microsoft Graph API responses, including the
//     structured error body Graph returns alongside non-2xx statuses
//   - Rate limiting for Microsoft Graph API requests
//
// Microsoft Graph endpoints use the "common" tenant for multi-tenant support,
// allowing both personal Microsoft accounts and Azure AD accounts. OAuth2
// token acquisition itself lives in the driven oauth adapter; this package
// only consumes access tokens.
//
// # Rate Limits
//
// Microsoft Graph allows approximately 10,000 requests per 10 minutes per
// app. This package implements conservative rate limiting to avoid hitting
// quotas. The chats subpackage wraps every request with the chats-service
// limiter because the chat-resolution scan fans out one membership request
// per visible chat.
package microsoft
