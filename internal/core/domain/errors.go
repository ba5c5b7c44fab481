package domain

import "errors"

// Sentinel errors shared across the core and its adapters.
var (
	// ErrValidation indicates missing or empty caller input. It is raised
	// before any network call is made.
	ErrValidation = errors.New("validation: required field missing")

	// ErrAuthRequired indicates no active credential is available; the caller
	// must run an interactive sign-in.
	ErrAuthRequired = errors.New("auth: sign-in required")

	// ErrInteractionInProgress indicates another interactive sign-in is
	// already underway for this session. At most one interactive flow may run
	// at a time; a second attempt fails fast instead of corrupting the
	// session store.
	ErrInteractionInProgress = errors.New("auth: interactive sign-in already in progress")

	// ErrUserCancelled indicates the user abandoned the interactive sign-in.
	ErrUserCancelled = errors.New("auth: sign-in cancelled")

	// ErrMemberShape indicates the messaging service rejected a chat-creation
	// payload because the member binding was missing or malformed. This is
	// the only creation failure that triggers the one-shot fallback payload.
	ErrMemberShape = errors.New("chats: member binding rejected")
)
