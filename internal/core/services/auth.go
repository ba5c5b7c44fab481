package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driven"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driving"
	"github.com/custodia-labs/relay-cli/internal/logger"
)

// Ensure AuthService implements the interfaces.
var (
	_ driving.SessionService = (*AuthService)(nil)
	_ driven.TokenProvider   = (*AuthService)(nil)
)

// AuthService is the credential/session bootstrap. It owns the namespaced
// credential store and the interactive flow selected once at startup; the
// rest of the application sees one uniform credential source and never
// learns which flow produced the credential.
type AuthService struct {
	store driven.CredentialStore
	flow  driven.AuthFlow
}

// NewAuthService creates the session bootstrap service.
func NewAuthService(store driven.CredentialStore, flow driven.AuthFlow) *AuthService {
	return &AuthService{store: store, flow: flow}
}

// ActiveCredential returns a cached, unexpired credential for the current
// session. An expired credential with a refresh token is refreshed silently;
// when that fails, or no credential is stored, it returns nil and the caller
// must run SignIn.
func (s *AuthService) ActiveCredential(ctx context.Context) (*domain.Credential, error) {
	cred, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return nil, nil
	}
	if cred.Valid() {
		return cred, nil
	}
	if cred.RefreshToken == "" {
		return nil, nil
	}

	refreshed, err := s.flow.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		logger.Debug("auth: silent refresh failed: %v", err)
		return nil, nil
	}
	if err := s.store.Save(ctx, refreshed); err != nil {
		return nil, fmt.Errorf("save refreshed credential: %w", err)
	}

	logger.Debug("auth: credential refreshed silently for %s", refreshed.Username)
	return refreshed, nil
}

// SignIn runs the interactive flow selected at startup. At most one
// interactive flow may run per session; a concurrent second attempt fails
// fast with domain.ErrInteractionInProgress.
func (s *AuthService) SignIn(ctx context.Context) (*domain.Credential, error) {
	if err := s.store.AcquireInteractionLock(ctx); err != nil {
		if errors.Is(err, domain.ErrInteractionInProgress) {
			return nil, err
		}
		return nil, fmt.Errorf("acquire interaction lock: %w", err)
	}
	defer func() {
		if err := s.store.ReleaseInteractionLock(ctx); err != nil {
			logger.Warn("auth: failed to release interaction lock: %v", err)
		}
	}()

	cred, err := s.flow.SignIn(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}

	logger.Info("auth: signed in as %s via %s", cred.Username, s.flow.Name())
	return cred, nil
}

// SignOut invalidates the stored credential. Signing out of an empty session
// is a no-op.
func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// FlowName reports which sign-in flow the environment probe selected.
func (s *AuthService) FlowName() string {
	return s.flow.Name()
}

// GetToken implements the TokenProvider consumed by the Graph client. It
// never triggers an interactive flow itself; without an active credential it
// reports domain.ErrAuthRequired for the caller to surface.
func (s *AuthService) GetToken(ctx context.Context) (string, error) {
	cred, err := s.ActiveCredential(ctx)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", domain.ErrAuthRequired
	}
	return cred.AccessToken, nil
}
