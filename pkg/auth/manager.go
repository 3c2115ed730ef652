package auth

import (
	"context"
	"fmt"

	"github.com/CliForge/contentsdk/pkg/auth/storage"
	"github.com/CliForge/contentsdk/pkg/auth/types"
)

// SessionParams selects and parameterizes a session variant.
type SessionParams struct {
	// Mode selects the session variant.
	Mode Mode
	// DeveloperToken is the fixed token of a basic session.
	DeveloperToken string
	// TokenInfo is the initial record of a persistent session. When nil the
	// record is read from Store.
	TokenInfo *types.TokenInfo
	// SubjectType and SubjectID bind an app-auth session.
	SubjectType SubjectType
	SubjectID   string
	// Store backs a persistent session. Optional.
	Store storage.TokenStore
}

// NewSession creates the session variant selected by params.Mode.
func NewSession(ctx context.Context, manager *TokenManager, params SessionParams) (Session, error) {
	var (
		session Session
		err     error
	)

	switch params.Mode {
	case ModeBasic:
		session, err = NewBasicSession(manager, params.DeveloperToken)

	case ModeAnonymous:
		session, err = NewAnonymousSession(manager)

	case ModeAppAuth:
		subjectType, subjectID := params.SubjectType, params.SubjectID
		if subjectType == "" && manager != nil {
			subjectType, subjectID = manager.defaultSubject()
		}
		session, err = NewAppAuthSession(manager, subjectType, subjectID)

	case ModePersistent:
		session, err = NewPersistentSession(ctx, manager, params.TokenInfo, params.Store)

	default:
		return nil, invalidInput("unsupported session mode: %q", params.Mode)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s session: %w", params.Mode, err)
	}
	return session, nil
}

// defaultSubject returns the configured user, or else the configured
// enterprise, as the app-auth subject.
func (m *TokenManager) defaultSubject() (SubjectType, string) {
	if m.config.UserID != "" {
		return SubjectTypeUser, m.config.UserID
	}
	return SubjectTypeEnterprise, m.config.EnterpriseID
}
