package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/CliForge/contentsdk/pkg/auth"
	"github.com/CliForge/contentsdk/pkg/auth/types"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validator handles configuration validation.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates a complete configuration.
func (v *Validator) Validate(config *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateAuth(&config.Auth)
	v.validateSession(&config.Session, &config.Auth)
	v.validateStorage(&config.Storage)

	if len(v.errors) > 0 {
		return v.errors
	}

	return nil
}

func (v *Validator) validateAuth(a *auth.Config) {
	if err := a.Validate(); err != nil {
		v.addError("auth", err.Error())
	}

	for field, value := range map[string]string{
		"auth.api_root_url":       a.APIRootURL,
		"auth.authorize_root_url": a.AuthorizeRootURL,
	} {
		if value != "" && !isValidURL(value) {
			v.addError(field, fmt.Sprintf("invalid URL: %s", value))
		}
	}
}

func (v *Validator) validateSession(s *SessionConfig, a *auth.Config) {
	switch s.Mode {
	case auth.ModeBasic, auth.ModeAnonymous, auth.ModePersistent:
	case auth.ModeAppAuth:
		if a.AppAuth == nil {
			v.addError("auth.app_auth", "is required for app_auth sessions")
		}
		switch s.SubjectType {
		case "", auth.SubjectTypeEnterprise, auth.SubjectTypeUser:
		default:
			v.addError("session.subject_type", fmt.Sprintf("must be one of: enterprise, user (got %s)", s.SubjectType))
		}
		if s.SubjectID == "" && a.EnterpriseID == "" && a.UserID == "" {
			v.addError("session.subject_id", "is required when auth.enterprise_id and auth.user_id are unset")
		}
	default:
		v.addError("session.mode", fmt.Sprintf("must be one of: basic, anonymous, app_auth, persistent (got %s)", s.Mode))
	}

	if s.RedirectURL != "" && !isValidURL(s.RedirectURL) {
		v.addError("session.redirect_url", fmt.Sprintf("invalid URL: %s", s.RedirectURL))
	}
}

func (v *Validator) validateStorage(s *types.StorageConfig) {
	switch s.Type {
	case "", types.StorageTypeFile, types.StorageTypeKeyring, types.StorageTypeMemory, types.StorageTypeBolt:
	default:
		v.addError("storage.type", fmt.Sprintf("must be one of: file, keyring, memory, bolt (got %s)", s.Type))
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
