package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	errIdentityDirectoryRequired = errors.New("identity service: account directory is required")
)

// ErrIdentityInvalidInput indicates the caller supplied invalid input.
var ErrIdentityInvalidInput = errors.New("identity service: invalid input")

// ErrIdentityUnavailable indicates the identity provider cannot be reached.
var ErrIdentityUnavailable = errors.New("identity service: unavailable")

// Client-facing credential failure messages, shown verbatim by the app.
const (
	MsgNoUserFound       = "No user found with this email."
	MsgIncorrectPassword = "Incorrect password."
	MsgEmailRegistered   = "Email already registered."
	MsgAuthGeneric       = "Something went wrong."
)

// CredentialFailure is a credential rejection with its client-facing message.
type CredentialFailure struct {
	Code    string
	Message string
}

func (e *CredentialFailure) Error() string {
	return fmt.Sprintf("identity service: credentials rejected (%s)", e.Code)
}

// IsCredentialFailure reports whether err is a credential rejection.
func IsCredentialFailure(err error) (*CredentialFailure, bool) {
	var failure *CredentialFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// credentialCoder is implemented by provider errors that carry an identity
// platform error code.
type credentialCoder interface {
	CredentialCode() string
}

// PasswordSession is the raw token bundle from the identity provider.
type PasswordSession struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// AccountDirectory provisions and reads accounts via the Admin SDK.
type AccountDirectory interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (UserProfile, error)
	GetAccount(ctx context.Context, uid string) (UserProfile, error)
}

// PasswordAuthenticator exchanges email/password credentials for tokens.
type PasswordAuthenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (PasswordSession, error)
}

// IdentityServiceDeps wires the identity provider clients.
type IdentityServiceDeps struct {
	Directory AccountDirectory
	Passwords PasswordAuthenticator
	Logger    func(context.Context, string, map[string]any)
}

type identityService struct {
	directory AccountDirectory
	passwords PasswordAuthenticator
	logger    func(context.Context, string, map[string]any)
}

// NewIdentityService constructs an IdentityService enforcing dependency validation.
func NewIdentityService(deps IdentityServiceDeps) (IdentityService, error) {
	if deps.Directory == nil {
		return nil, errIdentityDirectoryRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &identityService{
		directory: deps.Directory,
		passwords: deps.Passwords,
		logger:    logger,
	}, nil
}

// Register creates a new account with the provider.
func (s *identityService) Register(ctx context.Context, cmd RegisterCommand) (UserProfile, error) {
	if s == nil || s.directory == nil {
		return UserProfile{}, ErrIdentityUnavailable
	}

	email := strings.TrimSpace(strings.ToLower(cmd.Email))
	password := cmd.Password
	name := strings.TrimSpace(cmd.Name)
	if email == "" || password == "" {
		return UserProfile{}, ErrIdentityInvalidInput
	}

	profile, err := s.directory.CreateAccount(ctx, email, password, name)
	if err != nil {
		return UserProfile{}, s.translateProviderError(ctx, err)
	}

	s.logger(ctx, "identity.registered", map[string]any{"uid": profile.UID})
	return profile, nil
}

// SignIn exchanges credentials for a session.
func (s *identityService) SignIn(ctx context.Context, cmd SignInCommand) (Session, error) {
	if s == nil || s.passwords == nil {
		return Session{}, ErrIdentityUnavailable
	}

	email := strings.TrimSpace(strings.ToLower(cmd.Email))
	password := cmd.Password
	if email == "" || password == "" {
		return Session{}, ErrIdentityInvalidInput
	}

	session, err := s.passwords.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Session{}, s.translateProviderError(ctx, err)
	}

	return Session{
		IDToken:      session.IDToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		Profile: UserProfile{
			UID:   session.UID,
			Email: session.Email,
			Name:  session.DisplayName,
		},
	}, nil
}

// GetProfile loads the account behind a verified uid.
func (s *identityService) GetProfile(ctx context.Context, uid string) (UserProfile, error) {
	if s == nil || s.directory == nil {
		return UserProfile{}, ErrIdentityUnavailable
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return UserProfile{}, ErrIdentityInvalidInput
	}

	profile, err := s.directory.GetAccount(ctx, uid)
	if err != nil {
		return UserProfile{}, s.translateProviderError(ctx, err)
	}
	return profile, nil
}

// translateProviderError maps identity platform error codes onto the fixed
// client-facing messages.
func (s *identityService) translateProviderError(ctx context.Context, err error) error {
	var coder credentialCoder
	if !errors.As(err, &coder) {
		s.logger(ctx, "identity.provider_error", map[string]any{"error": err.Error()})
		return &CredentialFailure{Code: "UNKNOWN", Message: MsgAuthGeneric}
	}

	code := coder.CredentialCode()
	switch code {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return &CredentialFailure{Code: code, Message: MsgNoUserFound}
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return &CredentialFailure{Code: code, Message: MsgIncorrectPassword}
	case "EMAIL_EXISTS", "EMAIL_ALREADY_EXISTS":
		return &CredentialFailure{Code: code, Message: MsgEmailRegistered}
	default:
		return &CredentialFailure{Code: code, Message: MsgAuthGeneric}
	}
}
